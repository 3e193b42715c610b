// Package series holds the value model shared by the engine and its stores:
// a point of a meter's time series and half-open time windows.
package series

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ektamehra-ue/uelogic/pkg/models"
)

type Point struct {
	Timestamp      time.Time
	Value          decimal.Decimal
	Unit           string
	Kind           models.ReadingKind
	Classification models.Classification
	Source         models.Source
}

// Derived returns a system-generated consumption point.
func Derived(ts time.Time, value decimal.Decimal, unit string) Point {
	return Point{
		Timestamp:      ts.UTC(),
		Value:          value,
		Unit:           unit,
		Kind:           models.ReadingKindConsumption,
		Classification: models.ClassificationSystem,
		Source:         models.SourceSystem,
	}
}

// Key identifies a timestamp independently of its location.
func Key(ts time.Time) int64 {
	return ts.UnixNano()
}

// Sort orders points by timestamp, keeping the input order of equal ones.
func Sort(points []Point) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
}

// Index maps each timestamp key to its point. Later duplicates win.
func Index(points []Point) map[int64]Point {
	idx := make(map[int64]Point, len(points))
	for _, p := range points {
		idx[Key(p.Timestamp)] = p
	}
	return idx
}

// Timestamps returns the sorted, de-duplicated union of the timestamps of
// all given series.
func Timestamps(all ...[]Point) []time.Time {
	seen := make(map[int64]struct{})
	var out []time.Time
	for _, points := range all {
		for _, p := range points {
			k := Key(p.Timestamp)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, p.Timestamp.UTC())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Window is the half-open interval [Since, Until). A nil bound is unbounded.
type Window struct {
	Since *time.Time
	Until *time.Time
}

func NewWindow(since, until *time.Time) Window {
	w := Window{}
	if since != nil {
		s := since.UTC()
		w.Since = &s
	}
	if until != nil {
		u := until.UTC()
		w.Until = &u
	}
	return w
}

func (w Window) Contains(ts time.Time) bool {
	if w.Since != nil && ts.Before(*w.Since) {
		return false
	}
	if w.Until != nil && !ts.Before(*w.Until) {
		return false
	}
	return true
}

// Empty reports whether no instant can fall into the window.
func (w Window) Empty() bool {
	return w.Since != nil && w.Until != nil && !w.Since.Before(*w.Until)
}

// Clip narrows the window to [start, end), end nil meaning open ended.
func (w Window) Clip(start time.Time, end *time.Time) Window {
	out := NewWindow(w.Since, w.Until)
	start = start.UTC()
	if out.Since == nil || out.Since.Before(start) {
		out.Since = &start
	}
	if end != nil {
		e := end.UTC()
		if out.Until == nil || e.Before(*out.Until) {
			out.Until = &e
		}
	}
	return out
}

// Filter returns the points whose timestamp lies in the window.
func (w Window) Filter(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if w.Contains(p.Timestamp) {
			out = append(out, p)
		}
	}
	return out
}

func (w Window) String() string {
	since, until := "-inf", "+inf"
	if w.Since != nil {
		since = w.Since.Format(time.RFC3339)
	}
	if w.Until != nil {
		until = w.Until.Format(time.RFC3339)
	}
	return "[" + since + ", " + until + ")"
}
