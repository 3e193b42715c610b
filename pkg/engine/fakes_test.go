package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ektamehra-ue/uelogic/pkg/models"
	"github.com/ektamehra-ue/uelogic/pkg/series"
)

var errFakeWrite = errors.New("fake: write failed")

type readingKey struct {
	meter uint
	kind  models.ReadingKind
	ts    int64
}

// memStore is an in-memory Store. Transactions work on a copy that replaces
// the live data only when fn succeeds.
type memStore struct {
	mu       sync.Mutex
	readings map[readingKey]series.Point
	runs     []RunReport
	upserts  int

	failOnMeter uint
}

func newMemStore() *memStore {
	return &memStore{readings: map[readingKey]series.Point{}}
}

func (s *memStore) add(meterID uint, kind models.ReadingKind, ts time.Time, value string) {
	s.readings[readingKey{meterID, kind, series.Key(ts)}] = series.Point{
		Timestamp:      ts.UTC(),
		Value:          decimal.RequireFromString(value),
		Unit:           "kWh",
		Kind:           kind,
		Classification: models.ClassificationActual,
		Source:         models.SourceCSV,
	}
}

func (s *memStore) Query(_ context.Context, meterID uint, kind models.ReadingKind, window series.Window) ([]series.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return query(s.readings, meterID, kind, window), nil
}

func query(readings map[readingKey]series.Point, meterID uint, kind models.ReadingKind, window series.Window) []series.Point {
	var out []series.Point
	for k, p := range readings {
		if k.meter == meterID && k.kind == kind && window.Contains(p.Timestamp) {
			out = append(out, p)
		}
	}
	series.Sort(out)
	return out
}

func (s *memStore) Upsert(_ context.Context, meterID uint, point series.Point) (UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsert(s.readings, meterID, point), nil
}

func upsert(readings map[readingKey]series.Point, meterID uint, point series.Point) UpsertOutcome {
	k := readingKey{meterID, point.Kind, series.Key(point.Timestamp)}
	_, exists := readings[k]
	readings[k] = point
	if exists {
		return UpsertUpdated
	}
	return UpsertCreated
}

func (s *memStore) Transaction(ctx context.Context, fn func(tx TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{store: s, readings: make(map[readingKey]series.Point, len(s.readings))}
	for k, p := range s.readings {
		tx.readings[k] = p
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.readings = tx.readings
	s.runs = append(s.runs, tx.runs...)
	s.upserts += tx.upserts
	return nil
}

func (s *memStore) value(meterID uint, ts time.Time) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.readings[readingKey{meterID, models.ReadingKindConsumption, series.Key(ts)}]
	return p.Value.String(), ok
}

func (s *memStore) count(meterID uint, kind models.ReadingKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(query(s.readings, meterID, kind, series.Window{}))
}

type memTx struct {
	store    *memStore
	readings map[readingKey]series.Point
	runs     []RunReport
	upserts  int
}

func (tx *memTx) Query(_ context.Context, meterID uint, kind models.ReadingKind, window series.Window) ([]series.Point, error) {
	return query(tx.readings, meterID, kind, window), nil
}

func (tx *memTx) Upsert(_ context.Context, meterID uint, point series.Point) (UpsertOutcome, error) {
	if tx.store.failOnMeter != 0 && tx.store.failOnMeter == meterID {
		return 0, errFakeWrite
	}
	tx.upserts++
	return upsert(tx.readings, meterID, point), nil
}

func (tx *memTx) RecordRun(_ context.Context, report *RunReport) error {
	tx.runs = append(tx.runs, *report)
	return nil
}

// memCatalog serves a fixed set of meters of one organization.
type memCatalog struct {
	meters   []models.Meter
	formulas map[uint][]models.Formula
	edges    []models.AllocationEdge
}

func newMemCatalog() *memCatalog {
	return &memCatalog{formulas: map[uint][]models.Formula{}}
}

func (c *memCatalog) meter(id uint, identifier string, typ models.MeterType) models.Meter {
	m := models.Meter{ID: id, OrgID: 1, BuildingID: 1, Identifier: identifier, Type: typ, Unit: "kWh", IsActive: true}
	c.meters = append(c.meters, m)
	return m
}

func (c *memCatalog) formula(target uint, expr string, start time.Time, end *time.Time) {
	c.formulas[target] = append(c.formulas[target], models.Formula{
		ID:            uint(len(c.formulas[target]) + 1),
		TargetMeterID: target,
		Expression:    expr,
		Start:         start,
		End:           end,
	})
}

func (c *memCatalog) edge(parent, child uint, percent string) {
	c.edges = append(c.edges, models.AllocationEdge{
		ID:       uint(len(c.edges) + 1),
		ParentID: parent,
		ChildID:  child,
		Percent:  decimal.RequireFromString(percent),
	})
}

func (c *memCatalog) Meters(context.Context, Scope) ([]models.Meter, error) {
	out := append([]models.Meter(nil), c.meters...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *memCatalog) Meter(_ context.Context, id uint) (*models.Meter, error) {
	for _, m := range c.meters {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, ErrMeterNotFound
}

func (c *memCatalog) Resolve(_ context.Context, orgID uint, identifier string) (*models.Meter, error) {
	for _, m := range c.meters {
		if m.OrgID == orgID && m.Identifier == identifier {
			return &m, nil
		}
	}
	return nil, ErrMeterNotFound
}

func (c *memCatalog) Formulas(_ context.Context, meterID uint) ([]models.Formula, error) {
	return c.formulas[meterID], nil
}

func (c *memCatalog) ActiveFormula(_ context.Context, meterID uint, at time.Time) (*models.Formula, error) {
	return WindowResolver{}.Resolve(c.formulas[meterID], at)
}

func (c *memCatalog) AllocationEdges(_ context.Context, parentID uint) ([]models.AllocationEdge, error) {
	var out []models.AllocationEdge
	for _, e := range c.edges {
		if e.ParentID == parentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *memCatalog) AllocationEdgesInto(_ context.Context, childID uint) ([]models.AllocationEdge, error) {
	var out []models.AllocationEdge
	for _, e := range c.edges {
		if e.ChildID == childID {
			out = append(out, e)
		}
	}
	return out, nil
}

func at(hour int) time.Time {
	return time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func points(values ...string) []series.Point {
	out := make([]series.Point, len(values))
	for i, v := range values {
		out[i] = series.Point{
			Timestamp: at(i),
			Value:     decimal.RequireFromString(v),
			Unit:      "kWh",
			Kind:      models.ReadingKindAccumulated,
		}
	}
	return out
}
