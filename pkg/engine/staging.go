package engine

import (
	"context"
	"sync"

	"github.com/ektamehra-ue/uelogic/pkg/common"
	"github.com/ektamehra-ue/uelogic/pkg/models"
	"github.com/ektamehra-ue/uelogic/pkg/series"
)

// staging buffers the derived points of a run. Reads merge the buffered
// points over the base store so later stages see earlier results before
// anything is committed.
type staging struct {
	base ReadingStore

	mu     sync.RWMutex
	points map[uint]map[int64]series.Point
}

func newStaging(base ReadingStore) *staging {
	return &staging{base: base, points: map[uint]map[int64]series.Point{}}
}

func (s *staging) Query(ctx context.Context, meterID uint, kind models.ReadingKind, window series.Window) ([]series.Point, error) {
	stored, err := s.base.Query(ctx, meterID, kind, window)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	staged := make([]series.Point, 0, len(s.points[meterID]))
	for _, p := range s.points[meterID] {
		staged = append(staged, p)
	}
	s.mu.RUnlock()
	if len(staged) == 0 {
		return stored, nil
	}

	staged = window.Filter(common.Filter(staged, func(p series.Point) bool { return p.Kind == kind }))
	merged := series.Index(stored)
	for _, p := range staged {
		merged[series.Key(p.Timestamp)] = p
	}

	out := make([]series.Point, 0, len(merged))
	for _, p := range merged {
		out = append(out, p)
	}
	series.Sort(out)
	return out, nil
}

// Upsert buffers point. The outcome is only known at commit time.
func (s *staging) Upsert(_ context.Context, meterID uint, point series.Point) (UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTs, ok := s.points[meterID]
	if !ok {
		byTs = map[int64]series.Point{}
		s.points[meterID] = byTs
	}
	_, exists := byTs[series.Key(point.Timestamp)]
	byTs[series.Key(point.Timestamp)] = point
	if exists {
		return UpsertUpdated, nil
	}
	return UpsertCreated, nil
}

// Staged returns the buffered points of one meter in timestamp order.
func (s *staging) Staged(meterID uint) []series.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]series.Point, 0, len(s.points[meterID]))
	for _, p := range s.points[meterID] {
		out = append(out, p)
	}
	series.Sort(out)
	return out
}
