package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/ektamehra-ue/uelogic/pkg/models"
)

const timeLayout = time.RFC3339

// WindowResolver picks the formula row in effect at an instant.
type WindowResolver struct{}

func formulaWindow(f models.Formula) string {
	end := "open"
	if f.End != nil {
		end = f.End.UTC().Format(timeLayout)
	}
	return "[" + f.Start.UTC().Format(timeLayout) + ", " + end + ")"
}

func covers(f models.Formula, at time.Time) bool {
	if at.Before(f.Start) {
		return false
	}
	return f.End == nil || at.Before(*f.End)
}

// Resolve returns the row whose [start, end) contains at, preferring the
// latest start. Two covering rows with the same start are ambiguous. A nil
// result with a nil error means nothing is active at that instant.
func (WindowResolver) Resolve(formulas []models.Formula, at time.Time) (*models.Formula, error) {
	var best *models.Formula
	for i := range formulas {
		f := &formulas[i]
		if covers(*f, at) && (best == nil || f.Start.After(best.Start)) {
			best = f
		}
	}
	if best == nil {
		return nil, nil
	}

	for i := range formulas {
		f := &formulas[i]
		if f != best && covers(*f, at) && f.Start.Equal(best.Start) {
			first, second := best, f
			if second.ID < first.ID {
				first, second = second, first
			}
			return nil, &ConfigurationError{
				Reason:  ErrAmbiguousFormula,
				MeterID: best.TargetMeterID,
				Window:  formulaWindow(*best),
				Detail: fmt.Sprintf("rows %d and %d both start at %s",
					first.ID, second.ID, best.Start.UTC().Format(timeLayout)),
			}
		}
	}
	return best, nil
}

// Validate checks one target's rows before a run writes anything: every
// window must end after it starts, and no two rows may share a start.
func (WindowResolver) Validate(formulas []models.Formula) error {
	sorted := make([]models.Formula, len(formulas))
	copy(sorted, formulas)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	for i, f := range sorted {
		if f.End != nil && !f.End.After(f.Start) {
			return &ConfigurationError{
				Reason:  ErrInvalidWindow,
				MeterID: f.TargetMeterID,
				Window:  formulaWindow(f),
			}
		}
		if i > 0 && sorted[i-1].Start.Equal(f.Start) {
			return &ConfigurationError{
				Reason:  ErrAmbiguousFormula,
				MeterID: f.TargetMeterID,
				Window:  formulaWindow(f),
				Detail:  fmt.Sprintf("rows %d and %d share a start", sorted[i-1].ID, f.ID),
			}
		}
	}
	return nil
}
