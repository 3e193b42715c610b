package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ektamehra-ue/uelogic/pkg/common"
	"github.com/ektamehra-ue/uelogic/pkg/models"
	"github.com/ektamehra-ue/uelogic/pkg/series"
)

var hundred = decimal.NewFromInt(100)

// ValidateEdges rejects self allocation and percents outside [0, 100].
func ValidateEdges(edges []models.AllocationEdge) error {
	for _, e := range edges {
		if e.ParentID == e.ChildID {
			return &ConfigurationError{
				Reason:  ErrSelfAllocation,
				MeterID: e.ParentID,
				Detail:  fmt.Sprintf("edge %d allocates meter %d to itself", e.ID, e.ParentID),
			}
		}
		if e.Percent.IsNegative() || e.Percent.GreaterThan(hundred) {
			return &ConfigurationError{
				Reason:  ErrPercentOutOfRange,
				MeterID: e.ChildID,
				Detail:  fmt.Sprintf("edge %d->%d percent %s", e.ParentID, e.ChildID, e.Percent),
			}
		}
	}
	return nil
}

type Allocator struct{}

// PercentSum is the share of the parent handed out by edges. Anything other
// than 100 is legal; the remainder simply stays unallocated.
func (Allocator) PercentSum(edges []models.AllocationEdge) decimal.Decimal {
	return common.Reducer(edges, func(sum decimal.Decimal, e models.AllocationEdge) decimal.Decimal {
		return sum.Add(e.Percent)
	}, decimal.Zero)
}

// Allocate splits every parent point across the edges' children, keyed by
// child meter id. Output points keep the parent's timestamps and unit.
func (Allocator) Allocate(parent []series.Point, edges []models.AllocationEdge) (map[uint][]series.Point, error) {
	if err := ValidateEdges(edges); err != nil {
		return nil, err
	}

	out := make(map[uint][]series.Point, len(edges))
	for _, e := range edges {
		share := make([]series.Point, 0, len(parent))
		for _, p := range parent {
			v := p.Value.Mul(e.Percent).Div(hundred)
			share = append(share, series.Derived(p.Timestamp, v, p.Unit))
		}
		out[e.ChildID] = share
	}
	return out, nil
}
