package engine

import (
	"fmt"

	"github.com/ektamehra-ue/uelogic/pkg/series"
)

type DiffResult struct {
	Points    []series.Point
	Anomalies []Anomaly
}

// Differencer turns an accumulated register series into consumption
// intervals. It holds no state; the same input always yields the same result.
type Differencer struct{}

// Difference emits, for every adjacent pair (p0, p1), a consumption point at
// p1 valued p1-p0. Decreasing registers and non increasing timestamps are
// reported as anomalies instead. Fewer than two points yield nothing.
func (Differencer) Difference(points []series.Point) DiffResult {
	var res DiffResult
	if len(points) < 2 {
		return res
	}

	unit := points[0].Unit
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]

		if !cur.Timestamp.After(prev.Timestamp) {
			res.Anomalies = append(res.Anomalies, Anomaly{
				Timestamp: cur.Timestamp.UTC(),
				Kind:      AnomalyNonMonotonic,
				Detail: fmt.Sprintf("timestamp %s does not follow %s",
					cur.Timestamp.UTC().Format(timeLayout), prev.Timestamp.UTC().Format(timeLayout)),
			})
			continue
		}

		delta := cur.Value.Sub(prev.Value)
		if delta.IsNegative() {
			res.Anomalies = append(res.Anomalies, Anomaly{
				Timestamp: cur.Timestamp.UTC(),
				Kind:      AnomalyNegativeDelta,
				Detail:    fmt.Sprintf("register decreased from %s to %s", prev.Value, cur.Value),
			})
			continue
		}

		res.Points = append(res.Points, series.Derived(cur.Timestamp, delta, unit))
	}
	return res
}
