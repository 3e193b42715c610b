package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHelpersBeforeInitAreNoop(t *testing.T) {
	if runsTotal != nil {
		t.Skip("metrics already registered in this process")
	}
	ObserveRun(ResultSuccess, time.Second)
	AddPoints("difference", OutcomeCreated, 3)
	IncAnomaly("NegativeDelta")
	IncRunTrigger("accepted")
}

func TestCounters(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(pointsTotal.WithLabelValues("formula", OutcomeCreated))
	AddPoints("formula", OutcomeCreated, 4)
	AddPoints("formula", OutcomeCreated, 0)
	assert.Equal(t, before+4, testutil.ToFloat64(pointsTotal.WithLabelValues("formula", OutcomeCreated)))

	anomaliesBefore := testutil.ToFloat64(anomaliesTotal.WithLabelValues("unknown"))
	IncAnomaly("")
	assert.Equal(t, anomaliesBefore+1, testutil.ToFloat64(anomaliesTotal.WithLabelValues("unknown")))

	runsBefore := testutil.ToFloat64(runsTotal.WithLabelValues(ResultSuccess))
	ObserveRun("", 10*time.Millisecond)
	assert.Equal(t, runsBefore+1, testutil.ToFloat64(runsTotal.WithLabelValues(ResultSuccess)))
}
