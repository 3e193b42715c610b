package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ektamehra-ue/uelogic/pkg/common"
	"github.com/ektamehra-ue/uelogic/pkg/models"
)

const (
	idSub    uint = 1
	idFiscal uint = 2
	idV1     uint = 10
	idV2     uint = 11
	idC1     uint = 20
	idC2     uint = 21
)

// chain builds: S (sub, accumulated) -> V1 = S*2 -> V2 = V1 + F, with C1 and
// C2 allocated from V1 and C1 also taking 10% of F.
func chain(t *testing.T, workers int) (*memStore, *memCatalog, *Engine) {
	t.Helper()
	common.SetTestLoggerNop()

	store := newMemStore()
	for i, v := range []string{"100", "110", "125", "130"} {
		store.add(idSub, models.ReadingKindAccumulated, at(i), v)
	}
	for i := 1; i <= 3; i++ {
		store.add(idFiscal, models.ReadingKindConsumption, at(i), "40")
	}

	c := newMemCatalog()
	c.meter(idSub, "S", models.MeterTypeSub)
	c.meter(idFiscal, "F", models.MeterTypeFiscal)
	c.meter(idV1, "V1", models.MeterTypeVirtual)
	c.meter(idV2, "V2", models.MeterTypeVirtual)
	c.meter(idC1, "C1", models.MeterTypeVirtual)
	c.meter(idC2, "C2", models.MeterTypeVirtual)
	c.formula(idV2, "V1 + F", at(0), nil)
	c.formula(idV1, "S * 2", at(0), nil)
	c.edge(idV1, idC1, "50")
	c.edge(idV1, idC2, "25")
	c.edge(idFiscal, idC1, "10")

	eng, err := New(store, c, Options{Workers: workers})
	require.NoError(t, err)
	return store, c, eng
}

func assertSeries(t *testing.T, store *memStore, meterID uint, want ...string) {
	t.Helper()
	assert.Equal(t, len(want), store.count(meterID, models.ReadingKindConsumption), "meter %d", meterID)
	for i, w := range want {
		got, ok := store.value(meterID, at(i+1))
		if assert.True(t, ok, "meter %d hour %d", meterID, i+1) {
			assert.Equal(t, w, got, "meter %d hour %d", meterID, i+1)
		}
	}
}

func summaryOf(t *testing.T, r *RunReport, meterID uint) MeterSummary {
	t.Helper()
	for _, m := range r.Meters {
		if m.MeterID == meterID {
			return m
		}
	}
	t.Fatalf("no summary for meter %d", meterID)
	return MeterSummary{}
}

func TestRunDerivesChain(t *testing.T) {
	store, _, eng := chain(t, 4)

	report, err := eng.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.True(t, report.Committed)
	assert.NotEmpty(t, report.RunID)

	assertSeries(t, store, idSub, "10", "15", "5")
	assertSeries(t, store, idV1, "20", "30", "10")
	assertSeries(t, store, idV2, "60", "70", "50")
	assertSeries(t, store, idC1, "14", "19", "9")
	assertSeries(t, store, idC2, "5", "7.5", "2.5")
	assert.Equal(t, 0, store.count(idFiscal, models.ReadingKindAccumulated))

	v1, v2 := summaryOf(t, report, idV1), summaryOf(t, report, idV2)
	assert.Less(t, v1.Level, v2.Level)
	assert.Equal(t, StageFormula, v1.Stage)
	assert.Equal(t, StageAllocation, summaryOf(t, report, idC1).Stage)
	assert.Equal(t, StageDifference, summaryOf(t, report, idSub).Stage)
	assert.Equal(t, 3, v2.Written)

	totals := report.Totals()
	assert.Equal(t, 15, totals.Written)
	assert.Equal(t, 0, totals.Updated)
	assert.Equal(t, 15, totals.Staged)

	require.Len(t, store.runs, 1)
	assert.Equal(t, report.RunID, store.runs[0].RunID)
	assert.True(t, store.runs[0].Committed)
}

func TestRunIsIdempotent(t *testing.T) {
	store, _, eng := chain(t, 2)

	_, err := eng.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	second, err := eng.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	totals := second.Totals()
	assert.Equal(t, 0, totals.Written)
	assert.Equal(t, 15, totals.Updated)
	assertSeries(t, store, idV2, "60", "70", "50")
	assertSeries(t, store, idC1, "14", "19", "9")
	assert.Len(t, store.runs, 2)
}

func TestRunWorkerCountDoesNotChangeResult(t *testing.T) {
	for _, workers := range []int{1, 8} {
		store, _, eng := chain(t, workers)
		_, err := eng.Run(context.Background(), RunOptions{})
		require.NoError(t, err)
		assertSeries(t, store, idV2, "60", "70", "50")
		assertSeries(t, store, idC2, "5", "7.5", "2.5")
	}
}

func TestRunCycleWritesNothing(t *testing.T) {
	store, c, eng := chain(t, 4)
	c.formulas[idV1] = nil
	c.formula(idV1, "V2 - F", at(0), nil)

	report, err := eng.Run(context.Background(), RunOptions{})
	require.ErrorIs(t, err, ErrCyclicFormula)
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "V1 -> V2 -> V1")
	assert.False(t, report.Committed)

	assert.Equal(t, 0, store.count(idSub, models.ReadingKindConsumption))
	assert.Empty(t, store.runs)
}

func TestRunDryRun(t *testing.T) {
	store, _, eng := chain(t, 4)

	report, err := eng.Run(context.Background(), RunOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.False(t, report.Committed)
	assert.Equal(t, 15, report.Totals().Staged)
	assert.Equal(t, 0, report.Totals().Written)

	assert.Equal(t, 0, store.count(idV2, models.ReadingKindConsumption))
	assert.Empty(t, store.runs)
}

func TestRunCommitFailureRollsBack(t *testing.T) {
	store, _, eng := chain(t, 4)
	store.failOnMeter = idV2

	report, err := eng.Run(context.Background(), RunOptions{})
	require.ErrorIs(t, err, errFakeWrite)
	assert.NotErrorIs(t, err, ErrConfiguration)

	assert.False(t, report.Committed)
	assert.Equal(t, 3, summaryOf(t, report, idV2).Failed)
	assert.Equal(t, 0, report.Totals().Written)

	assert.Equal(t, 0, store.count(idSub, models.ReadingKindConsumption))
	assert.Equal(t, 0, store.count(idV1, models.ReadingKindConsumption))
	assert.Empty(t, store.runs)
}

func TestRunCancelled(t *testing.T) {
	store, _, eng := chain(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Run(ctx, RunOptions{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.count(idSub, models.ReadingKindConsumption))
	assert.Empty(t, store.runs)
}

func TestRunWindow(t *testing.T) {
	store, _, eng := chain(t, 4)

	report, err := eng.Run(context.Background(), RunOptions{Since: ptr(at(1)), Until: ptr(at(3))})
	require.NoError(t, err)
	assert.Equal(t, "[2024-01-01T01:00:00Z, 2024-01-01T03:00:00Z)", report.Window.String())

	// the first accumulated point in the window has no predecessor
	assert.Equal(t, 1, store.count(idSub, models.ReadingKindConsumption))
	got, ok := store.value(idSub, at(2))
	require.True(t, ok)
	assert.Equal(t, "15", got)

	_, err = eng.Run(context.Background(), RunOptions{Since: ptr(at(3)), Until: ptr(at(3))})
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestRunAnomaliesAreReported(t *testing.T) {
	store, _, eng := chain(t, 4)
	store.add(idSub, models.ReadingKindAccumulated, at(2), "90")

	report, err := eng.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	sub := summaryOf(t, report, idSub)
	assert.Equal(t, 2, sub.Staged)
	assert.Equal(t, 1, sub.Skipped)

	require.NotEmpty(t, report.Anomalies)
	first := report.Anomalies[0]
	assert.Equal(t, idSub, first.MeterID)
	assert.Equal(t, "S", first.Identifier)
	assert.Equal(t, AnomalyNegativeDelta, first.Kind)
	assert.True(t, first.Timestamp.Equal(at(2)))

	// V1 has no input at hour 2, so V2 = V1 + F misses an operand there
	_, ok := store.value(idV1, at(2))
	assert.False(t, ok)
	require.Len(t, report.Anomalies, 2)
	assert.Equal(t, idV2, report.Anomalies[1].MeterID)
	assert.Equal(t, AnomalyMissingOperand, report.Anomalies[1].Kind)
	assert.Equal(t, 1, summaryOf(t, report, idV2).Skipped)

	require.Len(t, store.runs, 1)
	assert.Equal(t, report.Anomalies, store.runs[0].Anomalies)
	assert.Equal(t, 2, report.Totals().Skipped)
}

func TestRunWarnings(t *testing.T) {
	_, c, eng := chain(t, 4)
	c.edge(idV1, idC1+100, "80")
	c.meter(idC1+100, "C3", models.MeterTypeVirtual)
	c.edge(idFiscal, idSub, "5")

	report, err := eng.Run(context.Background(), RunOptions{DryRun: true})
	require.NoError(t, err)
	require.Len(t, report.Warnings, 2)
	assert.Contains(t, report.Warnings[0], "V1 allocates 155%")
	assert.Contains(t, report.Warnings[1], "meter S is sub")
}

func TestRunConfigurationErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *memCatalog)
		want   error
	}{
		{
			name: "formula and allocation on one meter",
			mutate: func(c *memCatalog) {
				c.formula(idC1, "S", at(0), nil)
			},
			want: ErrConflictingDerivation,
		},
		{
			name: "unknown reference",
			mutate: func(c *memCatalog) {
				c.formula(idV2, "NOPE + 1", at(5), nil)
			},
			want: ErrUnknownReference,
		},
		{
			name: "invalid expression",
			mutate: func(c *memCatalog) {
				c.formula(idV2, "V1 +", at(5), nil)
			},
			want: ErrInvalidExpression,
		},
		{
			name: "rows sharing a start",
			mutate: func(c *memCatalog) {
				c.formula(idV2, "V1", at(0), ptr(at(9)))
			},
			want: ErrAmbiguousFormula,
		},
		{
			name: "window ends before start",
			mutate: func(c *memCatalog) {
				c.formula(idV2, "V1", at(5), ptr(at(4)))
			},
			want: ErrInvalidWindow,
		},
		{
			name: "self allocation",
			mutate: func(c *memCatalog) {
				c.edge(idC2, idC2, "10")
			},
			want: ErrSelfAllocation,
		},
		{
			name: "allocation parent missing from the catalog",
			mutate: func(c *memCatalog) {
				c.edge(999, idC2, "10")
			},
			want: ErrUnknownReference,
		},
		{
			name: "percent above 100",
			mutate: func(c *memCatalog) {
				c.edge(idFiscal, idC2, "150")
			},
			want: ErrPercentOutOfRange,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, c, eng := chain(t, 4)
			tc.mutate(c)

			_, err := eng.Run(context.Background(), RunOptions{})
			require.ErrorIs(t, err, tc.want)
			require.ErrorIs(t, err, ErrConfiguration)

			assert.Equal(t, 0, store.count(idSub, models.ReadingKindConsumption))
			assert.Empty(t, store.runs)
		})
	}
}

func TestConfigurationErrorNamesMeter(t *testing.T) {
	_, c, eng := chain(t, 4)
	c.formula(idV2, "V1", at(5), ptr(at(4)))

	_, err := eng.Run(context.Background(), RunOptions{})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, idV2, cfgErr.MeterID)
	assert.Equal(t, "V2", cfgErr.Identifier)
	assert.Contains(t, err.Error(), "meter V2")
	assert.Contains(t, err.Error(), "2024-01-01T05:00:00Z")
}
