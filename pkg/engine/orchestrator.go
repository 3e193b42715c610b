package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ektamehra-ue/uelogic/pkg/common"
	"github.com/ektamehra-ue/uelogic/pkg/metrics"
	"github.com/ektamehra-ue/uelogic/pkg/models"
	"github.com/ektamehra-ue/uelogic/pkg/series"
)

type RunOptions struct {
	Scope  Scope
	Since  *time.Time
	Until  *time.Time
	DryRun bool
}

// meterRun is the computed, not yet committed, outcome of one meter.
type meterRun struct {
	plan      *meterPlan
	summary   MeterSummary
	anomalies []Anomaly
}

// Run plans, computes and commits one invocation. Configuration errors are
// raised before anything is written. Every derived point and the run ledger
// are committed in a single transaction, so a failed or cancelled run leaves
// the store untouched. The returned report is non-nil whenever planning got
// far enough to start the run.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (report *RunReport, err error) {
	logger := common.GetLoggerWith(
		common.LoggerNameEngine,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryOrchestrator),
	)

	window := series.NewWindow(opts.Since, opts.Until)
	report = &RunReport{
		RunID:     uuid.NewString(),
		Scope:     opts.Scope,
		Window:    window,
		DryRun:    opts.DryRun,
		StartedAt: time.Now().UTC(),
	}
	logger = logger.With(zap.String("run_id", report.RunID))

	defer func() {
		result := metrics.ResultSuccess
		switch {
		case err == nil:
		case errors.Is(err, ErrConfiguration):
			result = metrics.ResultConfigError
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			result = metrics.ResultCancelled
		default:
			result = metrics.ResultError
		}
		metrics.ObserveRun(result, time.Since(report.StartedAt))
	}()

	if opts.Since != nil && opts.Until != nil && window.Empty() {
		return report, &ConfigurationError{
			Reason: ErrInvalidWindow,
			Window: window.String(),
			Detail: "run window is empty",
		}
	}

	logger.Info("Run started",
		zap.String("org", opts.Scope.OrgName),
		zap.String("site", opts.Scope.SiteName),
		zap.String("window", window.String()),
		zap.Bool("dry_run", opts.DryRun),
	)

	p, err := e.plan(ctx, opts.Scope)
	if err != nil {
		logger.Error("Run planning failed", zap.Error(err))
		return report, err
	}
	report.Warnings = p.warnings

	stage := newStaging(e.Store)
	var runs []*meterRun
	for i, meters := range p.stages {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		stageRuns, err := e.computeStage(ctx, stage, meters, window)
		runs = append(runs, stageRuns...)
		if err != nil {
			logger.Error("Run stage failed", zap.Int("stage", i), zap.Error(err))
			report.Meters = summaries(runs)
			return report, err
		}
	}

	report.Meters = summaries(runs)
	for _, r := range runs {
		report.Anomalies = append(report.Anomalies, r.anomalies...)
	}
	sort.SliceStable(report.Anomalies, func(i, j int) bool {
		a, b := report.Anomalies[i], report.Anomalies[j]
		if a.MeterID != b.MeterID {
			return a.MeterID < b.MeterID
		}
		return a.Timestamp.Before(b.Timestamp)
	})
	for _, a := range report.Anomalies {
		metrics.IncAnomaly(string(a.Kind))
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	if opts.DryRun {
		report.FinishedAt = time.Now().UTC()
		logger.Info("Dry run finished, nothing committed", zap.Reflect("totals", report.Totals()))
		return report, nil
	}

	if err := e.commit(ctx, stage, report); err != nil {
		logger.Error("Run commit failed, rolled back", zap.Error(err))
		return report, err
	}

	logger.Info("Run committed", zap.Reflect("totals", report.Totals()))
	return report, nil
}

func summaries(runs []*meterRun) []MeterSummary {
	out := make([]MeterSummary, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.summary)
	}
	return out
}

// computeStage runs the meters of one stage in parallel. Meters of a stage
// never depend on each other, so they only share the staging buffer.
func (e *Engine) computeStage(ctx context.Context, stage *staging, meters []*meterPlan, window series.Window) ([]*meterRun, error) {
	runs := make([]*meterRun, len(meters))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Options.Workers)

	for i, mp := range meters {
		runs[i] = &meterRun{
			plan: mp,
			summary: MeterSummary{
				MeterID:    mp.meter.ID,
				Identifier: mp.meter.Identifier,
				Type:       mp.meter.Type,
				Stage:      mp.stage,
				Level:      mp.level,
			},
		}
		r := runs[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return e.computeMeter(gctx, stage, r, window)
		})
	}

	err := g.Wait()
	return runs, err
}

func (e *Engine) computeMeter(ctx context.Context, stage *staging, r *meterRun, window series.Window) error {
	m := r.plan.meter

	var points []series.Point
	var anomalies []Anomaly
	switch r.plan.stage {
	case StageDifference:
		accumulated, err := stage.Query(ctx, m.ID, models.ReadingKindAccumulated, window)
		if err != nil {
			return fmt.Errorf("query %s: %w", m.Identifier, err)
		}
		res := e.Differencer.Difference(accumulated)
		points, anomalies = res.Points, res.Anomalies

	case StageAllocation:
		var err error
		points, err = e.allocate(ctx, stage, m, r.plan.edges, window)
		if err != nil {
			return err
		}

	case StageFormula:
		res, err := e.Evaluator.EvaluateMeter(ctx, stage, m, r.plan.formulas, window)
		if err != nil {
			return describe(err, m)
		}
		points, anomalies = res.Points, res.Anomalies
	}

	for _, p := range points {
		if _, err := stage.Upsert(ctx, m.ID, p); err != nil {
			return fmt.Errorf("stage %s: %w", m.Identifier, err)
		}
	}

	for i := range anomalies {
		anomalies[i].MeterID = m.ID
		anomalies[i].Identifier = m.Identifier
		if anomalies[i].Kind == AnomalyDivisionByZero {
			r.summary.Failed++
		} else {
			r.summary.Skipped++
		}
	}
	r.anomalies = anomalies
	r.summary.Staged = len(points)

	metrics.AddPoints(r.plan.stage, metrics.OutcomeSkipped, r.summary.Skipped)
	metrics.AddPoints(r.plan.stage, metrics.OutcomeFailed, r.summary.Failed)

	if len(anomalies) > 0 {
		logger := common.GetLoggerWith(
			common.LoggerNameEngine,
			zap.String(common.LoggerFieldCategory, categoryOf(r.plan.stage)),
		)
		for _, a := range anomalies {
			logger.Warn("Point skipped",
				zap.String("meter", m.Identifier),
				zap.Time("ts", a.Timestamp),
				zap.String("kind", string(a.Kind)),
				zap.String("detail", a.Detail),
			)
		}
	}
	return nil
}

func categoryOf(stage string) string {
	switch stage {
	case StageDifference:
		return common.LoggerCategoryDifferencer
	case StageAllocation:
		return common.LoggerCategoryAllocation
	default:
		return common.LoggerCategoryFormula
	}
}

// allocate sums the child's shares of every parent per timestamp.
func (e *Engine) allocate(ctx context.Context, stage *staging, child models.Meter, edges []models.AllocationEdge, window series.Window) ([]series.Point, error) {
	sums := map[int64]series.Point{}
	for _, edge := range edges {
		parent, err := stage.Query(ctx, edge.ParentID, models.ReadingKindConsumption, window)
		if err != nil {
			return nil, fmt.Errorf("query allocation parent %d of %s: %w", edge.ParentID, child.Identifier, err)
		}
		shares, err := e.Allocator.Allocate(parent, []models.AllocationEdge{edge})
		if err != nil {
			return nil, describe(err, child)
		}
		for _, p := range shares[child.ID] {
			k := series.Key(p.Timestamp)
			if acc, ok := sums[k]; ok {
				p.Value = p.Value.Add(acc.Value)
			}
			p.Unit = child.Unit
			sums[k] = p
		}
	}

	out := make([]series.Point, 0, len(sums))
	for _, p := range sums {
		out = append(out, p)
	}
	series.Sort(out)
	return out, nil
}

// commit writes every staged point and the run ledger in one transaction.
// Report counts are only updated once the transaction succeeded.
func (e *Engine) commit(ctx context.Context, stage *staging, report *RunReport) error {
	type counts struct{ written, updated int }
	done := make([]counts, len(report.Meters))

	err := e.Store.Transaction(ctx, func(tx TxStore) error {
		for i, m := range report.Meters {
			if err := ctx.Err(); err != nil {
				return err
			}
			points := stage.Staged(m.MeterID)
			for j, p := range points {
				outcome, err := tx.Upsert(ctx, m.MeterID, p)
				if err != nil {
					report.Meters[i].Failed += len(points) - j
					return fmt.Errorf("write %s at %s: %w", m.Identifier, p.Timestamp.Format(timeLayout), err)
				}
				if outcome == UpsertUpdated {
					done[i].updated++
				} else {
					done[i].written++
				}
			}
		}

		final := *report
		final.Meters = append([]MeterSummary(nil), report.Meters...)
		for i := range final.Meters {
			final.Meters[i].Written = done[i].written
			final.Meters[i].Updated = done[i].updated
		}
		final.Committed = true
		final.FinishedAt = time.Now().UTC()
		if err := tx.RecordRun(ctx, &final); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		*report = final
		return nil
	})
	if err != nil {
		for i := range report.Meters {
			report.Meters[i].Written, report.Meters[i].Updated = 0, 0
		}
		report.Committed = false
		report.FinishedAt = time.Now().UTC()
		return err
	}

	for _, m := range report.Meters {
		metrics.AddPoints(m.Stage, metrics.OutcomeCreated, m.Written)
		metrics.AddPoints(m.Stage, metrics.OutcomeUpdated, m.Updated)
	}
	return nil
}
