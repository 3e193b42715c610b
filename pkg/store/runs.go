package store

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ektamehra-ue/uelogic/pkg/db"
	"github.com/ektamehra-ue/uelogic/pkg/engine"
	"github.com/ektamehra-ue/uelogic/pkg/models"
	"github.com/ektamehra-ue/uelogic/pkg/series"
)

func runFromReport(report *engine.RunReport) (*models.Run, error) {
	meters, err := json.Marshal(report.Meters)
	if err != nil {
		return nil, fmt.Errorf("encode meter summaries: %w", err)
	}

	totals := report.Totals()
	run := &models.Run{
		ID:         report.RunID,
		OrgName:    report.Scope.OrgName,
		SiteName:   report.Scope.SiteName,
		Since:      report.Window.Since,
		Until:      report.Window.Until,
		DryRun:     report.DryRun,
		StartedAt:  report.StartedAt.UTC(),
		FinishedAt: report.FinishedAt.UTC(),
		Written:    totals.Written,
		Updated:    totals.Updated,
		Skipped:    totals.Skipped,
		Failed:     totals.Failed,
		Meters:     datatypes.JSON(meters),
	}
	for _, a := range report.Anomalies {
		run.Anomalies = append(run.Anomalies, models.Anomaly{
			RunID:      report.RunID,
			MeterID:    a.MeterID,
			Identifier: a.Identifier,
			Ts:         a.Timestamp.UTC(),
			Kind:       string(a.Kind),
			Detail:     a.Detail,
		})
	}
	return run, nil
}

// Report rebuilds the run report of a stored run.
func Report(run *models.Run) (*engine.RunReport, error) {
	report := &engine.RunReport{
		RunID:      run.ID,
		Scope:      engine.Scope{OrgName: run.OrgName, SiteName: run.SiteName},
		Window:     series.NewWindow(run.Since, run.Until),
		DryRun:     run.DryRun,
		Committed:  true,
		StartedAt:  run.StartedAt.UTC(),
		FinishedAt: run.FinishedAt.UTC(),
	}
	if len(run.Meters) > 0 {
		if err := json.Unmarshal(run.Meters, &report.Meters); err != nil {
			return nil, fmt.Errorf("decode meter summaries of run %s: %w", run.ID, err)
		}
	}
	for _, a := range run.Anomalies {
		report.Anomalies = append(report.Anomalies, engine.Anomaly{
			MeterID:    a.MeterID,
			Identifier: a.Identifier,
			Timestamp:  a.Ts.UTC(),
			Kind:       engine.AnomalyKind(a.Kind),
			Detail:     a.Detail,
		})
	}
	return report, nil
}

// Runs reads the run ledger.
type Runs struct {
	conn *gorm.DB
}

func NewRuns(d *db.DB) *Runs {
	return &Runs{conn: d.Conn}
}

func (r *Runs) Get(ctx context.Context, id string) (*models.Run, error) {
	var run models.Run
	err := r.conn.WithContext(ctx).
		Preload("Anomalies", func(q *gorm.DB) *gorm.DB {
			return q.Order("meter_id").Order("ts").Order("id")
		}).
		First(&run, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &run, nil
}

// List returns the latest runs first, anomalies not loaded. An empty org
// lists every organization.
func (r *Runs) List(ctx context.Context, org string, limit int) ([]models.Run, error) {
	q := r.conn.WithContext(ctx).Order("started_at desc")
	if org != "" {
		q = q.Where("org_name = ?", org)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var runs []models.Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
