// Package store implements the engine's storage ports on gorm.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ektamehra-ue/uelogic/pkg/common"
	"github.com/ektamehra-ue/uelogic/pkg/db"
	"github.com/ektamehra-ue/uelogic/pkg/engine"
	"github.com/ektamehra-ue/uelogic/pkg/models"
	"github.com/ektamehra-ue/uelogic/pkg/series"
)

var ErrNotFound = errors.New("store: not found")

// notFound maps gorm.ErrRecordNotFound to ErrNotFound. The result also
// matches the first of also, if given.
func notFound(err error, also ...error) error {
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if len(also) > 0 {
		return fmt.Errorf("%w: %w", ErrNotFound, also[0])
	}
	return ErrNotFound
}

// Readings is the reading table behind engine.Store.
type Readings struct {
	conn *gorm.DB
}

func NewReadings(d *db.DB) *Readings {
	return &Readings{conn: d.Conn}
}

func (r *Readings) Query(ctx context.Context, meterID uint, kind models.ReadingKind, window series.Window) ([]series.Point, error) {
	q := r.conn.WithContext(ctx).Where("meter_id = ? AND kind = ?", meterID, kind)
	if window.Since != nil {
		q = q.Where("ts >= ?", window.Since.UTC())
	}
	if window.Until != nil {
		q = q.Where("ts < ?", window.Until.UTC())
	}

	var rows []models.Reading
	if err := q.Order("ts").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query readings of meter %d: %w", meterID, err)
	}

	return common.Mapper(rows, func(row models.Reading) series.Point {
		return series.Point{
			Timestamp:      row.Ts.UTC(),
			Value:          row.Value,
			Unit:           row.Unit,
			Kind:           row.Kind,
			Classification: row.Classification,
			Source:         row.Source,
		}
	}), nil
}

func (r *Readings) Upsert(ctx context.Context, meterID uint, point series.Point) (engine.UpsertOutcome, error) {
	conn := r.conn.WithContext(ctx)
	ts := point.Timestamp.UTC()

	var existing int64
	err := conn.Model(&models.Reading{}).
		Where("meter_id = ? AND ts = ? AND kind = ?", meterID, ts, point.Kind).
		Count(&existing).Error
	if err != nil {
		return 0, fmt.Errorf("look up reading of meter %d: %w", meterID, err)
	}

	row := models.Reading{
		MeterID:        meterID,
		Ts:             ts,
		Kind:           point.Kind,
		Value:          point.Value,
		Unit:           point.Unit,
		Classification: point.Classification,
		Source:         point.Source,
	}
	err = conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "meter_id"}, {Name: "ts"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "unit", "classification", "source"}),
	}).Create(&row).Error
	if err != nil {
		return 0, fmt.Errorf("upsert reading of meter %d: %w", meterID, err)
	}

	if existing > 0 {
		return engine.UpsertUpdated, nil
	}
	return engine.UpsertCreated, nil
}

// Transaction runs fn in one database transaction. Inside fn only tx may be
// used; on sqlite the single connection is held by the transaction.
func (r *Readings) Transaction(ctx context.Context, fn func(tx engine.TxStore) error) error {
	return r.conn.WithContext(ctx).Transaction(func(conn *gorm.DB) error {
		return fn(&txStore{Readings: &Readings{conn: conn}})
	})
}

// RecordRun writes the run ledger outside of any engine transaction.
func (r *Readings) RecordRun(ctx context.Context, report *engine.RunReport) error {
	return recordRun(r.conn.WithContext(ctx), report)
}

type txStore struct {
	*Readings
}

func (tx *txStore) RecordRun(ctx context.Context, report *engine.RunReport) error {
	return recordRun(tx.conn.WithContext(ctx), report)
}

func recordRun(conn *gorm.DB, report *engine.RunReport) error {
	run, err := runFromReport(report)
	if err != nil {
		return err
	}
	if err := conn.Create(run).Error; err != nil {
		return fmt.Errorf("record run %s: %w", report.RunID, err)
	}

	common.GetLoggerWith(common.LoggerNameStore).Info("Run recorded",
		zap.String("run_id", run.ID),
		zap.Int("written", run.Written),
		zap.Int("updated", run.Updated),
		zap.Int("anomalies", len(run.Anomalies)),
	)
	return nil
}
