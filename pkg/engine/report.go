package engine

import (
	"time"

	"github.com/ektamehra-ue/uelogic/pkg/models"
	"github.com/ektamehra-ue/uelogic/pkg/series"
)

const (
	StageDifference = "difference"
	StageFormula    = "formula"
	StageAllocation = "allocation"
)

// MeterSummary counts what a run did for one meter. Written and Updated are
// only filled once the run committed; Staged is what was computed.
type MeterSummary struct {
	MeterID    uint             `json:"meter_id"`
	Identifier string           `json:"identifier"`
	Type       models.MeterType `json:"type"`
	Stage      string           `json:"stage"`
	Level      int              `json:"level"`
	Staged     int              `json:"staged"`
	Written    int              `json:"written"`
	Updated    int              `json:"updated"`
	Skipped    int              `json:"skipped"`
	Failed     int              `json:"failed"`
}

type Totals struct {
	Staged  int `json:"staged"`
	Written int `json:"written"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type RunReport struct {
	RunID      string         `json:"run_id"`
	Scope      Scope          `json:"scope"`
	Window     series.Window  `json:"-"`
	DryRun     bool           `json:"dry_run"`
	Committed  bool           `json:"committed"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Meters     []MeterSummary `json:"meters"`
	Anomalies  []Anomaly      `json:"anomalies"`
	Warnings   []string       `json:"warnings,omitempty"`
}

func (r *RunReport) Totals() Totals {
	var t Totals
	for _, m := range r.Meters {
		t.Staged += m.Staged
		t.Written += m.Written
		t.Updated += m.Updated
		t.Skipped += m.Skipped
		t.Failed += m.Failed
	}
	return t
}
