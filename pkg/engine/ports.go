package engine

import (
	"context"
	"time"

	"github.com/ektamehra-ue/uelogic/pkg/models"
	"github.com/ektamehra-ue/uelogic/pkg/series"
)

// Scope narrows a run to one organization and/or one site (building).
// Empty fields do not restrict.
type Scope struct {
	OrgName  string `json:"org,omitempty"`
	SiteName string `json:"site,omitempty"`
}

type UpsertOutcome int

const (
	UpsertCreated UpsertOutcome = iota
	UpsertUpdated
)

//go:generate mockgen -source=ports.go -destination=mocks/ports.go -package=mocks

type ReadingStore interface {
	// Query returns the meter's points of the given kind inside window,
	// ordered by timestamp.
	Query(ctx context.Context, meterID uint, kind models.ReadingKind, window series.Window) ([]series.Point, error)
	// Upsert writes point keyed on (meter, timestamp, kind). Writing the same
	// key twice leaves a single row.
	Upsert(ctx context.Context, meterID uint, point series.Point) (UpsertOutcome, error)
}

type TxStore interface {
	ReadingStore
	RecordRun(ctx context.Context, report *RunReport) error
}

type Store interface {
	ReadingStore
	// Transaction runs fn atomically; an error from fn rolls back every
	// write made through tx.
	Transaction(ctx context.Context, fn func(tx TxStore) error) error
}

type MeterCatalog interface {
	// Meters lists active meters in scope ordered by id.
	Meters(ctx context.Context, scope Scope) ([]models.Meter, error)
	Meter(ctx context.Context, id uint) (*models.Meter, error)
	// Resolve looks up a meter by identifier inside an organization and
	// fails with ErrMeterNotFound when there is none.
	Resolve(ctx context.Context, orgID uint, identifier string) (*models.Meter, error)
	Formulas(ctx context.Context, meterID uint) ([]models.Formula, error)
	ActiveFormula(ctx context.Context, meterID uint, at time.Time) (*models.Formula, error)
	AllocationEdges(ctx context.Context, parentID uint) ([]models.AllocationEdge, error)
	AllocationEdgesInto(ctx context.Context, childID uint) ([]models.AllocationEdge, error)
}
