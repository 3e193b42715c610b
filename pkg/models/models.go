package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type MeterType string

const (
	MeterTypeFiscal  MeterType = "fiscal"
	MeterTypeSub     MeterType = "sub"
	MeterTypeVirtual MeterType = "virtual"
)

type ReadingKind string

const (
	// cumulative register, e.g. a running kWh totalizer
	ReadingKindAccumulated ReadingKind = "Accumulated"
	// usage during the interval ending at the reading timestamp
	ReadingKindConsumption ReadingKind = "Consumption"
)

type Classification string

const (
	ClassificationActual    Classification = "Actual"
	ClassificationEstimated Classification = "Estimated"
	ClassificationManual    Classification = "Manual"
	ClassificationSystem    Classification = "System"
)

type Source string

const (
	SourceAPI    Source = "API"
	SourceCSV    Source = "CSV"
	SourceManual Source = "Manual"
	SourceSystem Source = "System"
)

type Organization struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;size:200;not null"`

	Buildings []Building `gorm:"foreignKey:OrgID"`
	Meters    []Meter    `gorm:"foreignKey:OrgID"`
}

type Building struct {
	ID    uint   `gorm:"primaryKey"`
	OrgID uint   `gorm:"uniqueIndex:idx_building_org_name;not null"`
	Name  string `gorm:"uniqueIndex:idx_building_org_name;size:200;not null"`

	Meters []Meter `gorm:"foreignKey:BuildingID"`
}

// Account is the tenant cost center billed for a meter.
type Account struct {
	ID    uint   `gorm:"primaryKey"`
	OrgID uint   `gorm:"uniqueIndex:idx_account_org_name;not null"`
	Name  string `gorm:"uniqueIndex:idx_account_org_name;size:200;not null"`
}

type Meter struct {
	ID         uint      `gorm:"primaryKey"`
	OrgID      uint      `gorm:"uniqueIndex:idx_meter_org_identifier;not null"`
	BuildingID uint      `gorm:"index;not null"`
	AccountID  *uint     `gorm:"index"`
	Identifier string    `gorm:"uniqueIndex:idx_meter_org_identifier;size:200;not null"`
	ExternalID *string   `gorm:"size:200"`
	Type       MeterType `gorm:"type:varchar(10);index;not null;check:type IN ('fiscal','sub','virtual')"`
	ParentID   *uint     `gorm:"index"`
	Unit       string    `gorm:"size:32;not null"`
	IsActive   bool      `gorm:"not null;default:true"`

	Children       []Meter          `gorm:"foreignKey:ParentID"`
	Readings       []Reading        `gorm:"foreignKey:MeterID"`
	Formulas       []Formula        `gorm:"foreignKey:TargetMeterID"`
	AllocationsOut []AllocationEdge `gorm:"foreignKey:ParentID"`
	AllocationsIn  []AllocationEdge `gorm:"foreignKey:ChildID"`
}

// AllocationEdge distributes Percent of the parent meter's consumption to
// the child meter. Edges are not time-versioned. Decimals are stored as
// text: sqlite gives decimal(p,s) columns REAL storage.
type AllocationEdge struct {
	ID       uint            `gorm:"primaryKey"`
	ParentID uint            `gorm:"uniqueIndex:idx_allocation_parent_child;not null"`
	ChildID  uint            `gorm:"uniqueIndex:idx_allocation_parent_child;index;not null"`
	Percent  decimal.Decimal `gorm:"type:text;not null"`
}

// Formula defines a virtual meter over [Start, End). A nil End is open ended.
type Formula struct {
	ID            uint       `gorm:"primaryKey"`
	TargetMeterID uint       `gorm:"uniqueIndex:idx_formula_version;not null"`
	Expression    string     `gorm:"type:text;not null"`
	Start         time.Time  `gorm:"column:start_at;uniqueIndex:idx_formula_version;not null"`
	End           *time.Time `gorm:"column:end_at;uniqueIndex:idx_formula_version"`
}

type Reading struct {
	ID             uint            `gorm:"primaryKey"`
	MeterID        uint            `gorm:"uniqueIndex:idx_reading_key;not null"`
	Ts             time.Time       `gorm:"uniqueIndex:idx_reading_key;index;not null"`
	Kind           ReadingKind     `gorm:"uniqueIndex:idx_reading_key;type:varchar(12);not null;check:kind IN ('Accumulated','Consumption')"`
	Value          decimal.Decimal `gorm:"type:text;not null"` // exact decimal string
	Unit           string          `gorm:"size:32;not null"`
	Classification Classification  `gorm:"type:varchar(10);not null"`
	Source         Source          `gorm:"type:varchar(10);not null"`
}

// Run is the ledger entry of one committed engine invocation.
type Run struct {
	ID         string `gorm:"primaryKey;type:char(36)"`
	OrgName    string `gorm:"size:200"`
	SiteName   string `gorm:"size:200"`
	Since      *time.Time
	Until      *time.Time
	DryRun     bool
	StartedAt  time.Time `gorm:"index"`
	FinishedAt time.Time
	Written    int
	Updated    int
	Skipped    int
	Failed     int
	// per-meter summaries
	Meters datatypes.JSON `gorm:"type:json"`

	Anomalies []Anomaly `gorm:"foreignKey:RunID"`
}

// Anomaly is a skipped data point kept for review.
type Anomaly struct {
	ID         uint      `gorm:"primaryKey"`
	RunID      string    `gorm:"index;type:char(36);not null"`
	MeterID    uint      `gorm:"index;not null"`
	Identifier string    `gorm:"size:200"`
	Ts         time.Time `gorm:"not null"`
	Kind       string    `gorm:"size:32;not null"`
	Detail     string    `gorm:"type:text"`
}
