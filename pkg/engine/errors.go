package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("engine: configuration error")

	ErrAmbiguousFormula      = errors.New("engine: ambiguous overlapping formula windows")
	ErrCyclicFormula         = errors.New("engine: cyclic formula references")
	ErrSelfAllocation        = errors.New("engine: self allocation")
	ErrPercentOutOfRange     = errors.New("engine: allocation percent out of range 0-100")
	ErrUnknownReference      = errors.New("engine: unknown meter reference")
	ErrInvalidWindow         = errors.New("engine: formula end must be after start")
	ErrInvalidExpression     = errors.New("engine: invalid formula expression")
	ErrConflictingDerivation = errors.New("engine: meter has both formulas and allocation edges")

	// ErrMeterNotFound is returned by catalogs for unknown meters.
	ErrMeterNotFound = errors.New("engine: meter not found")

	ErrNilStore   = errors.New("engine: nil store")
	ErrNilCatalog = errors.New("engine: nil catalog")
)

// ConfigurationError is fatal: the run aborts before any write.
type ConfigurationError struct {
	Reason     error
	MeterID    uint
	Identifier string
	Window     string
	Detail     string
	Err        error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason.Error())
	if e.Identifier != "" {
		fmt.Fprintf(&b, ": meter %s (id=%d)", e.Identifier, e.MeterID)
	} else if e.MeterID != 0 {
		fmt.Fprintf(&b, ": meter id=%d", e.MeterID)
	}
	if e.Window != "" {
		fmt.Fprintf(&b, " window %s", e.Window)
	}
	if e.Detail != "" {
		b.WriteString(": " + e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration || target == e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

type AnomalyKind string

const (
	AnomalyNegativeDelta  AnomalyKind = "NegativeDelta"
	AnomalyNonMonotonic   AnomalyKind = "NonMonotonicTimestamp"
	AnomalyMissingOperand AnomalyKind = "MissingOperand"
	AnomalyDivisionByZero AnomalyKind = "DivisionByZero"
)

// Anomaly is a data point the engine skipped instead of writing.
type Anomaly struct {
	MeterID    uint        `json:"meter_id"`
	Identifier string      `json:"identifier"`
	Timestamp  time.Time   `json:"ts"`
	Kind       AnomalyKind `json:"kind"`
	Detail     string      `json:"detail"`
}
