// Package loader upserts a YAML catalog of organizations, buildings,
// meters, allocation edges, formulas and fixture readings.
package loader

import (
	"fmt"
	"strings"
	"time"

	z "github.com/Oudwins/zog"
	"github.com/shopspring/decimal"

	"github.com/ektamehra-ue/uelogic/pkg/models"
)

type Catalog struct {
	Organizations []Organization `yaml:"organizations"`
}

type Organization struct {
	Name        string       `yaml:"name"`
	Buildings   []Building   `yaml:"buildings"`
	Allocations []Allocation `yaml:"allocations"`
	Formulas    []Formula    `yaml:"formulas"`
	Readings    []Reading    `yaml:"readings"`
}

type Building struct {
	Name   string  `yaml:"name"`
	Meters []Meter `yaml:"meters"`
}

type Meter struct {
	Identifier string `yaml:"identifier"`
	Type       string `yaml:"type"`
	Unit       string `yaml:"unit"`
	Account    string `yaml:"account"`
	ExternalID string `yaml:"external_id"`
	Parent     string `yaml:"parent"`
	Active     *bool  `yaml:"active"`
}

type Allocation struct {
	Parent  string `yaml:"parent"`
	Child   string `yaml:"child"`
	Percent string `yaml:"percent"`
}

type Formula struct {
	Target     string `yaml:"target"`
	Expression string `yaml:"expression"`
	Start      string `yaml:"start"`
	End        string `yaml:"end"`
}

type Reading struct {
	Meter          string `yaml:"meter"`
	Kind           string `yaml:"kind"`
	Ts             string `yaml:"ts"`
	Value          string `yaml:"value"`
	Unit           string `yaml:"unit"`
	Classification string `yaml:"classification"`
	Source         string `yaml:"source"`
}

var (
	organizationSchema = z.Struct(z.Shape{
		"Name": z.String().Min(1).Required(),
	})
	buildingSchema = z.Struct(z.Shape{
		"Name": z.String().Min(1).Required(),
	})
	meterSchema = z.Struct(z.Shape{
		"Identifier": z.String().Min(1).Required(),
		"Type":       z.String().OneOf([]string{"fiscal", "sub", "virtual"}).Required(),
		"Unit":       z.String().Min(1).Required(),
	})
	allocationSchema = z.Struct(z.Shape{
		"Parent":  z.String().Min(1).Required(),
		"Child":   z.String().Min(1).Required(),
		"Percent": z.String().Min(1).Required(),
	})
	formulaSchema = z.Struct(z.Shape{
		"Target":     z.String().Min(1).Required(),
		"Expression": z.String().Min(1).Required(),
		"Start":      z.String().Min(1).Required(),
	})
	// empty classification and source fall back to Actual and Manual
	classifications = []string{"",
		string(models.ClassificationActual), string(models.ClassificationEstimated),
		string(models.ClassificationManual), string(models.ClassificationSystem)}
	sources = []string{"",
		string(models.SourceAPI), string(models.SourceCSV),
		string(models.SourceManual), string(models.SourceSystem)}

	readingSchema = z.Struct(z.Shape{
		"Meter":          z.String().Min(1).Required(),
		"Kind":           z.String().OneOf([]string{"Accumulated", "Consumption"}).Required(),
		"Ts":             z.String().Min(1).Required(),
		"Value":          z.String().Min(1).Required(),
		"Classification": z.String().OneOf(classifications),
		"Source":         z.String().OneOf(sources),
	})
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseUTC accepts RFC3339 and naive timestamps; naive ones are taken as UTC.
func parseUTC(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse time %q", ErrInvalidCatalog, raw)
}

// parsePercent accepts "60", "60.5" and "60%".
func parsePercent(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "%")
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid percent %q", ErrInvalidCatalog, raw)
	}
	return d, nil
}
