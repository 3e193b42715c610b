package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/ektamehra-ue/uelogic/pkg/common"
	"github.com/ektamehra-ue/uelogic/pkg/db"
	"github.com/ektamehra-ue/uelogic/pkg/engine"
	"github.com/ektamehra-ue/uelogic/pkg/formula"
	"github.com/ektamehra-ue/uelogic/pkg/models"
	"github.com/ektamehra-ue/uelogic/pkg/series"
	"github.com/ektamehra-ue/uelogic/pkg/store"
)

var (
	ErrInvalidCatalog   = errors.New("loader: invalid catalog")
	ErrTargetNotVirtual = errors.New("loader: formula target is not a virtual meter")

	errDryRun = errors.New("loader: dry run")
)

type Options struct {
	// DryRun validates and counts everything, then rolls back.
	DryRun bool
}

type Counts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type Result struct {
	DryRun        bool   `json:"dry_run"`
	Organizations Counts `json:"organizations"`
	Buildings     Counts `json:"buildings"`
	Accounts      Counts `json:"accounts"`
	Meters        Counts `json:"meters"`
	Allocations   Counts `json:"allocations"`
	Formulas      Counts `json:"formulas"`
	Readings      Counts `json:"readings"`
}

func (c *Counts) add(created bool) {
	if created {
		c.Created++
	} else {
		c.Updated++
	}
}

// LoadFile loads the YAML catalog at path.
func LoadFile(ctx context.Context, d *db.DB, path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(ctx, d, f, opts)
}

// Load upserts a YAML catalog by natural keys inside one transaction. Any
// invalid record aborts the whole load.
func Load(ctx context.Context, d *db.DB, r io.Reader, opts Options) (*Result, error) {
	logger := common.GetLoggerWith(common.LoggerNameLoader)

	var cat Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	res := &Result{DryRun: opts.DryRun}
	err := d.Conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l := &load{ctx: ctx, tx: tx, res: res, readings: store.NewReadings(&db.DB{Conn: tx})}
		for i := range cat.Organizations {
			if err := l.organization(&cat.Organizations[i]); err != nil {
				return fmt.Errorf("organizations[%d] %s: %w", i, cat.Organizations[i].Name, err)
			}
		}
		if opts.DryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		logger.Error("Catalog load failed", zap.Error(err))
		return nil, err
	}

	logger.Info("Catalog loaded", zap.Bool("dry_run", opts.DryRun), zap.Reflect("result", res))
	return res, nil
}

type load struct {
	ctx      context.Context
	tx       *gorm.DB
	res      *Result
	readings *store.Readings

	meters map[string]models.Meter // by identifier, current organization
}

func invalid(issues any) error {
	return fmt.Errorf("%w: %v", ErrInvalidCatalog, issues)
}

func (l *load) organization(in *Organization) error {
	if issues := organizationSchema.Validate(in); issues != nil {
		return invalid(issues)
	}

	org := models.Organization{}
	err := l.tx.Where("name = ?", strings.TrimSpace(in.Name)).First(&org).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		org.Name = strings.TrimSpace(in.Name)
		if err := l.tx.Create(&org).Error; err != nil {
			return err
		}
		l.res.Organizations.add(true)
	case err != nil:
		return err
	default:
		l.res.Organizations.add(false)
	}

	l.meters = map[string]models.Meter{}
	var parents []struct{ child, parent string }
	for i := range in.Buildings {
		b := &in.Buildings[i]
		building, err := l.building(org, b)
		if err != nil {
			return fmt.Errorf("buildings[%d]: %w", i, err)
		}
		for j := range b.Meters {
			m := &b.Meters[j]
			if err := l.meter(org, building, m); err != nil {
				return fmt.Errorf("buildings[%d].meters[%d]: %w", i, j, err)
			}
			if p := strings.TrimSpace(m.Parent); p != "" {
				parents = append(parents, struct{ child, parent string }{strings.TrimSpace(m.Identifier), p})
			}
		}
	}

	for _, p := range parents {
		parent, err := l.resolve(org, p.parent)
		if err != nil {
			return fmt.Errorf("parent of %s: %w", p.child, err)
		}
		child := l.meters[p.child]
		if err := l.tx.Model(&child).Update("parent_id", parent.ID).Error; err != nil {
			return err
		}
	}

	for i := range in.Allocations {
		if err := l.allocation(org, &in.Allocations[i]); err != nil {
			return fmt.Errorf("allocations[%d]: %w", i, err)
		}
	}
	for i := range in.Formulas {
		if err := l.formula(org, &in.Formulas[i]); err != nil {
			return fmt.Errorf("formulas[%d]: %w", i, err)
		}
	}
	for i := range in.Readings {
		if err := l.reading(org, &in.Readings[i]); err != nil {
			return fmt.Errorf("readings[%d]: %w", i, err)
		}
	}
	return nil
}

func (l *load) building(org models.Organization, in *Building) (models.Building, error) {
	var b models.Building
	if issues := buildingSchema.Validate(in); issues != nil {
		return b, invalid(issues)
	}

	name := strings.TrimSpace(in.Name)
	err := l.tx.Where("org_id = ? AND name = ?", org.ID, name).First(&b).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		b = models.Building{OrgID: org.ID, Name: name}
		if err := l.tx.Create(&b).Error; err != nil {
			return b, err
		}
		l.res.Buildings.add(true)
	case err != nil:
		return b, err
	default:
		l.res.Buildings.add(false)
	}
	return b, nil
}

func (l *load) account(org models.Organization, name string) (*uint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	var a models.Account
	err := l.tx.Where("org_id = ? AND name = ?", org.ID, name).First(&a).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		a = models.Account{OrgID: org.ID, Name: name}
		if err := l.tx.Create(&a).Error; err != nil {
			return nil, err
		}
		l.res.Accounts.add(true)
	case err != nil:
		return nil, err
	}
	return &a.ID, nil
}

func (l *load) meter(org models.Organization, building models.Building, in *Meter) error {
	if issues := meterSchema.Validate(in); issues != nil {
		return invalid(issues)
	}

	identifier := strings.TrimSpace(in.Identifier)
	if _, dup := l.meters[identifier]; dup {
		return fmt.Errorf("%w: duplicate meter %q", ErrInvalidCatalog, identifier)
	}

	accountID, err := l.account(org, in.Account)
	if err != nil {
		return err
	}
	var externalID *string
	if ext := strings.TrimSpace(in.ExternalID); ext != "" {
		externalID = &ext
	}
	active := in.Active == nil || *in.Active

	var m models.Meter
	err = l.tx.Where("org_id = ? AND identifier = ?", org.ID, identifier).First(&m).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		m = models.Meter{
			OrgID:      org.ID,
			BuildingID: building.ID,
			AccountID:  accountID,
			Identifier: identifier,
			ExternalID: externalID,
			Type:       models.MeterType(in.Type),
			Unit:       strings.TrimSpace(in.Unit),
			IsActive:   true,
		}
		if err := l.tx.Create(&m).Error; err != nil {
			return err
		}
		if !active {
			if err := l.tx.Model(&m).Update("is_active", false).Error; err != nil {
				return err
			}
		}
		l.res.Meters.add(true)
	case err != nil:
		return err
	default:
		err := l.tx.Model(&m).Updates(map[string]any{
			"building_id": building.ID,
			"account_id":  accountID,
			"external_id": externalID,
			"type":        in.Type,
			"unit":        strings.TrimSpace(in.Unit),
			"is_active":   active,
		}).Error
		if err != nil {
			return err
		}
		l.res.Meters.add(false)
	}
	l.meters[identifier] = m
	return nil
}

// resolve finds a meter of the organization, loaded or already stored.
func (l *load) resolve(org models.Organization, identifier string) (models.Meter, error) {
	identifier = strings.TrimSpace(identifier)
	if m, ok := l.meters[identifier]; ok {
		return m, nil
	}
	var m models.Meter
	err := l.tx.Where("org_id = ? AND identifier = ?", org.ID, identifier).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return m, fmt.Errorf("%w: meter %q not found in %s", engine.ErrUnknownReference, identifier, org.Name)
	}
	if err != nil {
		return m, err
	}
	l.meters[identifier] = m
	return m, nil
}

func (l *load) allocation(org models.Organization, in *Allocation) error {
	if issues := allocationSchema.Validate(in); issues != nil {
		return invalid(issues)
	}
	if strings.TrimSpace(in.Parent) == strings.TrimSpace(in.Child) {
		return fmt.Errorf("%w: %s", engine.ErrSelfAllocation, in.Parent)
	}
	percent, err := parsePercent(in.Percent)
	if err != nil {
		return err
	}
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: %s", engine.ErrPercentOutOfRange, percent)
	}

	parent, err := l.resolve(org, in.Parent)
	if err != nil {
		return err
	}
	child, err := l.resolve(org, in.Child)
	if err != nil {
		return err
	}

	var e models.AllocationEdge
	err = l.tx.Where("parent_id = ? AND child_id = ?", parent.ID, child.ID).First(&e).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		e = models.AllocationEdge{ParentID: parent.ID, ChildID: child.ID, Percent: percent}
		if err := l.tx.Create(&e).Error; err != nil {
			return err
		}
		l.res.Allocations.add(true)
	case err != nil:
		return err
	default:
		if err := l.tx.Model(&e).Update("percent", percent).Error; err != nil {
			return err
		}
		l.res.Allocations.add(false)
	}
	return nil
}

func (l *load) formula(org models.Organization, in *Formula) error {
	if issues := formulaSchema.Validate(in); issues != nil {
		return invalid(issues)
	}
	start, err := parseUTC(in.Start)
	if err != nil {
		return err
	}
	var end *time.Time
	if strings.TrimSpace(in.End) != "" {
		e, err := parseUTC(in.End)
		if err != nil {
			return err
		}
		if !e.After(start) {
			return fmt.Errorf("%w: start %s, end %s", engine.ErrInvalidWindow, in.Start, in.End)
		}
		end = &e
	}

	if _, err := formula.Parse(in.Expression); err != nil {
		return fmt.Errorf("%w: %w", engine.ErrInvalidExpression, err)
	}

	target, err := l.resolve(org, in.Target)
	if err != nil {
		return err
	}
	if target.Type != models.MeterTypeVirtual {
		return fmt.Errorf("%w: %s is %s", ErrTargetNotVirtual, target.Identifier, target.Type)
	}

	q := l.tx.Where("target_meter_id = ? AND start_at = ?", target.ID, start)
	if end == nil {
		q = q.Where("end_at IS NULL")
	} else {
		q = q.Where("end_at = ?", *end)
	}

	var f models.Formula
	err = q.First(&f).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		f = models.Formula{TargetMeterID: target.ID, Expression: in.Expression, Start: start, End: end}
		if err := l.tx.Create(&f).Error; err != nil {
			return err
		}
		l.res.Formulas.add(true)
	case err != nil:
		return err
	default:
		if err := l.tx.Model(&f).Update("expression", in.Expression).Error; err != nil {
			return err
		}
		l.res.Formulas.add(false)
	}
	return nil
}

func (l *load) reading(org models.Organization, in *Reading) error {
	if issues := readingSchema.Validate(in); issues != nil {
		return invalid(issues)
	}
	ts, err := parseUTC(in.Ts)
	if err != nil {
		return err
	}
	value, err := decimal.NewFromString(strings.TrimSpace(in.Value))
	if err != nil {
		return fmt.Errorf("%w: invalid value %q", ErrInvalidCatalog, in.Value)
	}
	m, err := l.resolve(org, in.Meter)
	if err != nil {
		return err
	}
	if m.Type == models.MeterTypeVirtual && models.ReadingKind(in.Kind) == models.ReadingKindAccumulated {
		return fmt.Errorf("%w: meter %s is virtual, it takes no Accumulated readings", ErrInvalidCatalog, m.Identifier)
	}

	p := series.Point{
		Timestamp:      ts,
		Value:          value,
		Unit:           firstNonEmpty(in.Unit, m.Unit),
		Kind:           models.ReadingKind(in.Kind),
		Classification: models.Classification(firstNonEmpty(in.Classification, string(models.ClassificationActual))),
		Source:         models.Source(firstNonEmpty(in.Source, string(models.SourceManual))),
	}
	outcome, err := l.readings.Upsert(l.ctx, m.ID, p)
	if err != nil {
		return err
	}
	l.res.Readings.add(outcome == engine.UpsertCreated)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
