package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ektamehra-ue/uelogic/pkg/db"
	"github.com/ektamehra-ue/uelogic/pkg/engine"
	"github.com/ektamehra-ue/uelogic/pkg/models"
)

// Catalog is the engine.MeterCatalog over the meter, formula and
// allocation tables.
type Catalog struct {
	conn     *gorm.DB
	resolver engine.WindowResolver
}

func NewCatalog(d *db.DB) *Catalog {
	return &Catalog{conn: d.Conn}
}

func (c *Catalog) Meters(ctx context.Context, scope engine.Scope) ([]models.Meter, error) {
	conn := c.conn.WithContext(ctx)
	q := conn.Where("is_active = ?", true)
	if scope.OrgName != "" {
		q = q.Where("org_id IN (?)", conn.Model(&models.Organization{}).Select("id").Where("name = ?", scope.OrgName))
	}
	if scope.SiteName != "" {
		q = q.Where("building_id IN (?)", conn.Model(&models.Building{}).Select("id").Where("name = ?", scope.SiteName))
	}

	var meters []models.Meter
	if err := q.Order("id").Find(&meters).Error; err != nil {
		return nil, fmt.Errorf("list meters: %w", err)
	}
	return meters, nil
}

func (c *Catalog) Meter(ctx context.Context, id uint) (*models.Meter, error) {
	var m models.Meter
	if err := c.conn.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFound(err, engine.ErrMeterNotFound)
	}
	return &m, nil
}

func (c *Catalog) Resolve(ctx context.Context, orgID uint, identifier string) (*models.Meter, error) {
	var m models.Meter
	err := c.conn.WithContext(ctx).
		Where("org_id = ? AND identifier = ?", orgID, identifier).
		First(&m).Error
	if err != nil {
		return nil, notFound(err, engine.ErrMeterNotFound)
	}
	return &m, nil
}

func (c *Catalog) Formulas(ctx context.Context, meterID uint) ([]models.Formula, error) {
	var rows []models.Formula
	err := c.conn.WithContext(ctx).
		Where("target_meter_id = ?", meterID).
		Order("start_at").Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("formulas of meter %d: %w", meterID, err)
	}
	for i := range rows {
		rows[i].Start = rows[i].Start.UTC()
		if rows[i].End != nil {
			end := rows[i].End.UTC()
			rows[i].End = &end
		}
	}
	return rows, nil
}

// ActiveFormula returns the formula in effect at the instant, nil when none.
func (c *Catalog) ActiveFormula(ctx context.Context, meterID uint, at time.Time) (*models.Formula, error) {
	rows, err := c.Formulas(ctx, meterID)
	if err != nil {
		return nil, err
	}
	return c.resolver.Resolve(rows, at.UTC())
}

func (c *Catalog) AllocationEdges(ctx context.Context, parentID uint) ([]models.AllocationEdge, error) {
	var edges []models.AllocationEdge
	err := c.conn.WithContext(ctx).Where("parent_id = ?", parentID).Order("child_id").Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("allocation edges of meter %d: %w", parentID, err)
	}
	return edges, nil
}

func (c *Catalog) AllocationEdgesInto(ctx context.Context, childID uint) ([]models.AllocationEdge, error) {
	var edges []models.AllocationEdge
	err := c.conn.WithContext(ctx).Where("child_id = ?", childID).Order("parent_id").Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("allocation edges into meter %d: %w", childID, err)
	}
	return edges, nil
}
