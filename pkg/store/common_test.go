package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ektamehra-ue/uelogic/pkg/db"
	"github.com/ektamehra-ue/uelogic/pkg/models"
	"github.com/ektamehra-ue/uelogic/pkg/series"
)

// fixture is one organization with a single building in the shared
// in-memory database. Names are random so tests never see each other's rows.
type fixture struct {
	db       *db.DB
	org      models.Organization
	building models.Building
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	d := db.GetInstance(db.UseMemorySqliteDialector())

	org := models.Organization{Name: "org-" + uuid.NewString()}
	require.NoError(t, d.Conn.Create(&org).Error)
	building := models.Building{OrgID: org.ID, Name: "site-" + uuid.NewString()}
	require.NoError(t, d.Conn.Create(&building).Error)

	return &fixture{db: d, org: org, building: building}
}

func (f *fixture) meter(t *testing.T, identifier string, typ models.MeterType) models.Meter {
	t.Helper()
	m := models.Meter{
		OrgID:      f.org.ID,
		BuildingID: f.building.ID,
		Identifier: identifier,
		Type:       typ,
		Unit:       "kWh",
		IsActive:   true,
	}
	require.NoError(t, f.db.Conn.Create(&m).Error)
	return m
}

func (f *fixture) reading(t *testing.T, meterID uint, kind models.ReadingKind, ts time.Time, value string) {
	t.Helper()
	require.NoError(t, f.db.Conn.Create(&models.Reading{
		MeterID:        meterID,
		Ts:             ts.UTC(),
		Kind:           kind,
		Value:          decimal.RequireFromString(value),
		Unit:           "kWh",
		Classification: models.ClassificationActual,
		Source:         models.SourceCSV,
	}).Error)
}

func (f *fixture) formula(t *testing.T, target uint, expr string, start time.Time, end *time.Time) {
	t.Helper()
	require.NoError(t, f.db.Conn.Create(&models.Formula{
		TargetMeterID: target,
		Expression:    expr,
		Start:         start,
		End:           end,
	}).Error)
}

func (f *fixture) edge(t *testing.T, parent, child uint, percent string) {
	t.Helper()
	require.NoError(t, f.db.Conn.Create(&models.AllocationEdge{
		ParentID: parent,
		ChildID:  child,
		Percent:  decimal.RequireFromString(percent),
	}).Error)
}

func at(hour int) time.Time {
	return time.Date(2024, 2, 1, hour, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func values(points []series.Point) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Value.String()
	}
	return out
}
