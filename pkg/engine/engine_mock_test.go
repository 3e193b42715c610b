package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ektamehra-ue/uelogic/pkg/common"
	"github.com/ektamehra-ue/uelogic/pkg/engine"
	"github.com/ektamehra-ue/uelogic/pkg/engine/mocks"
	"github.com/ektamehra-ue/uelogic/pkg/models"
	"github.com/ektamehra-ue/uelogic/pkg/series"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func getMockEngine(t *testing.T) (*gomock.Controller, *engine.Engine, *mocks.MockStore, *mocks.MockMeterCatalog) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	catalog := mocks.NewMockMeterCatalog(ctrl)

	eng, err := engine.New(store, catalog, engine.Options{Workers: 2})
	require.NoError(t, err)
	return ctrl, eng, store, catalog
}

func noEdges(catalog *mocks.MockMeterCatalog) {
	catalog.EXPECT().AllocationEdges(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	catalog.EXPECT().AllocationEdgesInto(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
}

func TestNewRejectsMissingCollaborators(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, err := engine.New(nil, mocks.NewMockMeterCatalog(ctrl), engine.Options{})
	assert.ErrorIs(t, err, engine.ErrNilStore)

	_, err = engine.New(mocks.NewMockStore(ctrl), nil, engine.Options{})
	assert.ErrorIs(t, err, engine.ErrNilCatalog)

	eng, err := engine.New(mocks.NewMockStore(ctrl), mocks.NewMockMeterCatalog(ctrl), engine.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, eng.Options.Workers)
	assert.Equal(t, models.ReadingKindConsumption, eng.Options.OperandKind)
}

func TestWithServicesReplacesCollaborators(t *testing.T) {
	ctrl, eng, _, _ := getMockEngine(t)
	defer ctrl.Finish()

	other := mocks.NewMockStore(ctrl)
	eng.WithServices(engine.ServiceOpts{Store: other})
	assert.Same(t, other, eng.Store)
	assert.NotNil(t, eng.Catalog)
}

func TestRunCycleNeverTouchesStore(t *testing.T) {
	common.SetTestLoggerNop()
	ctrl, eng, store, catalog := getMockEngine(t)
	defer ctrl.Finish()

	v1 := models.Meter{ID: 1, OrgID: 7, Identifier: "V1", Type: models.MeterTypeVirtual}
	v2 := models.Meter{ID: 2, OrgID: 7, Identifier: "V2", Type: models.MeterTypeVirtual}
	catalog.EXPECT().Meters(gomock.Any(), engine.Scope{OrgName: "acme"}).Return([]models.Meter{v1, v2}, nil)
	noEdges(catalog)
	catalog.EXPECT().Formulas(gomock.Any(), uint(1)).Return([]models.Formula{{ID: 1, TargetMeterID: 1, Expression: "V2 * 2", Start: t0}}, nil)
	catalog.EXPECT().Formulas(gomock.Any(), uint(2)).Return([]models.Formula{{ID: 2, TargetMeterID: 2, Expression: "V1 / 2", Start: t0}}, nil)
	catalog.EXPECT().Resolve(gomock.Any(), uint(7), "V2").Return(&v2, nil)
	catalog.EXPECT().Resolve(gomock.Any(), uint(7), "V1").Return(&v1, nil)

	store.EXPECT().Query(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	store.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	store.EXPECT().Transaction(gomock.Any(), gomock.Any()).Times(0)

	_, err := eng.Run(context.Background(), engine.RunOptions{Scope: engine.Scope{OrgName: "acme"}})
	assert.ErrorIs(t, err, engine.ErrCyclicFormula)
}

func TestRunStorageErrorPropagates(t *testing.T) {
	common.SetTestLoggerNop()
	ctrl, eng, store, catalog := getMockEngine(t)
	defer ctrl.Finish()

	sub := models.Meter{ID: 3, OrgID: 7, Identifier: "SUB", Type: models.MeterTypeSub}
	catalog.EXPECT().Meters(gomock.Any(), gomock.Any()).Return([]models.Meter{sub}, nil)
	noEdges(catalog)

	boom := errors.New("disk on fire")
	store.EXPECT().Query(gomock.Any(), uint(3), models.ReadingKindAccumulated, gomock.Any()).Return(nil, boom)
	store.EXPECT().Transaction(gomock.Any(), gomock.Any()).Times(0)

	_, err := eng.Run(context.Background(), engine.RunOptions{})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, engine.ErrConfiguration)
}

func TestRunCommitsThroughTransaction(t *testing.T) {
	common.SetTestLoggerNop()
	ctrl, eng, store, catalog := getMockEngine(t)
	defer ctrl.Finish()

	sub := models.Meter{ID: 3, OrgID: 7, Identifier: "SUB", Type: models.MeterTypeSub, Unit: "kWh"}
	catalog.EXPECT().Meters(gomock.Any(), gomock.Any()).Return([]models.Meter{sub}, nil)
	noEdges(catalog)

	accumulated := []series.Point{
		{Timestamp: t0, Value: decimal.NewFromInt(5), Unit: "kWh", Kind: models.ReadingKindAccumulated},
		{Timestamp: t0.Add(time.Hour), Value: decimal.NewFromInt(8), Unit: "kWh", Kind: models.ReadingKindAccumulated},
	}
	store.EXPECT().Query(gomock.Any(), uint(3), models.ReadingKindAccumulated, gomock.Any()).Return(accumulated, nil)

	tx := mocks.NewMockTxStore(ctrl)
	store.EXPECT().Transaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(engine.TxStore) error) error {
			return fn(tx)
		},
	)
	tx.EXPECT().Upsert(gomock.Any(), uint(3), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uint, p series.Point) (engine.UpsertOutcome, error) {
			assert.Equal(t, "3", p.Value.String())
			assert.True(t, p.Timestamp.Equal(t0.Add(time.Hour)))
			return engine.UpsertUpdated, nil
		},
	)
	tx.EXPECT().RecordRun(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r *engine.RunReport) error {
			assert.True(t, r.Committed)
			assert.Equal(t, 1, r.Totals().Updated)
			return nil
		},
	)

	report, err := eng.Run(context.Background(), engine.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, engine.Totals{Staged: 1, Updated: 1}, report.Totals())
}

func TestRunAllocatesFromParentOutsideScope(t *testing.T) {
	common.SetTestLoggerNop()
	ctrl, eng, store, catalog := getMockEngine(t)
	defer ctrl.Finish()

	share := models.Meter{ID: 5, OrgID: 7, Identifier: "SHARE", Type: models.MeterTypeVirtual, Unit: "kWh"}
	parent := models.Meter{ID: 40, OrgID: 7, Identifier: "MAIN", Type: models.MeterTypeFiscal, Unit: "kWh"}
	catalog.EXPECT().Meters(gomock.Any(), engine.Scope{OrgName: "acme", SiteName: "annex"}).Return([]models.Meter{share}, nil)
	catalog.EXPECT().AllocationEdges(gomock.Any(), uint(5)).Return(nil, nil)
	catalog.EXPECT().Formulas(gomock.Any(), uint(5)).Return(nil, nil)
	catalog.EXPECT().AllocationEdgesInto(gomock.Any(), uint(5)).Return([]models.AllocationEdge{
		{ID: 1, ParentID: 40, ChildID: 5, Percent: decimal.NewFromInt(25)},
	}, nil)
	catalog.EXPECT().Meter(gomock.Any(), uint(40)).Return(&parent, nil)

	store.EXPECT().Query(gomock.Any(), uint(40), models.ReadingKindConsumption, gomock.Any()).Return([]series.Point{
		{Timestamp: t0, Value: decimal.NewFromInt(80), Unit: "kWh", Kind: models.ReadingKindConsumption},
	}, nil)
	store.EXPECT().Transaction(gomock.Any(), gomock.Any()).Times(0)

	report, err := eng.Run(context.Background(), engine.RunOptions{
		Scope:  engine.Scope{OrgName: "acme", SiteName: "annex"},
		DryRun: true,
	})
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "SHARE allocates from MAIN outside the run scope")
	assert.Equal(t, 1, report.Totals().Staged)
}
