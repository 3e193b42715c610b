package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ektamehra-ue/uelogic/pkg/models"
)

func row(id uint, start int, end *int) models.Formula {
	f := models.Formula{ID: id, TargetMeterID: 9, Expression: "A", Start: at(start)}
	if end != nil {
		f.End = ptr(at(*end))
	}
	return f
}

func TestResolvePrefersLatestStart(t *testing.T) {
	rows := []models.Formula{row(1, 0, nil), row(2, 5, ptr(10))}

	cases := []struct {
		hour int
		want uint
	}{
		{0, 1},
		{4, 1},
		{5, 2},
		{9, 2},
		{10, 1},
	}
	for _, c := range cases {
		f, err := WindowResolver{}.Resolve(rows, at(c.hour))
		require.NoError(t, err)
		require.NotNil(t, f, "hour %d", c.hour)
		assert.Equal(t, c.want, f.ID, "hour %d", c.hour)
	}
}

func TestResolveNothingActive(t *testing.T) {
	rows := []models.Formula{row(1, 5, ptr(8))}

	for _, hour := range []int{4, 8, 12} {
		f, err := WindowResolver{}.Resolve(rows, at(hour))
		assert.NoError(t, err)
		assert.Nil(t, f)
	}
}

func TestResolveAmbiguous(t *testing.T) {
	rows := []models.Formula{row(1, 2, nil), row(2, 2, ptr(6))}

	_, err := WindowResolver{}.Resolve(rows, at(3))
	assert.ErrorIs(t, err, ErrAmbiguousFormula)
	assert.ErrorIs(t, err, ErrConfiguration)

	// only the open ended row covers hour 7
	f, err := WindowResolver{}.Resolve(rows, at(7))
	require.NoError(t, err)
	assert.Equal(t, uint(1), f.ID)
}

func TestResolveTieBelowLatestStart(t *testing.T) {
	a, b, c := row(1, 0, nil), row(2, 0, nil), row(3, 5, nil)

	for _, rows := range [][]models.Formula{{a, b, c}, {c, a, b}, {a, c, b}} {
		f, err := WindowResolver{}.Resolve(rows, at(7))
		require.NoError(t, err)
		require.NotNil(t, f)
		assert.Equal(t, uint(3), f.ID)
	}

	// before row 3 starts the tie is what is active
	for _, rows := range [][]models.Formula{{a, b, c}, {c, b, a}} {
		_, err := WindowResolver{}.Resolve(rows, at(2))
		require.ErrorIs(t, err, ErrAmbiguousFormula)
		assert.Contains(t, err.Error(), "rows 1 and 2")
	}
}

func TestValidateFormulaRows(t *testing.T) {
	assert.NoError(t, WindowResolver{}.Validate([]models.Formula{row(1, 0, ptr(5)), row(2, 3, nil)}))

	err := WindowResolver{}.Validate([]models.Formula{row(1, 5, ptr(5))})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	err = WindowResolver{}.Validate([]models.Formula{row(1, 6, ptr(2))})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	err = WindowResolver{}.Validate([]models.Formula{row(1, 0, nil), row(2, 4, nil), row(3, 0, ptr(2))})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, ErrAmbiguousFormula, cfgErr.Reason)
	assert.Equal(t, uint(9), cfgErr.MeterID)
	assert.Contains(t, cfgErr.Error(), "share a start")
}
