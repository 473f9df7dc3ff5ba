package performance

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalize(t *testing.T) {
	pct, err := Normalize(45, 50)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, pct, 1e-9)

	pct, err = Normalize(0, 80)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pct)

	pct, err = Normalize(80, 80)
	require.NoError(t, err)
	assert.Equal(t, 100.0, pct)

	pct, err = Normalize(-5, 20)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pct)
}

func TestNormalizeKeepsFraction(t *testing.T) {
	pct, err := Normalize(1, 3)
	require.NoError(t, err)
	assert.InDelta(t, 33.3333333, pct, 1e-6)
}

func TestNormalizeRejectsInvalidMaximum(t *testing.T) {
	for _, max := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Normalize(10, max)
		assert.ErrorIs(t, err, ErrInvalidMaximum, "max=%v", max)
		assert.Equal(t, 0.0, NormalizeOrZero(10, max))
	}
}

func TestNormalizeBounded(t *testing.T) {
	for _, max := range []float64{1, 7, 24, 50, 100, 150} {
		for v := 0.0; v <= max; v += max / 40 {
			pct, err := Normalize(v, max)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, pct, 0.0)
			assert.LessOrEqual(t, pct, 100.0)
		}
	}
}

func TestNormalizerPolicies(t *testing.T) {
	inputs := map[Category]MetricInput{
		CategoryAttendance: {Value: 45, Max: 50},
		CategoryInternal:   {Value: 30, Max: 0},
	}

	strict := NewNormalizer(true, nil)
	_, err := strict.NormalizeAll(inputs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidMaximum))
	var catErr *CategoryError
	require.ErrorAs(t, err, &catErr)
	assert.Equal(t, CategoryInternal, catErr.Category)

	lenient := NewNormalizer(false, zap.NewNop())
	out, err := lenient.NormalizeAll(inputs)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, out[CategoryAttendance], 1e-9)
	assert.Equal(t, 0.0, out[CategoryInternal])
}
