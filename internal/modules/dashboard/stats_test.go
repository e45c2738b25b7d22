package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeReturnStats(t *testing.T) {
	// Daily returns: +10%, -10%, +10%, -10%
	values := []float64{100, 110, 99, 108.9, 98.01}

	stats := computeReturnStats(values)

	assert.InDelta(t, 0.0, stats.MeanDailyReturn, 1e-9)
	assert.InDelta(t, 0.11547, stats.ReturnVolatility, 1e-4)
}

func TestComputeReturnStatsShortSeries(t *testing.T) {
	assert.Equal(t, ReturnStats{}, computeReturnStats(nil))
	assert.Equal(t, ReturnStats{}, computeReturnStats([]float64{100}))
	assert.Equal(t, ReturnStats{}, computeReturnStats([]float64{100, 110}))
}

func TestComputeReturnStatsSkipsZeroBase(t *testing.T) {
	// Zero values cannot produce a return, and too few remain
	stats := computeReturnStats([]float64{0, 0, 100})
	assert.Equal(t, ReturnStats{}, stats)
}
