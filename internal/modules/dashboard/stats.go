package dashboard

import (
	"gonum.org/v1/gonum/stat"
)

// computeReturnStats derives day-over-day return statistics from an ordered
// value series. Fewer than three points cannot produce a meaningful standard
// deviation, so short series yield zero stats.
func computeReturnStats(values []float64) ReturnStats {
	if len(values) < 3 {
		return ReturnStats{}
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		returns = append(returns, (values[i]-values[i-1])/values[i-1])
	}

	if len(returns) < 2 {
		return ReturnStats{}
	}

	return ReturnStats{
		MeanDailyReturn:  stat.Mean(returns, nil),
		ReturnVolatility: stat.StdDev(returns, nil),
	}
}
