package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ROIStats describes the spread of per-item ROI across ranked items.
type ROIStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"` // sample standard deviation, 0 below two items
}

func roiStats(ranked []Performer) ROIStats {
	if len(ranked) == 0 {
		return ROIStats{}
	}

	rois := make([]float64, len(ranked))
	for i, p := range ranked {
		rois[i] = p.roi.InexactFloat64()
	}
	sort.Float64s(rois)

	stats := ROIStats{
		Mean:   round2(stat.Mean(rois, nil)),
		Median: round2(median(rois)),
	}
	if len(rois) > 1 {
		stats.StdDev = round2(stat.StdDev(rois, nil))
	}
	return stats
}

// median expects sorted input. stat.Quantile with the empirical CDF returns
// the lower middle element, so even-length sets are averaged by hand.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
