package boundary

import (
	"math"
	"sort"
)

// obs is one normalized candidate position tied to the page it came from.
type obs struct {
	value float64
	page  int
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return 0.5 * (s[n/2-1] + s[n/2])
}

// mad is the median absolute deviation, the robust spread estimate the
// clustering bandwidth is derived from.
func mad(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	med := median(vals)
	dev := make([]float64, len(vals))
	for i, v := range vals {
		dev[i] = math.Abs(v - med)
	}
	return median(dev)
}

// percentile returns the p-quantile (p in [0,1]) with linear interpolation.
func percentile(vals []float64, p float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	k := float64(len(s)-1) * p
	f := math.Floor(k)
	c := math.Ceil(k)
	if f == c {
		return s[int(k)]
	}
	return s[int(f)]*(c-k) + s[int(c)]*(k-f)
}

// clusterResult describes the dominant band found in a 1-D distribution.
type clusterResult struct {
	Members []obs // empty when no window reaches minSamples
	Center  float64
	Eps     float64
	MAD     float64
}

// dominantBand finds the densest band in a 1-D distribution with a sliding
// window: sort the observations, expand a window while its width stays within
// eps, keep the most populous window. eps is epsMultiplier times the MAD,
// with a tiny floor so a perfectly tight distribution still forms a window.
// Deterministic for identical input.
func dominantBand(observations []obs, epsMultiplier float64, minSamples int) clusterResult {
	m := mad(values(observations))
	eps := epsMultiplier * m
	if m == 0 {
		eps = 0.002
	}
	res := clusterResult{Eps: eps, MAD: m, Center: math.NaN()}
	if len(observations) == 0 {
		return res
	}

	sorted := make([]obs, len(observations))
	copy(sorted, observations)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].value != sorted[j].value {
			return sorted[i].value < sorted[j].value
		}
		return sorted[i].page < sorted[j].page
	})

	bestCount, bestLeft, bestRight := 0, 0, 0
	left := 0
	for right := range sorted {
		for sorted[right].value-sorted[left].value > eps {
			left++
		}
		if count := right - left + 1; count > bestCount {
			bestCount, bestLeft, bestRight = count, left, right
		}
	}
	if minSamples < 1 {
		minSamples = 1
	}
	if bestCount < minSamples {
		return res
	}

	res.Members = make([]obs, bestCount)
	copy(res.Members, sorted[bestLeft:bestRight+1])
	res.Center = median(values(res.Members))
	return res
}

func values(observations []obs) []float64 {
	vals := make([]float64, len(observations))
	for i, o := range observations {
		vals[i] = o.value
	}
	return vals
}

func maxValue(observations []obs) float64 {
	max := math.Inf(-1)
	for _, o := range observations {
		if o.value > max {
			max = o.value
		}
	}
	return max
}

func minValue(observations []obs) float64 {
	min := math.Inf(1)
	for _, o := range observations {
		if o.value < min {
			min = o.value
		}
	}
	return min
}
