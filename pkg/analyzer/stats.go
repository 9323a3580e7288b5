package analyzer

import (
	"sort"

	"github.com/albertodiazdurana/devflow-analyzer/internal/model"
)

// durationStats holds the case-duration distribution in hours.
type durationStats struct {
	Median float64
	Mean   float64
	P90    float64
	Min    float64
	Max    float64
}

// caseDurationsHours returns the duration of every case in hours.
// Single-event cases contribute a duration of zero.
func caseDurationsHours(cases []model.Case) []float64 {
	durations := make([]float64, len(cases))
	for i, c := range cases {
		first := c.Events[0].Timestamp
		last := c.Events[len(c.Events)-1].Timestamp
		durations[i] = hoursBetween(first, last)
	}
	return durations
}

// computeDurationStats reduces a non-empty duration set into its
// distribution. The caller guards against an empty case set.
func computeDurationStats(durations []float64) durationStats {
	sorted := make([]float64, len(durations))
	copy(sorted, durations)
	sort.Float64s(sorted)

	var sum float64
	for _, d := range sorted {
		sum += d
	}

	return durationStats{
		Median: median(sorted),
		Mean:   sum / float64(len(sorted)),
		P90:    percentile(sorted, 90),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

// median returns the midpoint of a sorted list, averaging the two
// central values for an even count.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentile computes the p-th percentile of a sorted list using linear
// interpolation between closest ranks. Alternate percentile conventions
// (nearest-rank, exclusive) give different results on small samples, so
// this method is part of the output contract.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(n-1)
	lower := int(rank)
	if lower >= n-1 {
		return sorted[n-1]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}
