package analyzer

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		want   float64
	}{
		{"single", []float64{5}, 5},
		{"odd", []float64{1, 3, 9}, 3},
		{"even", []float64{1, 3, 5, 9}, 4},
		{"two", []float64{2, 4}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := median(tt.sorted); got != tt.want {
				t.Errorf("median(%v) = %v, want %v", tt.sorted, got, tt.want)
			}
		})
	}
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"single", []float64{7}, 90, 7},
		// rank = 0.9 * 1 = 0.9 -> 1 + 0.9*(2-1)
		{"pair", []float64{1, 2}, 90, 1.9},
		// rank = 0.9 * 4 = 3.6 -> 4 + 0.6*(5-4)
		{"five", []float64{1, 2, 3, 4, 5}, 90, 4.6},
		// rank = 0.5 * 4 = 2 -> exact element
		{"exact rank", []float64{1, 2, 3, 4, 5}, 50, 3},
		{"p100", []float64{1, 2, 3}, 100, 3},
		{"p0", []float64{1, 2, 3}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDurationStats(t *testing.T) {
	stats := computeDurationStats([]float64{4, 0, 10, 2})

	if stats.Min != 0 {
		t.Errorf("Min = %v, want 0", stats.Min)
	}
	if stats.Max != 10 {
		t.Errorf("Max = %v, want 10", stats.Max)
	}
	if stats.Mean != 4 {
		t.Errorf("Mean = %v, want 4", stats.Mean)
	}
	if stats.Median != 3 {
		t.Errorf("Median = %v, want 3", stats.Median)
	}
	// sorted: 0 2 4 10; rank = 0.9*3 = 2.7 -> 4 + 0.7*6 = 8.2
	if math.Abs(stats.P90-8.2) > 1e-9 {
		t.Errorf("P90 = %v, want 8.2", stats.P90)
	}
}

func TestComputeDurationStats_InputNotMutated(t *testing.T) {
	in := []float64{9, 1, 5}
	computeDurationStats(in)
	if in[0] != 9 || in[1] != 1 || in[2] != 5 {
		t.Errorf("input slice reordered: %v", in)
	}
}
