package analyzer

import (
	"encoding/json"
	"strings"
	"testing"
)

func sampleResult() *AnalysisResult {
	return &AnalysisResult{
		NumCases:            2,
		NumEvents:           5,
		NumActivities:       3,
		NumVariants:         2,
		MedianDurationHours: 1.5,
		MeanDurationHours:   1.5,
		P90DurationHours:    2.7,
		MinDurationHours:    0,
		MaxDurationHours:    3,
		TopVariant:          []string{"A", "B"},
		TopVariantFrequency: 0.5,
		Bottlenecks: []Bottleneck{
			{FromActivity: "A", ToActivity: "B", AvgWaitHours: 1.5, Frequency: 2},
		},
		ReworkActivities:    []string{"A"},
		ReworkRate:          0.5,
		ActivityFrequencies: map[string]int{"B": 2, "A": 2, "C": 1},
	}
}

func TestCanonicalJSON_ValidAndStable(t *testing.T) {
	r := sampleResult()

	first := r.CanonicalJSON()
	if !json.Valid(first) {
		t.Fatalf("canonical output is not valid JSON:\n%s", first)
	}
	for i := 0; i < 3; i++ {
		if got := r.CanonicalJSON(); string(got) != string(first) {
			t.Fatal("canonical output differs between calls")
		}
	}
}

func TestCanonicalJSON_FixedPrecisionAndOrder(t *testing.T) {
	out := string(sampleResult().CanonicalJSON())

	// Floats carry exactly six decimals.
	if !strings.Contains(out, `"median_duration_hours":1.500000`) {
		t.Errorf("median not rendered at fixed precision:\n%s", out)
	}
	if !strings.Contains(out, `"rework_rate":0.500000`) {
		t.Errorf("rework_rate not rendered at fixed precision:\n%s", out)
	}

	// Field order is fixed: counts, durations, variant, bottlenecks,
	// rework, activity frequencies.
	fields := []string{
		`"n_cases"`, `"n_events"`, `"n_activities"`, `"n_variants"`,
		`"median_duration_hours"`, `"mean_duration_hours"`,
		`"p90_duration_hours"`, `"min_duration_hours"`, `"max_duration_hours"`,
		`"top_variant"`, `"top_variant_frequency"`,
		`"bottlenecks"`, `"rework_activities"`, `"rework_rate"`,
		`"activity_frequencies"`,
	}
	last := -1
	for _, f := range fields {
		idx := strings.Index(out, f)
		if idx < 0 {
			t.Fatalf("field %s missing from canonical output", f)
		}
		if idx < last {
			t.Errorf("field %s out of order", f)
		}
		last = idx
	}

	// Map keys come out sorted.
	if strings.Index(out, `"A":`) > strings.Index(out, `"B":`) {
		t.Error("activity_frequencies keys not sorted")
	}
}

func TestCanonicalJSON_RoundTrip(t *testing.T) {
	r := sampleResult()

	var decoded AnalysisResult
	if err := json.Unmarshal(r.CanonicalJSON(), &decoded); err != nil {
		t.Fatalf("canonical output does not round-trip: %v", err)
	}
	if decoded.NumCases != r.NumCases || decoded.ReworkRate != r.ReworkRate {
		t.Errorf("round-trip lost fields: %+v", decoded)
	}
	if decoded.ActivityFrequencies["C"] != 1 {
		t.Errorf("activity_frequencies lost: %+v", decoded.ActivityFrequencies)
	}
}
