package report

import (
	"strings"
	"testing"

	"github.com/albertodiazdurana/devflow-analyzer/pkg/analyzer"
)

func sampleResult() *analyzer.AnalysisResult {
	return &analyzer.AnalysisResult{
		NumCases:            4,
		NumEvents:           12,
		NumActivities:       3,
		NumVariants:         2,
		MedianDurationHours: 2.5,
		MeanDurationHours:   3.0,
		P90DurationHours:    5.5,
		MinDurationHours:    1.0,
		MaxDurationHours:    6.0,
		TopVariant:          []string{"Open", "Review", "Close"},
		TopVariantFrequency: 0.75,
		Bottlenecks: []analyzer.Bottleneck{
			{FromActivity: "Open", ToActivity: "Review", AvgWaitHours: 4.25, Frequency: 4},
		},
		ReworkActivities: []string{"Review"},
		ReworkRate:       0.25,
		ActivityFrequencies: map[string]int{
			"Close":  4,
			"Open":   4,
			"Review": 4,
		},
	}
}

func TestMarkdown(t *testing.T) {
	out := Markdown(sampleResult())

	for _, want := range []string{
		"# Process Analysis Report",
		"- Cases: 4",
		"- Median: 2.50",
		"- Path: Open -> Review -> Close",
		"- Share of cases: 75.0%",
		"- Open -> Review: avg wait 4.25h (4 occurrences)",
		"- Activities repeated within a case: Review",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	// Activity frequencies are emitted in sorted order.
	if strings.Index(out, "- Close: 4") > strings.Index(out, "- Open: 4") {
		t.Error("activity frequencies not sorted")
	}
}

func TestMarkdown_Deterministic(t *testing.T) {
	r := sampleResult()
	first := Markdown(r)
	for i := 0; i < 5; i++ {
		if got := Markdown(r); got != first {
			t.Fatal("markdown output not stable across runs")
		}
	}
}

func TestTerminal(t *testing.T) {
	out := Terminal(sampleResult())

	for _, want := range []string{"PROCESS ANALYSIS", "SUMMARY", "DOMINANT VARIANT", "BOTTLENECKS", "REWORK"} {
		if !strings.Contains(out, want) {
			t.Errorf("terminal output missing %q", want)
		}
	}
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0.5, "30m"},
		{2.5, "2.5h"},
		{72, "3.0d"},
	}
	for _, tt := range tests {
		if got := formatHours(tt.hours); got != tt.want {
			t.Errorf("formatHours(%v) = %q, want %q", tt.hours, got, tt.want)
		}
	}
}
