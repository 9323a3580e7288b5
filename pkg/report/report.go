// Package report renders analysis results for humans.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/albertodiazdurana/devflow-analyzer/pkg/analyzer"
)

// Colors (Swiss minimal)
var (
	accent  = lipgloss.Color("#FF0000")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
)

// Markdown renders the result as a deterministic markdown document.
// Output depends only on the result, so reruns diff cleanly.
func Markdown(r *analyzer.AnalysisResult) string {
	var b strings.Builder

	b.WriteString("# Process Analysis Report\n\n")

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Cases: %d\n", r.NumCases)
	fmt.Fprintf(&b, "- Events: %d\n", r.NumEvents)
	fmt.Fprintf(&b, "- Distinct activities: %d\n", r.NumActivities)
	fmt.Fprintf(&b, "- Process variants: %d\n", r.NumVariants)
	b.WriteString("\n")

	b.WriteString("## Case Duration (hours)\n")
	fmt.Fprintf(&b, "- Median: %.2f\n", r.MedianDurationHours)
	fmt.Fprintf(&b, "- Mean: %.2f\n", r.MeanDurationHours)
	fmt.Fprintf(&b, "- P90: %.2f\n", r.P90DurationHours)
	fmt.Fprintf(&b, "- Min: %.2f\n", r.MinDurationHours)
	fmt.Fprintf(&b, "- Max: %.2f\n", r.MaxDurationHours)
	b.WriteString("\n")

	b.WriteString("## Dominant Variant\n")
	fmt.Fprintf(&b, "- Path: %s\n", strings.Join(r.TopVariant, " -> "))
	fmt.Fprintf(&b, "- Share of cases: %.1f%%\n", r.TopVariantFrequency*100)
	b.WriteString("\n")

	if len(r.Bottlenecks) > 0 {
		b.WriteString("## Bottlenecks\n")
		for _, bn := range r.Bottlenecks {
			fmt.Fprintf(&b, "- %s -> %s: avg wait %.2fh (%d occurrences)\n",
				bn.FromActivity, bn.ToActivity, bn.AvgWaitHours, bn.Frequency)
		}
		b.WriteString("\n")
	}

	if len(r.ReworkActivities) > 0 {
		b.WriteString("## Rework\n")
		fmt.Fprintf(&b, "- Activities repeated within a case: %s\n",
			strings.Join(r.ReworkActivities, ", "))
		fmt.Fprintf(&b, "- Share of cases with rework: %.1f%%\n", r.ReworkRate*100)
		b.WriteString("\n")
	}

	b.WriteString("## Activity Frequencies\n")
	for _, name := range sortedActivities(r.ActivityFrequencies) {
		fmt.Fprintf(&b, "- %s: %d\n", name, r.ActivityFrequencies[name])
	}

	return b.String()
}

// Terminal renders the result with ANSI styling for interactive use.
func Terminal(r *analyzer.AnalysisResult) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  PROCESS ANALYSIS") + "\n\n")

	b.WriteString(accentStyle.Render("  ▸ SUMMARY") + "\n")
	writeStat(&b, "Cases:", fmt.Sprintf("%d", r.NumCases))
	writeStat(&b, "Events:", fmt.Sprintf("%d", r.NumEvents))
	writeStat(&b, "Activities:", fmt.Sprintf("%d", r.NumActivities))
	writeStat(&b, "Variants:", fmt.Sprintf("%d", r.NumVariants))
	b.WriteString("\n")

	b.WriteString(accentStyle.Render("  ▸ CASE DURATION") + "\n")
	writeStat(&b, "Median:", formatHours(r.MedianDurationHours))
	writeStat(&b, "Mean:", formatHours(r.MeanDurationHours))
	writeStat(&b, "P90:", formatHours(r.P90DurationHours))
	writeStat(&b, "Range:", formatHours(r.MinDurationHours)+" to "+formatHours(r.MaxDurationHours))
	b.WriteString("\n")

	b.WriteString(accentStyle.Render("  ▸ DOMINANT VARIANT") + "\n")
	b.WriteString("  " + successStyle.Render(strings.Join(r.TopVariant, " → ")) + "\n")
	b.WriteString("  " + mutedStyle.Render(fmt.Sprintf("%.1f%% of cases follow this path", r.TopVariantFrequency*100)) + "\n\n")

	if len(r.Bottlenecks) > 0 {
		b.WriteString(accentStyle.Render("  ▸ BOTTLENECKS") + "\n")
		for _, bn := range r.Bottlenecks {
			b.WriteString(fmt.Sprintf("  %s %s\n",
				titleStyle.Render(bn.FromActivity+" → "+bn.ToActivity),
				mutedStyle.Render(fmt.Sprintf("avg wait %s, %d occurrences",
					formatHours(bn.AvgWaitHours), bn.Frequency))))
		}
		b.WriteString("\n")
	}

	if len(r.ReworkActivities) > 0 {
		b.WriteString(accentStyle.Render("  ▸ REWORK") + "\n")
		writeStat(&b, "Activities:", strings.Join(r.ReworkActivities, ", "))
		writeStat(&b, "Case share:", fmt.Sprintf("%.1f%%", r.ReworkRate*100))
		b.WriteString("\n")
	}

	return b.String()
}

func writeStat(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "  %s %s\n", mutedStyle.Render(label), titleStyle.Render(value))
}

// formatHours prints a duration in hours, switching to minutes below one.
func formatHours(h float64) string {
	if h < 1.0 {
		return fmt.Sprintf("%.0fm", h*60)
	}
	if h < 48 {
		return fmt.Sprintf("%.1fh", h)
	}
	return fmt.Sprintf("%.1fd", h/24)
}

func sortedActivities(freq map[string]int) []string {
	names := make([]string, 0, len(freq))
	for name := range freq {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
