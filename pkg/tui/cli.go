// Package tui provides simple streaming CLI output.
// Clean status lines and progress, no full-screen TUI.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
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

// PrintHeader prints the tool banner.
func PrintHeader(version string) {
	fmt.Println()
	fmt.Println(titleStyle.Render("  DEVFLOW") + mutedStyle.Render(" v"+version))
	fmt.Println(mutedStyle.Render("  Process analysis for timestamped event logs"))
	fmt.Println()
}

// PrintStep prints a section marker.
func PrintStep(name string) {
	fmt.Println(accentStyle.Render("▸ " + name))
}

// PrintInfo prints a labeled value line.
func PrintInfo(label, value string) {
	fmt.Printf("  %s %s\n", mutedStyle.Render(label), titleStyle.Render(value))
}

// PrintSuccess prints a completion line.
func PrintSuccess(message string) {
	fmt.Println(successStyle.Render("  ✓ " + message))
}

// PrintError prints a failure line.
func PrintError(message string) {
	fmt.Println(accentStyle.Render("  ✗ " + message))
}

// LoadSummary holds stats printed after loading an event log.
type LoadSummary struct {
	Inputs   int
	Events   int64
	Size     int64
	Duration time.Duration
}

// PrintLoadSummary prints results after loading completes.
func PrintLoadSummary(s LoadSummary) {
	fmt.Println()
	PrintSuccess("LOAD COMPLETE")
	PrintInfo("Inputs:", fmt.Sprintf("%d", s.Inputs))
	PrintInfo("Events:", FormatNumber(s.Events))
	if s.Size > 0 {
		PrintInfo("Size:", FormatBytes(s.Size))
	}
	if s.Duration > 0 {
		rate := float64(s.Events) / s.Duration.Seconds()
		PrintInfo("Time:", fmt.Sprintf("%s (%s events/sec)",
			FormatDuration(s.Duration), FormatNumber(int64(rate))))
	}
	fmt.Println()
}

// ShowProgress creates a progress bar for loading.
func ShowProgress(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// Spinner shows a simple loading indicator until done is closed.
func Spinner(message string, done chan bool) {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	i := 0
	for {
		select {
		case <-done:
			fmt.Printf("\r%s %s\n", successStyle.Render("✓"), message)
			return
		default:
			fmt.Printf("\r%s %s", accentStyle.Render(frames[i]), message)
			i = (i + 1) % len(frames)
			time.Sleep(80 * time.Millisecond)
		}
	}
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

// FormatNumber abbreviates large counts.
func FormatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}
