// Package ui renders CLI progress and summary output with
// github.com/charmbracelet/lipgloss, adapted from the teacher's
// pkg/ui.BuildOutput to lit's prompt-by-prompt generation run instead of a
// transpile-and-build step sequence.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/clintonboys/lit/internal/audit"
)

var (
	colorPrimary   = lipgloss.Color("#7D56F4")
	colorSecondary = lipgloss.Color("#56C3F4")
	colorSuccess   = lipgloss.Color("#5AF78E")
	colorWarning   = lipgloss.Color("#F7DC6F")
	colorError     = lipgloss.Color("#FF6B9D")
	colorMuted     = lipgloss.Color("#6C7086")
	colorText      = lipgloss.Color("#CDD6F4")
	colorHighlight = lipgloss.Color("#F5E0DC")
)

var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 2).
			MarginBottom(1)

	styleSection = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSecondary).
			MarginTop(1)

	stylePromptPath = lipgloss.NewStyle().Foreground(colorText)
	styleOutputPath = lipgloss.NewStyle().Foreground(colorSuccess)
	styleMuted      = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)

	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	styleError   = lipgloss.NewStyle().Foreground(colorError).Bold(true)

	styleStepLabel = lipgloss.NewStyle().Foreground(colorText).Width(14)
	styleStepTime  = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)

	styleSummary = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			MarginTop(1).
			PaddingTop(1)

	styleIndent = lipgloss.NewStyle().PaddingLeft(2)
)

// RunOutput renders one `lit regenerate` run's progress to stdout.
type RunOutput struct {
	startTime time.Time
}

// NewRunOutput starts timing a run.
func NewRunOutput() *RunOutput {
	return &RunOutput{startTime: time.Now()}
}

// PrintHeader prints the program banner.
func PrintHeader(version string) {
	fmt.Println(styleHeader.Render("lit") + " " + styleMuted.Render("v"+version))
}

// PrintSweepStart announces how many prompts are about to be walked.
func (r *RunOutput) PrintSweepStart(total int) {
	var msg string
	if total == 1 {
		msg = "Sweeping 1 prompt"
	} else {
		msg = fmt.Sprintf("Sweeping %d prompts", total)
	}
	fmt.Println(styleSection.Render(msg))
}

// StepStatus is the outcome of processing one prompt.
type StepStatus int

const (
	StepGenerated StepStatus = iota
	StepCacheHit
	StepSkipped
	StepWarning
	StepError
)

// Step is a single prompt's processing outcome, for PrintStep.
type Step struct {
	PromptPath string
	Status     StepStatus
	Duration   time.Duration
	Message    string
}

// PrintStep renders one prompt's outcome line.
func (r *RunOutput) PrintStep(s Step) {
	var icon, status string
	switch s.Status {
	case StepGenerated:
		icon, status = "✓", styleSuccess.Render("generated")
	case StepCacheHit:
		icon, status = "○", styleMuted.Render("cached")
	case StepSkipped:
		icon, status = "·", styleMuted.Render("skipped")
	case StepWarning:
		icon, status = "⚠", styleWarning.Render("warning")
	case StepError:
		icon, status = "✗", styleError.Render("failed")
	}

	line := fmt.Sprintf("  %s %s %s", icon, stylePromptPath.Render(s.PromptPath), status)
	if s.Duration > 0 {
		line += " " + styleStepTime.Render("("+formatDuration(s.Duration)+")")
	}
	fmt.Println(line)
	if s.Message != "" {
		fmt.Println(styleMuted.Render("    " + s.Message))
	}
}

// PrintOutputWritten renders a single output file path under its owning
// prompt's step line.
func (r *RunOutput) PrintOutputWritten(outputPath string) {
	fmt.Println("    " + styleOutputPath.Render(outputPath))
}

// PrintSummary renders the final run summary from an audit.Summary.
func (r *RunOutput) PrintSummary(summary audit.Summary, failed bool, errMsg string) {
	elapsed := time.Since(r.startTime)
	fmt.Println()

	if failed {
		line := fmt.Sprintf("💥 %s", styleError.Render("Run failed"))
		if errMsg != "" {
			line += "\n   " + styleError.Render("Error: ") + errMsg
		}
		fmt.Println(styleSummary.Render(line))
		return
	}

	stats := fmt.Sprintf(
		"%d prompt(s), %d cached, %d generated, %d skipped\n%s tokens in / %s tokens out, %s estimated cost",
		summary.TotalPrompts, summary.CacheHits, summary.CacheMisses, summary.Skipped,
		audit.FormatTokens(summary.TotalTokensIn), audit.FormatTokens(summary.TotalTokensOut),
		audit.FormatCost(summary.TotalCostUSD),
	)
	if summary.PatchesApplied > 0 || summary.PatchesConflicted > 0 {
		stats += fmt.Sprintf("\n%d patch(es) applied, %d conflicted", summary.PatchesApplied, summary.PatchesConflicted)
	}

	line := fmt.Sprintf("✨ %s %s\n%s", styleSuccess.Render("Done"), styleStepTime.Render(formatDuration(elapsed)), stats)
	fmt.Println(styleSummary.Render(line))
}

// PrintError prints a standalone error line.
func PrintError(msg string) {
	fmt.Println(styleIndent.Render(styleError.Render("✗ Error: ") + msg))
}

// PrintWarning prints a standalone warning line.
func PrintWarning(msg string) {
	fmt.Println(styleIndent.Render(styleWarning.Render("⚠ Warning: ") + msg))
}

// PrintInfo prints a standalone informational line.
func PrintInfo(msg string) {
	fmt.Println(styleIndent.Render(styleMuted.Render("ℹ " + msg)))
}

// Table renders rows with the first column padded to a common width,
// followed by the row's remaining cells separated by two spaces. Rows with
// fewer than two cells are skipped.
func Table(rows [][]string) string {
	maxWidth := 0
	for _, row := range rows {
		if len(row) > 0 && len(row[0]) > maxWidth {
			maxWidth = len(row[0])
		}
	}
	var lines []string
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		label := styleMuted.Render(fmt.Sprintf("%-*s", maxWidth, row[0]))
		value := lipgloss.NewStyle().Foreground(colorHighlight).Render(strings.Join(row[1:], "  "))
		lines = append(lines, fmt.Sprintf("  %s  %s", label, value))
	}
	return strings.Join(lines, "\n")
}

// Divider renders a horizontal rule.
func Divider() string {
	return styleMuted.Render(strings.Repeat("─", 60))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
