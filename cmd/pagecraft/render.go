package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pagecraft/internal/component"
	"pagecraft/internal/orchestrator"
)

var (
	stateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2196F3")).
			Bold(true)

	percentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8a8a8a"))

	stepOkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8BC34A"))

	stepErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e53935"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFC107"))

	resultStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2a3850")).
			Padding(0, 1)
)

// renderUpdate formats one telemetry frame, or "" for frames not worth a line.
func renderUpdate(u orchestrator.ProgressUpdate) string {
	if u.Step != nil {
		switch u.Step.Status {
		case component.StepComplete:
			return fmt.Sprintf("  %s %s", stepOkStyle.Render("✓"), u.Step.Message)
		case component.StepError:
			return fmt.Sprintf("  %s %s", stepErrStyle.Render("✗"), u.Step.Message)
		default:
			return ""
		}
	}
	if u.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s %s %s",
		stateStyle.Render(string(u.State)),
		percentStyle.Render(fmt.Sprintf("%3d%%", u.Percent)),
		u.Message)
}

func renderResult(r *orchestrator.Result) string {
	var b strings.Builder
	icon := stepOkStyle.Render("✓")
	switch r.Status {
	case orchestrator.StatusFailed:
		icon = stepErrStyle.Render("✗")
	case orchestrator.StatusPartial, orchestrator.StatusCancelled:
		icon = warnStyle.Render("!")
	}
	fmt.Fprintf(&b, "%s %s (%s mode, %d components)", icon, r.Message, r.Mode, r.Streamed)
	if len(r.FailedPhases) > 0 {
		fmt.Fprintf(&b, "\n%s failed phases: %s", warnStyle.Render("!"), strings.Join(r.FailedPhases, ", "))
	}
	if r.Warning != "" {
		fmt.Fprintf(&b, "\n%s %s", warnStyle.Render("!"), r.Warning)
	}
	return resultStyle.Render(b.String())
}

func renderError(err error) string {
	return stepErrStyle.Render("error: ") + err.Error()
}
