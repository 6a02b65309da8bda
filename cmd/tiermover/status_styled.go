package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tiermover/pkg/mover"
	"tiermover/pkg/policy"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Style definitions
var (
	accentColor = lipgloss.Color("#50FA7B") // Green
	dangerColor = lipgloss.Color("#FF5555") // Red
	mutedColor  = lipgloss.Color("#6272A4") // Comment
	cyanColor   = lipgloss.Color("#8BE9FD") // Cyan

	jobLabelStyle = lipgloss.NewStyle().
			Foreground(cyanColor).
			Bold(true)

	succeededStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	failedStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cyanColor).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// pollAndRender repeatedly prints each job's status line until every job
// reaches a terminal state or ctx is cancelled.
func pollAndRender(ctx context.Context, actions []*mover.MoveAction, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		allDone := true
		for _, action := range actions {
			status := action.Status()
			fmt.Println(renderJobLine(action, status))
			if !status.Finished() {
				allDone = false
			}
		}
		if allDone {
			return
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			// Jobs finalize their own state on cancellation; one last
			// poll round picks up the terminal snapshots.
			for _, action := range actions {
				action.Wait(context.Background())
			}
		}
	}
}

func renderJobLine(action *mover.MoveAction, status mover.Status) string {
	label := jobLabelStyle.Render(action.Path())
	bar := renderProgressBar(status.Percentage()*100, 24)
	counts := mutedStyle.Render(fmt.Sprintf("%d/%d blocks, %s/%s",
		status.MovedBlocks, status.TotalBlocks,
		formatBytes(status.MovedSize), formatBytes(status.TotalSize)))
	elapsed := mutedStyle.Render(formatDuration(status.RunningTime()))

	var state string
	switch status.State {
	case mover.StateSucceeded:
		state = succeededStyle.Render("SUCCEEDED")
	case mover.StateFailed:
		state = failedStyle.Render(fmt.Sprintf("FAILED: %v", status.Err))
	default:
		state = string(status.State)
	}

	return fmt.Sprintf("%s  %s  %s  %s  %s", label, bar, counts, elapsed, state)
}

func renderPolicyTable() string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == 0 {
				return headerStyle
			}
			return rowStyle
		}).
		Headers("POLICY", "PLACEMENT")

	for _, id := range policy.Known() {
		rule, _ := policy.Resolve(id)
		t.Row(string(id), describeRule(rule))
	}
	return t.Render()
}

func describeRule(rule policy.TierRule) string {
	if rule.PrimaryCount == 0 {
		return fmt.Sprintf("all replicas on %s", rule.Primary)
	}
	return fmt.Sprintf("%d replica on %s, rest on %s", rule.PrimaryCount, rule.Primary, rule.Fallback)
}

func renderProgressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(float64(width) * percent / 100)
	empty := width - filled

	bar := lipgloss.NewStyle().Foreground(lipgloss.Color("#42c767")).Render(strings.Repeat("█", filled))
	bar += lipgloss.NewStyle().Foreground(lipgloss.Color("#333333")).Render(strings.Repeat("░", empty))

	return fmt.Sprintf("%s %.1f%%", bar, percent)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
