package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DreamingRabbit/CP-Gen/internal/stage"
)

var (
	labelStyleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	labelStyleFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	labelStyleRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	labelStyleSkipped = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	labelStylePending = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	detailTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	footerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	boxStyle          = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
)

// Marker returns the line prefix used for a stage status in plain output.
func Marker(status stage.Status) string {
	switch status {
	case stage.StatusSuccess:
		return "✅"
	case stage.StatusFailed:
		return "❌"
	case stage.StatusSkipped:
		return "⚠️"
	default:
		return "•"
	}
}

func labelStyleForStatus(status stage.Status) lipgloss.Style {
	switch status {
	case stage.StatusSuccess:
		return labelStyleSuccess
	case stage.StatusFailed:
		return labelStyleFailed
	case stage.StatusSkipped:
		return labelStyleSkipped
	default:
		return labelStylePending
	}
}

func friendlyLabel(value string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToLower(strings.TrimSpace(value))))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
