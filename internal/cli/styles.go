// Package cli renders training reports, predictions and stored runs for the
// terminal.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	PrimaryColor = lipgloss.Color("#5B8DEF")
	HighColor    = lipgloss.Color("#4ECDC4")
	MediumColor  = lipgloss.Color("#FFE66D")
	LowColor     = lipgloss.Color("#FF6B6B")
	InfoColor    = lipgloss.Color("#95E1D3")
	BorderColor  = lipgloss.Color("#333")
)

// Confidence thresholds used to colour probabilities and F1 scores.
const (
	HighConfidence   = 0.8
	MediumConfidence = 0.5
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().Foreground(HighColor)
	WarningStyle = lipgloss.NewStyle().Foreground(MediumColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(1, 2)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(PrimaryColor).
				Padding(0, 1)
	TableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	TableBorderStyle = lipgloss.NewStyle().Foreground(BorderColor)
)

const (
	SuccessIcon = "✓"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	ChartIcon   = "📊"
	ModelIcon   = "🧮"
)

// ScoreStyle picks a colour for a probability or metric in [0,1].
func ScoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= HighConfidence:
		return lipgloss.NewStyle().Foreground(HighColor)
	case score >= MediumConfidence:
		return lipgloss.NewStyle().Foreground(MediumColor)
	default:
		return lipgloss.NewStyle().Foreground(LowColor)
	}
}

func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

func FormatTitle(title string) string {
	return TitleStyle.Render(ChartIcon + " " + title)
}

// RenderBox renders content under a title in a rounded box.
func RenderBox(title, content string) string {
	return BoxStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.UnsetMargins().Render(title),
		content,
	))
}
