package tui

import "github.com/charmbracelet/lipgloss"

// Styles
var (
	baseFg    = lipgloss.Color("#E6E6E6")
	baseDimFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	accentFg  = lipgloss.Color("#2ECC71")
	warnFg    = lipgloss.Color("#FFA500")
	errFg     = lipgloss.Color("#FF6B6B")
	borderCol = lipgloss.Color("#243141")

	appStyle    = lipgloss.NewStyle().Foreground(baseFg)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(baseDimFg)
	labelStyle  = lipgloss.NewStyle().Foreground(baseDimFg).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(warnFg).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(errFg)
	buttonStyle = lipgloss.NewStyle().Foreground(accentFg)
)
