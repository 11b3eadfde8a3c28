package settings

import "github.com/charmbracelet/lipgloss"

// Color Palette
var (
	salmonPink  = lipgloss.Color("#FFB3BA")
	mintGreen   = lipgloss.Color("#A8E6CF")
	mutedGray   = lipgloss.Color("#6B7280")
	brightWhite = lipgloss.Color("#F9FAFB")
	errorRed    = lipgloss.Color("#F87171")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	columnStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Bold(true)

	rowStyle = lipgloss.NewStyle().
			Foreground(brightWhite).
			PaddingLeft(2)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(brightWhite).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(salmonPink).
				PaddingLeft(1)

	savedStyle = lipgloss.NewStyle().
			Foreground(mintGreen)

	invalidStyle = lipgloss.NewStyle().
			Foreground(errorRed)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(salmonPink).
			Padding(1, 2)
)
