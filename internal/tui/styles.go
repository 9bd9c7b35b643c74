package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("#7C3AED")
	ColorSalary  = lipgloss.Color("#10B981")
	ColorFailure = lipgloss.Color("#EF4444")
	ColorLocal   = lipgloss.Color("#F59E0B")
	ColorMuted   = lipgloss.Color("#64748B")

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F9FAFB")).
			Background(ColorPrimary).
			Padding(0, 1)

	StyleChip = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(ColorMuted)

	StyleChipSelected = lipgloss.NewStyle().
				Padding(0, 1).
				Bold(true).
				Foreground(lipgloss.Color("#F9FAFB")).
				Background(ColorPrimary)

	StyleTitle    = lipgloss.NewStyle().Bold(true)
	StyleSelected = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(ColorPrimary).
			PaddingLeft(1)
	StyleItem   = lipgloss.NewStyle().PaddingLeft(2)
	StyleSalary = lipgloss.NewStyle().Foreground(ColorSalary)
	StyleLocal  = lipgloss.NewStyle().Foreground(ColorLocal).Bold(true)
	StyleMuted  = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleError  = lipgloss.NewStyle().Foreground(ColorFailure)
)
