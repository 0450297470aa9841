// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Claudius.
// This file defines the shared lipgloss styles used across the different
// views to ensure a consistent look and feel.
package tui // import "github.com/iclaudius/claudius/internal/tui"

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/iclaudius/claudius/internal/analyzer"
)

// colorPalette defines the core colors used in the TUI.
const (
	colorSubtle    = lipgloss.Color("240") // Muted gray
	colorHighlight = lipgloss.Color("81")  // A nice teal/cyan
	colorSpecial   = lipgloss.Color("208") // An orange for special attention
	colorError     = lipgloss.Color("196") // A bright red
	colorSuccess   = lipgloss.Color("40")  // A nice green
	colorWarning   = lipgloss.Color("220") // Yellow
	colorWhite     = lipgloss.Color("231")
)

// Styles defines the reusable lipgloss styles for various UI components.
var (
	// Help text
	helpStyle = lipgloss.NewStyle().Foreground(colorSubtle)

	// Disabled cron jobs and the like
	inactiveItemStyle = lipgloss.NewStyle().
				Strikethrough(true).
				Foreground(colorSubtle)

	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	specialStyle = lipgloss.NewStyle().Foreground(colorSpecial)

	// Main title on the dashboard
	mainTitleStyle = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true).
			Padding(1, 3)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true).
			Padding(1, 2)

	paneTitleStyle = lipgloss.NewStyle().Bold(true)

	// Lists
	itemStyle         = lipgloss.NewStyle()
	selectedItemStyle = lipgloss.NewStyle().Foreground(colorHighlight)

	// Form elements
	focusedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	blurredStyle  = lipgloss.NewStyle().Foreground(colorSubtle)
	formItemStyle = lipgloss.NewStyle()

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	// Modal Dialogs
	dialogBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(colorHighlight).
			Padding(1, 2).
			Width(60)

	buttonStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(lipgloss.Color("237")). // Dark gray
			Padding(0, 3).
			MarginTop(1)

	activeButtonStyle = buttonStyle.
				Background(colorHighlight).
				Foreground(colorWhite).
				Underline(true)

	statusMessageStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Foreground(colorWhite).
				Background(colorHighlight)

	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Background(lipgloss.Color("236")).Padding(0, 1).Italic(true)
)

// gradeStyle colors a safety grade.
func gradeStyle(grade string) lipgloss.Style {
	switch grade {
	case "A", "B":
		return successStyle.Bold(true)
	case "C":
		return warningStyle.Bold(true)
	case "D":
		return specialStyle.Bold(true)
	default:
		return errorStyle.Bold(true)
	}
}

// severityStyle colors a finding severity.
func severityStyle(s analyzer.Severity) lipgloss.Style {
	switch s {
	case analyzer.SeverityError:
		return errorStyle
	case analyzer.SeverityWarning:
		return warningStyle
	default:
		return helpStyle
	}
}

// tableStyles returns the table styles shared by all list views.
func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorSubtle).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(colorWhite).
		Background(colorHighlight).
		Bold(false)
	return s
}
