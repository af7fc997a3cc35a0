package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#6B7280") // Gray
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorDanger    = lipgloss.Color("#EF4444") // Red
	ColorMuted     = lipgloss.Color("#9CA3AF") // Light gray
	ColorBlue      = lipgloss.Color("#3B82F6") // Blue
)

// Shape badge styles
var (
	ShapeOne = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fff")).
			Background(ColorBlue).
			Padding(0, 1)

	ShapeMany = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fff")).
			Background(ColorSuccess).
			Padding(0, 1).
			Bold(true)

	ShapeFirst = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fff")).
			Background(ColorWarning).
			Padding(0, 1)
)

// Text styles
var (
	Bold      = lipgloss.NewStyle().Bold(true)
	Muted     = lipgloss.NewStyle().Foreground(ColorMuted)
	Primary   = lipgloss.NewStyle().Foreground(ColorPrimary)
	Success   = lipgloss.NewStyle().Foreground(ColorSuccess)
	Warning   = lipgloss.NewStyle().Foreground(ColorWarning)
	Danger    = lipgloss.NewStyle().Foreground(ColorDanger)
	Secondary = lipgloss.NewStyle().Foreground(ColorSecondary)
)

// Field style - distinctive for Type.field names
var Field = lipgloss.NewStyle().
	Foreground(ColorPrimary).
	Bold(true)

// Path style - subdued
var Path = lipgloss.NewStyle().Foreground(ColorMuted)

// Header style for section headers
var Header = lipgloss.NewStyle().
	Foreground(ColorPrimary).
	Bold(true).
	MarginBottom(1)

// RenderShape returns a styled badge for a route shape name.
func RenderShape(shape string) string {
	switch strings.ToLower(shape) {
	case "one":
		return ShapeOne.Render(shape)
	case "many":
		return ShapeMany.Render(shape)
	case "first":
		return ShapeFirst.Render(shape)
	default:
		return Muted.Render(shape)
	}
}

// RenderError returns an error message styled for the terminal.
func RenderError(msg string) string {
	return Danger.Render(msg)
}
