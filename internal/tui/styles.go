package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains the style definitions for the UI
type Styles struct {
	Title   lipgloss.Style
	Status  lipgloss.Style
	Filter  lipgloss.Style
	Loading lipgloss.Style
	Error   lipgloss.Style
	HitName lipgloss.Style
	Dim     lipgloss.Style
	Help    lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
		Filter:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		Loading: lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		HitName: lipgloss.NewStyle().Bold(true),
		Dim:     lipgloss.NewStyle().Faint(true),
		Help:    lipgloss.NewStyle().Faint(true).MarginTop(1),
	}
}
