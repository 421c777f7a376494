package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	clock    lipgloss.Style
	status   lipgloss.Style
	paused   lipgloss.Style
	header   lipgloss.Style
	key      lipgloss.Style
	hits     lipgloss.Style
	bar      lipgloss.Style
	chartBar lipgloss.Style
	section  lipgloss.Style
	muted    lipgloss.Style
	tabOn    lipgloss.Style
	tabOff   lipgloss.Style
}

func newStyles(s Skin) styles {
	c := s.Colors
	return styles{
		title:    lipgloss.NewStyle().Foreground(lipgloss.Color(c.Title)).Bold(true),
		clock:    lipgloss.NewStyle().Foreground(lipgloss.Color(c.Muted)),
		status:   lipgloss.NewStyle().Foreground(lipgloss.Color(c.Text)),
		paused:   lipgloss.NewStyle().Foreground(lipgloss.Color(c.Paused)).Bold(true),
		header:   lipgloss.NewStyle().Foreground(lipgloss.Color(c.Accent)).Bold(true),
		key:      lipgloss.NewStyle().Foreground(lipgloss.Color(c.Text)),
		hits:     lipgloss.NewStyle().Foreground(lipgloss.Color(c.Accent)),
		bar:      lipgloss.NewStyle().Foreground(lipgloss.Color(c.Bar)),
		chartBar: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Chart)).Background(lipgloss.Color(c.Chart)),
		section: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(c.Border)).
			Padding(0, 1),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color(c.Muted)),
		tabOn:  lipgloss.NewStyle().Foreground(lipgloss.Color(c.Title)).Bold(true).Underline(true),
		tabOff: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Muted)),
	}
}
