package explorer

import "github.com/charmbracelet/lipgloss"

const sidebarWidth = 34

type styles struct {
	Header    lipgloss.Style
	Muted     lipgloss.Style
	Sidebar   lipgloss.Style
	Cursor    lipgloss.Style
	Active    lipgloss.Style
	Reference lipgloss.Style
	Footer    lipgloss.Style
}

func defaultStyles() styles {
	accent := lipgloss.AdaptiveColor{Light: "#5A3FC0", Dark: "#B39DFF"}
	muted := lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#9A9A9A"}

	return styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			PaddingLeft(1),
		Muted: lipgloss.NewStyle().
			Foreground(muted),
		Sidebar: lipgloss.NewStyle().
			Width(sidebarWidth).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(muted),
		Cursor: lipgloss.NewStyle().
			Reverse(true),
		Active: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		Reference: lipgloss.NewStyle().
			Underline(true).
			Foreground(accent),
		Footer: lipgloss.NewStyle().
			Foreground(muted).
			PaddingLeft(1),
	}
}
