package render

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Terminal renders Markdown for display in a terminal.
type Terminal struct {
	renderer *glamour.TermRenderer
}

// NewTerminal creates a renderer wrapping at width. An empty style picks
// dark or light from the terminal background; "notty" renders without
// colour.
func NewTerminal(width int, style string) (*Terminal, error) {
	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	if width <= 0 {
		width = 80
	}

	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}
	return &Terminal{renderer: renderer}, nil
}

// Render converts markdown to styled terminal text.
func (t *Terminal) Render(markdown string) (string, error) {
	out, err := t.renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
