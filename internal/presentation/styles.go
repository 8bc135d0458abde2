package presentation

import "github.com/charmbracelet/lipgloss"

var (
	textMutedColor     = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#696969"}
	textPrimaryColor   = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#CCCCCC"}
	statusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	statusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	titleColor         = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"}
)

type styles struct {
	title    lipgloss.Style
	name     lipgloss.Style
	muted    lipgloss.Style
	selected lipgloss.Style
	matched  lipgloss.Style
	failed   lipgloss.Style
}

// newStyles binds the palette to a renderer so the color profile follows
// the formatter's writer.
func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(titleColor),
		name:     r.NewStyle().Foreground(textPrimaryColor),
		muted:    r.NewStyle().Foreground(textMutedColor),
		selected: r.NewStyle().Bold(true).Foreground(statusSuccessColor),
		matched:  r.NewStyle().Foreground(statusSuccessColor),
		failed:   r.NewStyle().Foreground(statusErrorColor),
	}
}
