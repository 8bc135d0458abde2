package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/zjrosen/walkabout/internal/predicate"
)

// Output formats understood by the formatter.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	json   bool
	styles styles
}

// Option configures a Formatter.
type Option func(*formatterOptions)

type formatterOptions struct {
	format string
	color  bool
}

// WithFormat selects "text" or "json". Anything else falls back to text.
func WithFormat(format string) Option {
	return func(o *formatterOptions) {
		o.format = format
	}
}

// WithColor enables color when the writer is a terminal that supports it.
func WithColor(color bool) Option {
	return func(o *formatterOptions) {
		o.color = color
	}
}

// NewFormatter creates a new formatter. The default is uncolored text.
func NewFormatter(writer io.Writer, opts ...Option) *Formatter {
	o := formatterOptions{format: FormatText}
	for _, opt := range opts {
		opt(&o)
	}

	renderer := lipgloss.NewRenderer(writer)
	if !o.color {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return &Formatter{
		writer: writer,
		json:   o.format == FormatJSON,
		styles: newStyles(renderer),
	}
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatOrder prints predicates in evaluation order.
func (f *Formatter) FormatOrder(order []PredicateDTO) error {
	if f.json {
		return f.encode(order)
	}
	if len(order) == 0 {
		_, err := fmt.Fprintln(f.writer, f.styles.muted.Render("no predicates registered"))
		return err
	}

	var b strings.Builder
	b.WriteString(f.styles.title.Render("Evaluation order"))
	b.WriteByte('\n')
	width := 0
	for _, p := range order {
		width = max(width, runewidth.StringWidth(p.Name))
	}
	for _, p := range order {
		fmt.Fprintf(&b, "  %2d  %s  %s\n",
			p.Index,
			f.styles.name.Render(pad(p.Name, width)),
			f.styles.muted.Render(fmt.Sprintf("weight %d", p.Weight)),
		)
	}
	_, err := io.WriteString(f.writer, b.String())
	return err
}

// FormatElections prints elected candidates, one per lookup name.
func (f *Formatter) FormatElections(elections []ElectionDTO) error {
	if f.json {
		return f.encode(elections)
	}

	var b strings.Builder
	width := 0
	for _, e := range elections {
		width = max(width, runewidth.StringWidth(displayName(e.Name)))
	}
	for _, e := range elections {
		fmt.Fprintf(&b, "%s  %s\n",
			f.styles.muted.Render(pad(displayName(e.Name), width)),
			f.styles.selected.Render(e.Candidate),
		)
	}
	_, err := io.WriteString(f.writer, b.String())
	return err
}

// FormatExplanation prints every entry of the consulted table in election
// order, marking the selected one.
func (f *Formatter) FormatExplanation(x ExplanationDTO) error {
	if f.json {
		return f.encode(x)
	}

	var b strings.Builder
	b.WriteString(f.styles.title.Render(fmt.Sprintf("Table %s", displayName(x.Name))))
	if len(x.Subjects) > 0 {
		b.WriteString(f.styles.muted.Render(" for " + strings.Join(x.Subjects, " ")))
	}
	b.WriteByte('\n')

	candWidth, rankWidth := 0, 0
	for _, e := range x.Entries {
		candWidth = max(candWidth, runewidth.StringWidth(e.Candidate))
		rankWidth = max(rankWidth, runewidth.StringWidth(e.Rank))
	}
	for _, e := range x.Entries {
		marker, style := " ", f.styles.name
		switch {
		case e.Selected:
			marker, style = ">", f.styles.selected
		case !e.Matched:
			style = f.styles.failed
		}
		outcome := f.styles.matched.Render("match")
		if !e.Matched {
			outcome = f.styles.failed.Render("no match")
		}
		conds := "always"
		if len(e.Predicates) > 0 {
			conds = strings.Join(e.Predicates, " and ")
		}
		fmt.Fprintf(&b, "%s %s  %s  %s  %s  %s\n",
			marker,
			style.Render(pad(e.Candidate, candWidth)),
			f.styles.muted.Render(pad(e.Rank, rankWidth)),
			f.styles.muted.Render(pad(predicate.Fingerprint(e.Fingerprint).Short(), 12)),
			outcome,
			conds,
		)
	}
	_, err := io.WriteString(f.writer, b.String())
	return err
}

func displayName(name string) string {
	if name == "" {
		return "(default)"
	}
	return name
}

// pad fills s to width terminal cells; names may hold wide runes.
func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}
