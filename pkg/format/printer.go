package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	MetricListLimit = 50
	LogLimit        = 20
	SeriesLimit     = 5
	SpanLimit       = 50

	timeLayout = "2006-01-02 15:04:05"
)

// Printer renders query results for a terminal. Styling is dropped when the
// writer is not a terminal.
type Printer struct {
	out      io.Writer
	location *time.Location

	heading lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	link    lipgloss.Style
}

type Option func(*Printer)

// WithLocation sets the zone timestamps are displayed in.
func WithLocation(location *time.Location) Option {
	return func(p *Printer) {
		p.location = location
	}
}

func NewPrinter(w io.Writer, options ...Option) *Printer {
	r := lipgloss.NewRenderer(w)

	p := &Printer{
		out:      w,
		location: time.Local,
		heading:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		label:    r.NewStyle().Bold(true),
		muted:    r.NewStyle().Foreground(lipgloss.Color("245")),
		link:     r.NewStyle().Underline(true).Foreground(lipgloss.Color("33")),
	}

	for _, option := range options {
		option(p)
	}

	return p
}

// Raw writes a JSON document indented by two spaces, or verbatim when it
// does not parse.
func (p *Printer) Raw(raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		buf.Reset()
		buf.Write(raw)
	}
	buf.WriteByte('\n')

	if _, err := p.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	return nil
}

func (p *Printer) URL(link string) {
	fmt.Fprintf(p.out, "\n🔗 View in Datadog: %s\n", p.link.Render(link))
}

func (p *Printer) more(n int, noun string) {
	if n > 0 {
		fmt.Fprintf(p.out, "\n  %s\n", p.muted.Render(fmt.Sprintf("... and %d more %s", n, noun)))
	}
}

func (p *Printer) timestamp(t time.Time) string {
	return t.In(p.location).Format(timeLayout)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
