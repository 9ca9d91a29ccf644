// Package ui renders command output. Payload lines go to stdout, status and
// warnings to stderr. Release tags and distribution strings are colored
// consistently within one invocation: the first value seen for the "current"
// release or host distribution gets the anchor color, every other distinct
// value cycles through the rest of the palette.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the ANSI colors cycled across distinct values. Index 0 is
// the anchor color reserved for the seeded value.
var palette = []lipgloss.Color{"2", "3", "5", "4", "6", "1", "7"}

var (
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// colorTable assigns one palette color per distinct key and remembers it.
type colorTable struct {
	enabled bool
	keyFn   func(string) string
	colors  map[string]lipgloss.Style
	next    int
}

func newColorTable(seed string, enabled bool, keyFn func(string) string) *colorTable {
	if keyFn == nil {
		keyFn = func(s string) string { return s }
	}
	t := &colorTable{
		enabled: enabled,
		keyFn:   keyFn,
		colors:  make(map[string]lipgloss.Style),
		next:    1,
	}
	if seed != "" {
		t.colors[keyFn(seed)] = lipgloss.NewStyle().Foreground(palette[0])
	}
	return t
}

func (t *colorTable) render(text string) string {
	if !t.enabled {
		return text
	}
	key := t.keyFn(text)
	style, ok := t.colors[key]
	if !ok {
		style = lipgloss.NewStyle().Foreground(palette[t.next])
		t.colors[key] = style
		if t.next++; t.next >= len(palette) {
			t.next = 1
		}
	}
	return style.Render(text)
}

// Printer formats and writes all user-facing output for one invocation.
type Printer struct {
	out  io.Writer
	err  io.Writer
	rels *colorTable
	dist *colorTable
}

// New builds a Printer. latestRelease and hostDist seed the anchor color so
// the current release and the host's own distribution always render the
// same way. noColor disables all styling.
func New(latestRelease, hostDist string, noColor bool) *Printer {
	return &Printer{
		out:  os.Stdout,
		err:  os.Stderr,
		rels: newColorTable(latestRelease, !noColor, nil),
		dist: newColorTable(hostDist, !noColor, distKey),
	}
}

// NewWriter is New with explicit sinks, for tests.
func NewWriter(out, errOut io.Writer, noColor bool) *Printer {
	return &Printer{
		out:  out,
		err:  errOut,
		rels: newColorTable("", !noColor, nil),
		dist: newColorTable("", !noColor, distKey),
	}
}

// distKey colors distributions by family: everything up to the first dash,
// so all x86_64 variants share one color.
func distKey(dist string) string {
	family, _, _ := strings.Cut(dist, "-")
	return family
}

// Release formats "version @ tag" with the tag colored per release.
func (p *Printer) Release(version fmt.Stringer, tag string) string {
	return fmt.Sprintf("%s @ %s", version, p.rels.render(tag))
}

// Tag colors a bare release tag.
func (p *Printer) Tag(tag string) string {
	return p.rels.render(tag)
}

// Dist formats a distribution string, colored per family.
func (p *Printer) Dist(dist string) string {
	return fmt.Sprintf("distribution=%q", p.dist.render(dist))
}

// Println writes a payload line to stdout.
func (p *Printer) Println(args ...any) {
	fmt.Fprintln(p.out, args...)
}

// Printf writes formatted payload to stdout.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// Infof writes a status line to stderr.
func (p *Printer) Infof(format string, args ...any) {
	fmt.Fprintf(p.err, format+"\n", args...)
}

// Warnf writes a warning line to stderr.
func (p *Printer) Warnf(format string, args ...any) {
	msg := fmt.Sprintf("Warning: "+format, args...)
	if p.rels.enabled {
		msg = styleWarn.Render(msg)
	}
	fmt.Fprintln(p.err, msg)
}

// Errorf writes an error line to stderr.
func (p *Printer) Errorf(format string, args ...any) {
	msg := fmt.Sprintf("Error: "+format, args...)
	if p.rels.enabled {
		msg = styleError.Render(msg)
	}
	fmt.Fprintln(p.err, msg)
}
