package services

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
)

// PageRenderer writes pages of lines that share one column layout.
type PageRenderer interface {
	// SetColumns fixes the columns and their header labels.
	// It must be called before the first page.
	SetColumns(attrs, headers []string)

	// RenderPage writes one page.
	RenderPage(lines []domain.Line) error
}

// Ensure renderers implement the interface.
var (
	_ PageRenderer = (*ColumnFormatter)(nil)
	_ PageRenderer = (*JSONRenderer)(nil)
)

// ColumnFormatter lays out lines in aligned columns across any number of
// pages. Column widths only grow; the header block is printed again
// whenever a page widens any column but the last.
type ColumnFormatter struct {
	w              io.Writer
	displayHeaders bool

	headers      []string
	justs        []domain.Justification
	widths       []int
	headersShown bool
}

// NewColumnFormatter creates a formatter writing to w. Without headers it
// writes tab-separated values.
func NewColumnFormatter(w io.Writer, displayHeaders bool) *ColumnFormatter {
	return &ColumnFormatter{w: w, displayHeaders: displayHeaders}
}

// SetColumns fixes the columns, header labels and known justifications.
func (f *ColumnFormatter) SetColumns(attrs, headers []string) {
	f.headers = make([]string, len(attrs))
	for i := range attrs {
		label := attrs[i]
		if i < len(headers) && headers[i] != "" {
			label = headers[i]
		}
		f.headers[i] = strings.ToUpper(label)
	}
	f.justs = domain.Justifications(attrs)
	f.widths = make([]int, len(attrs))
	f.headersShown = false
}

// Widths returns a copy of the current column widths.
func (f *ColumnFormatter) Widths() []int {
	return append([]int(nil), f.widths...)
}

// RenderPage widens the columns for lines, re-prints the header if the
// layout moved, then writes each line.
func (f *ColumnFormatter) RenderPage(lines []domain.Line) error {
	if len(lines) == 0 {
		return nil
	}

	changed := f.Widen(lines)
	if f.displayHeaders && (!f.headersShown || changed) {
		if err := f.WriteHeader(); err != nil {
			return err
		}
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(f.w, f.FormatLine(line)); err != nil {
			return err
		}
	}
	return nil
}

// Widen grows the column widths to fit lines and, when headers are shown,
// the header labels. It reports whether any width except the last changed.
func (f *ColumnFormatter) Widen(lines []domain.Line) bool {
	old := f.Widths()

	if f.displayHeaders {
		for i, h := range f.headers {
			f.widths[i] = max(f.widths[i], runewidth.StringWidth(h))
		}
	}
	for _, line := range lines {
		for i := range f.widths {
			if i < len(line) {
				f.widths[i] = max(f.widths[i], runewidth.StringWidth(line[i]))
			}
		}
	}

	if len(old) == 0 {
		return false
	}
	for i := 0; i < len(old)-1; i++ {
		if old[i] != f.widths[i] {
			return true
		}
	}
	return false
}

// WriteHeader prints the header labels using the current widths.
func (f *ColumnFormatter) WriteHeader() error {
	cells := make([]string, len(f.headers))
	for i, h := range f.headers {
		just := f.justs[i]
		if just == domain.JustUnknown {
			just = domain.JustLeft
		}
		cells[i] = pad(h, f.widths[i], just)
	}
	f.headersShown = true
	_, err := fmt.Fprintln(f.w, strings.TrimRight(strings.Join(cells, " "), " \t"))
	return err
}

// FormatLine renders one line. Columns of unknown justification are
// right-justified for integer values and left-justified otherwise.
func (f *ColumnFormatter) FormatLine(line domain.Line) string {
	if !f.displayHeaders {
		return strings.TrimRight(strings.Join(line, "\t"), " \t")
	}

	cells := make([]string, len(line))
	for i, v := range line {
		just := domain.JustLeft
		width := 0
		if i < len(f.justs) {
			just = guessJustification(f.justs[i], v)
			width = f.widths[i]
		}
		cells[i] = pad(v, width, just)
	}
	return strings.TrimRight(strings.Join(cells, " "), " \t")
}

// Justification returns the justification known for column i.
func (f *ColumnFormatter) Justification(i int) domain.Justification {
	return f.justs[i]
}

func guessJustification(j domain.Justification, v string) domain.Justification {
	if j != domain.JustUnknown {
		return j
	}
	if _, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		return domain.JustRight
	}
	return domain.JustLeft
}

func pad(v string, width int, just domain.Justification) string {
	gap := width - runewidth.StringWidth(v)
	if gap <= 0 {
		return v
	}
	if just == domain.JustRight {
		return strings.Repeat(" ", gap) + v
	}
	return v + strings.Repeat(" ", gap)
}

// JSONRenderer writes each line as one JSON object keyed by column name.
type JSONRenderer struct {
	enc   *json.Encoder
	attrs []string
}

// NewJSONRenderer creates a renderer writing to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

// SetColumns fixes the object keys.
func (r *JSONRenderer) SetColumns(attrs, _ []string) {
	r.attrs = append([]string(nil), attrs...)
}

// RenderPage writes one object per line.
func (r *JSONRenderer) RenderPage(lines []domain.Line) error {
	for _, line := range lines {
		obj := make(map[string]string, len(r.attrs))
		for i, attr := range r.attrs {
			if i < len(line) {
				obj[attr] = line[i]
			}
		}
		if err := r.enc.Encode(obj); err != nil {
			return fmt.Errorf("encode line: %w", err)
		}
	}
	return nil
}
