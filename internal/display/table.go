package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Table renders rows of columnar data with padded ASCII borders. Cell
// widths adapt to content, capped by the terminal width when stdout is
// a terminal.
type Table struct {
	headers []string
	rows    [][]string
	maxWide int
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	maxWide := 0
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		maxWide = width
	}

	return &Table{headers: headers, maxWide: maxWide}
}

// AddRow appends a row. Missing cells render empty, extra cells are
// dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	t.rows = append(t.rows, row)
}

// Render returns the formatted table.
func (t *Table) Render() string {
	var sb strings.Builder
	t.RenderTo(&sb)
	return sb.String()
}

// RenderTo writes the formatted table to w.
func (t *Table) RenderTo(w io.Writer) {
	widths := t.columnWidths()

	t.writeSeparator(w, widths)
	t.writeRow(w, t.headers, widths)
	t.writeSeparator(w, widths)
	for _, row := range t.rows {
		t.writeRow(w, row, widths)
	}
	t.writeSeparator(w, widths)
}

func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = utf8.RuneCountInString(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	if t.maxWide > 0 {
		t.shrinkToFit(widths)
	}
	return widths
}

// shrinkToFit trims the widest columns until the table fits the
// terminal.
func (t *Table) shrinkToFit(widths []int) {
	const minWidth = 8

	for total(widths)+3*len(widths)+1 > t.maxWide {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minWidth {
			return
		}
		widths[widest]--
	}
}

func total(widths []int) int {
	sum := 0
	for _, w := range widths {
		sum += w
	}
	return sum
}

func (t *Table) writeRow(w io.Writer, cells []string, widths []int) {
	fmt.Fprint(w, "|")
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = truncate(cells[i], width)
		}
		fmt.Fprintf(w, " %-*s |", width, cell)
	}
	fmt.Fprintln(w)
}

func (t *Table) writeSeparator(w io.Writer, widths []int) {
	fmt.Fprint(w, "+")
	for _, width := range widths {
		fmt.Fprint(w, strings.Repeat("-", width+2), "+")
	}
	fmt.Fprintln(w)
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}

	runes := []rune(s)
	return string(runes[:width-1]) + "…"
}
