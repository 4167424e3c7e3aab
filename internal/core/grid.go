package core

import (
	"strconv"
	"strings"
	"time"
)

// CellKind tags the value held by a Cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDate
)

// nativeDateLayout is the default text rendering of a date cell.
const nativeDateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700"

// Cell is a single tagged grid value.
type Cell struct {
	Kind CellKind
	Text string
	Num  float64
	Time time.Time
}

// Row is an ordered sequence of cells. Rows in a grid may be ragged.
type Row []Cell

// Grid is an ordered sequence of rows. Row 0 may be a header row.
type Grid []Row

// TextCell returns a text cell. The empty string yields an empty cell.
func TextCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell returns a numeric cell.
func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Num: f}
}

// DateCell returns a date-valued cell.
func DateCell(t time.Time) Cell {
	return Cell{Kind: CellDate, Time: t}
}

// IsEmpty reports whether the cell holds no value at all.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty || (c.Kind == CellText && c.Text == "")
}

// IsBlank reports whether the cell renders to whitespace only.
func (c Cell) IsBlank() bool {
	return strings.TrimSpace(c.String()) == ""
}

// String renders the cell as text. Numbers use the shortest exact form.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case CellDate:
		return c.Time.Format(nativeDateLayout)
	default:
		return ""
	}
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Strings renders every cell of the row.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.String()
	}
	return out
}

// Clone returns a structurally independent copy of the grid.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i, r := range g {
		out[i] = r.Clone()
	}
	return out
}

// Strings renders the grid as rows of text.
func (g Grid) Strings() [][]string {
	out := make([][]string, len(g))
	for i, r := range g {
		out[i] = r.Strings()
	}
	return out
}

// Width returns the length of the widest row.
func (g Grid) Width() int {
	w := 0
	for _, r := range g {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// CellCount returns the total number of cells across all rows.
func (g Grid) CellCount() int {
	n := 0
	for _, r := range g {
		n += len(r)
	}
	return n
}

// GridFromStrings builds a grid of text cells.
func GridFromStrings(rows [][]string) Grid {
	g := make(Grid, len(rows))
	for i, rec := range rows {
		row := make(Row, len(rec))
		for j, v := range rec {
			row[j] = TextCell(v)
		}
		g[i] = row
	}
	return g
}
