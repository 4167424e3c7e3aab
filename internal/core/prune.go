package core

import "strings"

// PruneRows drops rows whose cells are all blank. The header row is always
// kept when hasHeaders is set. It returns the surviving rows and the number
// removed.
func PruneRows(grid Grid, hasHeaders bool) (Grid, int) {
	out := make(Grid, 0, len(grid))
	for i, row := range grid {
		if i == 0 && hasHeaders {
			out = append(out, row)
			continue
		}
		if rowHasContent(row) {
			out = append(out, row)
		}
	}
	return out, len(grid) - len(out)
}

func rowHasContent(row Row) bool {
	for _, c := range row {
		if !c.IsBlank() {
			return true
		}
	}
	return false
}

// EmptyColumns returns the indices, ascending, of columns with no data.
// A column qualifies when every data cell is blank and the header cell, if
// present, is blank or contains "unnamed". Column count is taken from row 0.
func EmptyColumns(grid Grid, hasHeaders bool) []int {
	if len(grid) == 0 {
		return nil
	}
	var empty []int
	for col := 0; col < len(grid[0]); col++ {
		if columnIsEmpty(grid, col, hasHeaders) {
			empty = append(empty, col)
		}
	}
	return empty
}

func columnIsEmpty(grid Grid, col int, hasHeaders bool) bool {
	for i, row := range grid {
		var c Cell
		if col < len(row) {
			c = row[col]
		}
		if i == 0 && hasHeaders {
			if !c.IsBlank() && !strings.Contains(strings.ToLower(c.String()), "unnamed") {
				return false
			}
			continue
		}
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// RemoveColumns deletes the given ascending column indices from every row,
// highest index first so earlier indices stay valid.
func RemoveColumns(grid Grid, cols []int) Grid {
	out := grid.Clone()
	for i := len(cols) - 1; i >= 0; i-- {
		col := cols[i]
		for r, row := range out {
			if col < len(row) {
				out[r] = append(row[:col:col], row[col+1:]...)
			}
		}
	}
	return out
}
