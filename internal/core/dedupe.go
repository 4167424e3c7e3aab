package core

import (
	"encoding/json"
	"strings"
)

// Dedupe drops rows identical to an earlier row, keeping the first
// occurrence. The header row is kept and never compared. Grids with fewer
// than two rows are returned as is.
func Dedupe(grid Grid, hasHeaders bool) (Grid, int) {
	if len(grid) < 2 {
		return grid, 0
	}

	out := make(Grid, 0, len(grid))
	start := 0
	if hasHeaders {
		out = append(out, grid[0])
		start = 1
	}

	seen := make(map[string]struct{}, len(grid))
	for _, row := range grid[start:] {
		key := RowKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out, len(grid) - len(out)
}

// RowKey is the canonical dedup key of a row: the JSON array of its
// rendered cell values.
func RowKey(row Row) string {
	b, err := json.Marshal(row.Strings())
	if err != nil {
		return strings.Join(row.Strings(), "\x1f")
	}
	return string(b)
}
