package core

import "strings"

// StructureInfo describes the shape of the original grid. It is computed
// once per file and never mutated.
type StructureInfo struct {
	HeaderRow   Row      `json:"-"`
	Headers     []string `json:"headers,omitempty"`
	ColumnCount int      `json:"columnCount"`
	HasHeaders  bool     `json:"hasHeaders"`
}

// DetectStructure treats row 0 as a header row when more than half of its
// cells hold non-blank text.
func DetectStructure(grid Grid) StructureInfo {
	if len(grid) == 0 {
		return StructureInfo{}
	}
	first := grid[0]

	text := 0
	for _, c := range first {
		if c.Kind == CellText && strings.TrimSpace(c.Text) != "" {
			text++
		}
	}

	info := StructureInfo{
		HeaderRow:   first.Clone(),
		ColumnCount: len(first),
		HasHeaders:  len(first) > 0 && text > len(first)/2,
	}
	if info.HasHeaders {
		info.Headers = first.Strings()
	}
	return info
}
