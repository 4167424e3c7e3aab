package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/JonMunkholm/hoover/internal/core"
)

// headerObject is one data row keyed by header, in header order. A repeated
// header keeps its first position and its last value.
type headerObject struct {
	keys   []string
	values map[string]string
}

func (o headerObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// indexedRow is the JSON shape of a row when the grid has no header.
type indexedRow struct {
	Row  int      `json:"row"`
	Data []string `json:"data"`
}

// encodeJSON renders a headed grid as an array of objects keyed by header
// (blank headers become ColumnN) and a headerless grid as {row, data}
// objects. Cells past the end of a ragged row are omitted.
func encodeJSON(grid core.Grid, structure core.StructureInfo) ([]byte, error) {
	var v any
	if structure.HasHeaders && len(grid) > 0 {
		headers := grid[0].Strings()
		objs := make([]headerObject, 0, len(grid)-1)
		for _, row := range grid[1:] {
			objs = append(objs, rowObject(headers, row))
		}
		v = objs
	} else {
		rows := make([]indexedRow, len(grid))
		for i, row := range grid {
			rows[i] = indexedRow{Row: i + 1, Data: row.Strings()}
		}
		v = rows
	}

	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return out, nil
}

func rowObject(headers []string, row core.Row) headerObject {
	obj := headerObject{values: make(map[string]string, len(headers))}
	for i, h := range headers {
		if i >= len(row) {
			break
		}
		key := h
		if key == "" {
			key = fmt.Sprintf("Column%d", i+1)
		}
		if _, seen := obj.values[key]; !seen {
			obj.keys = append(obj.keys, key)
		}
		obj.values[key] = row[i].String()
	}
	return obj
}
