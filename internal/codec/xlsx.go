package codec

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/hoover/internal/core"
)

// SheetName is the worksheet written by xlsx export.
const SheetName = "Cleaned_Data"

// Built-in number format ids that render as dates or times.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

var (
	quotedSection  = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]`)
	dateFormatCode = regexp.MustCompile(`[ydYD]`)
)

// decodeXLSX reads the first worksheet. Numeric cells with a date number
// format become date cells, other numbers become number cells and booleans
// render as TRUE or FALSE.
func decodeXLSX(r io.Reader) (core.Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("decode xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("decode xlsx: no sheets found")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("decode xlsx: read %s: %w", sheet, err)
	}

	dates := &dateStyleCache{f: f, known: make(map[int]bool)}
	grid := make(core.Grid, len(rows))
	for i, rec := range rows {
		row := make(core.Row, len(rec))
		for j, raw := range rec {
			row[j] = xlsxCell(f, sheet, i, j, raw, dates)
		}
		grid[i] = row
	}
	return trimTrailingEmptyRows(grid), nil
}

func xlsxCell(f *excelize.File, sheet string, row, col int, raw string, dates *dateStyleCache) core.Cell {
	if raw == "" {
		return core.Cell{}
	}
	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return inferCell(raw)
	}

	typ, _ := f.GetCellType(sheet, axis)
	switch typ {
	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "true") {
			return core.TextCell("TRUE")
		}
		return core.TextCell("FALSE")
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return textCell(raw)
	}

	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return inferCell(raw)
	}
	if style, err := f.GetCellStyle(sheet, axis); err == nil && dates.isDate(style) {
		if t, err := excelize.ExcelDateToTime(num, false); err == nil {
			return core.DateCell(t)
		}
	}
	return core.NumberCell(num)
}

// dateStyleCache remembers which style ids carry a date number format.
type dateStyleCache struct {
	f     *excelize.File
	known map[int]bool
}

func (c *dateStyleCache) isDate(styleID int) bool {
	if v, ok := c.known[styleID]; ok {
		return v
	}
	v := false
	if st, err := c.f.GetStyle(styleID); err == nil && st != nil {
		switch {
		case st.CustomNumFmt != nil:
			code := quotedSection.ReplaceAllString(*st.CustomNumFmt, "")
			v = dateFormatCode.MatchString(code)
		default:
			v = builtinDateFormats[st.NumFmt]
		}
	}
	c.known[styleID] = v
	return v
}

func trimTrailingEmptyRows(g core.Grid) core.Grid {
	end := len(g)
	for end > 0 && len(g[end-1]) == 0 {
		end--
	}
	return g[:end]
}

// encodeXLSX writes grid to a single-sheet workbook. Text that reads as a
// plain number is stored as a number; a header row is set in bold.
func encodeXLSX(grid core.Grid, structure core.StructureInfo) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("encode xlsx: %w", err)
	}

	for i, row := range grid {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("encode xlsx: %w", err)
		}
		values := make([]interface{}, len(row))
		for j, c := range row {
			values[j] = xlsxValue(c, i == 0 && structure.HasHeaders)
		}
		if err := f.SetSheetRow(SheetName, axis, &values); err != nil {
			return nil, fmt.Errorf("encode xlsx: row %d: %w", i+1, err)
		}
	}

	if structure.HasHeaders && len(grid) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return nil, fmt.Errorf("encode xlsx: %w", err)
		}
		if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
			return nil, fmt.Errorf("encode xlsx: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func xlsxValue(c core.Cell, header bool) interface{} {
	switch c.Kind {
	case core.CellEmpty:
		return nil
	case core.CellNumber:
		return c.Num
	case core.CellDate:
		return c.Time
	}
	if header {
		return c.Text
	}
	if inferred := inferCell(c.Text); inferred.Kind == core.CellNumber && inferred.String() == c.Text {
		return inferred.Num
	}
	return c.Text
}
