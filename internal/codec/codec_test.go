package codec

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/hoover/internal/core"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		want Kind
		ok   bool
	}{
		{"a.csv", KindCSV, true},
		{"A.CSV", KindCSV, true},
		{"b.tsv", KindTSV, true},
		{"c.txt", KindText, true},
		{"d.xlsx", KindXLSX, true},
		{"legacy.xls", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KindOf(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	c := New(1024)

	err := c.Validate("old.xls", 10)
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, core.ErrUnsupportedType)
	assert.Equal(t, "old.xls", ve.File)

	err = c.Validate("big.csv", 4096)
	assert.ErrorIs(t, err, core.ErrFileTooLarge)
	assert.Contains(t, err.Error(), "4 KB exceeds 1 KB")

	assert.NoError(t, c.Validate("ok.csv", 1024))
}

func TestDecode_CSV(t *testing.T) {
	data := "\xEF\xBB\xBFName,Zip,Amount\nCafé,01234,3\nBob,90210,2.50\n"
	grid, err := New(0).DecodeBytes("people.csv", []byte(data))
	require.NoError(t, err)
	require.Len(t, grid, 3)

	assert.Equal(t, "Name", grid[0][0].Text)
	assert.Equal(t, "Café", grid[1][0].Text, "text is NFC normalized")
	assert.Equal(t, core.CellText, grid[1][1].Kind, "leading zero stays text")
	assert.Equal(t, core.NumberCell(3), grid[1][2])
	assert.Equal(t, core.NumberCell(90210), grid[2][1])
	assert.Equal(t, core.CellText, grid[2][2].Kind, "2.50 would not round trip")
}

func TestDecode_Delimiters(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"tabs.tsv", "a\tb\n1\t2\n"},
		{"semi.csv", "a;b\n1;2\n"},
		{"pipes.txt", "a|b\n1|2\n"},
		{"tabs.txt", "a\tb\n1\t2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := New(0).DecodeBytes(tt.name, []byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}}, grid.Strings())
		})
	}
}

func TestDecode_Ragged(t *testing.T) {
	grid, err := New(0).DecodeBytes("r.csv", []byte("a,b,c\n1\n\"x, y\",\"he said \"\"hi\"\"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"1"}, {"x, y", `he said "hi"`}}, grid.Strings())
}

func TestDecode_Errors(t *testing.T) {
	c := New(16)

	_, err := c.DecodeBytes("empty.csv", nil)
	var pe *core.ParseError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, core.ErrEmptyGrid)

	_, err = c.DecodeBytes("bin.csv", []byte("a,\x00b"))
	assert.ErrorIs(t, err, ErrEncoding)

	_, err = c.Decode("stream.csv", strings.NewReader(strings.Repeat("x", 64)), 0, nil)
	assert.ErrorIs(t, err, core.ErrFileTooLarge)

	_, err = c.DecodeBytes("bad.xlsx", []byte("not a zip"))
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "decode xlsx")
}

func TestDecode_Progress(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 2500; i++ {
		fmt.Fprintf(&b, "row%d,%d\n", i, i)
	}
	var reports []int
	_, err := New(0).Decode("big.csv", strings.NewReader(b.String()), int64(b.Len()), func(p int) {
		reports = append(reports, p)
	})
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, 100, reports[2])
	assert.LessOrEqual(t, reports[0], reports[1])
}

func TestXLSX_RoundTrip(t *testing.T) {
	c := New(0)
	grid := core.Grid{
		{core.TextCell("Name"), core.TextCell("Zip"), core.TextCell("Count")},
		{core.TextCell("Ann"), core.TextCell("01234"), core.TextCell("42")},
		{core.TextCell("Bob"), core.Cell{}, core.NumberCell(7.5)},
	}
	structure := core.DetectStructure(grid)

	data, err := c.Encode(grid, core.FormatXLSX, structure)
	require.NoError(t, err)

	f, err := excelize.OpenReader(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	typ, err := f.GetCellType(SheetName, "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ, "numeric text is written as a number")
	require.NoError(t, f.Close())

	back, err := c.DecodeBytes("out.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Name", "Zip", "Count"},
		{"Ann", "01234", "42"},
		{"Bob", "", "7.5"},
	}, back.Strings())
	assert.Equal(t, core.CellText, back[1][1].Kind)
	assert.Equal(t, core.CellNumber, back[1][2].Kind)
}

func TestXLSX_DateCells(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Joined"))
	require.NoError(t, f.SetCellValue(sheet, "A2", time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue(sheet, "A3", true))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	grid, err := New(0).DecodeBytes("dates.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Len(t, grid, 3)

	d := grid[1][0]
	require.Equal(t, core.CellDate, d.Kind)
	assert.Equal(t, 2024, d.Time.Year())
	assert.Equal(t, time.March, d.Time.Month())
	assert.Equal(t, 4, d.Time.Day())
	assert.Equal(t, "TRUE", grid[2][0].Text)
}

func TestEncode_CSV(t *testing.T) {
	grid := core.GridFromStrings([][]string{
		{"Name", "Note"},
		{"Smith, John", `say "hi"`},
		{"multi\nline", " leading space"},
	})
	out, err := New(0).Encode(grid, core.FormatCSV, core.StructureInfo{})
	require.NoError(t, err)
	assert.Equal(t, "Name,Note\n\"Smith, John\",\"say \"\"hi\"\"\"\n\"multi\nline\", leading space", string(out))
}

func TestEncode_JSONWithHeaders(t *testing.T) {
	grid := core.GridFromStrings([][]string{
		{"Name", "", "Name"},
		{"Ann", "x", "Anna"},
		{"Bob"},
	})
	out, err := New(0).Encode(grid, core.FormatJSON, core.StructureInfo{HasHeaders: true})
	require.NoError(t, err)

	assert.Equal(t, `[
  {
    "Name": "Anna",
    "Column2": "x"
  },
  {
    "Name": "Bob"
  }
]`, string(out))
}

func TestEncode_JSONWithoutHeaders(t *testing.T) {
	grid := core.GridFromStrings([][]string{{"1", "2"}, {"3"}})
	out, err := New(0).Encode(grid, core.FormatJSON, core.StructureInfo{})
	require.NoError(t, err)

	var rows []indexedRow
	require.NoError(t, json.Unmarshal(out, &rows))
	assert.Equal(t, []indexedRow{{Row: 1, Data: []string{"1", "2"}}, {Row: 2, Data: []string{"3"}}}, rows)
}

func TestEncode_UnknownFormat(t *testing.T) {
	_, err := New(0).Encode(nil, "pdf", core.StructureInfo{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 Bytes", FormatSize(0))
	assert.Equal(t, "512 Bytes", FormatSize(512))
	assert.Equal(t, "1.5 KB", FormatSize(1536))
	assert.Equal(t, "100 MB", FormatSize(DefaultMaxSize))
}
