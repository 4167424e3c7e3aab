package codec

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/JonMunkholm/hoover/internal/core"
)

// progressEvery is how many records are parsed between progress reports.
const progressEvery = 1000

// candidateDelimiters are tried, in order, when sniffing .txt and .csv files.
var candidateDelimiters = []rune{',', '\t', ';', '|'}

// decodeText parses delimited text into a grid of text and number cells.
func decodeText(r io.Reader, kind Kind, size int64, progress ProgressFunc) (core.Grid, error) {
	counter := wrapText(r, size)
	br := bufio.NewReaderSize(counter, sniffSize)

	head := peekHead(br)
	if bytes.IndexByte(head, 0) >= 0 {
		return nil, ErrEncoding
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.Comma = delimiterFor(kind, head)

	var grid core.Grid
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode csv: %w", err)
		}
		row := make(core.Row, len(rec))
		for i, field := range rec {
			row[i] = inferCell(field)
		}
		grid = append(grid, row)

		if progress != nil && len(grid)%progressEvery == 0 {
			progress(counter.Progress())
		}
	}
	return grid, nil
}

// delimiterFor picks the field separator. TSV is always tab; other text is
// sniffed from the first line, with comma winning ties.
func delimiterFor(kind Kind, head []byte) rune {
	if kind == KindTSV {
		return '\t'
	}
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}

	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

var plainNumber = regexp.MustCompile(`^-?(0|[1-9]\d{0,14})(\.\d{1,10})?$`)

// inferCell types a text field. Plain decimals that survive a round trip
// through float64 become numbers; everything else stays text so leading
// zeros and long digit strings are kept as typed. Text is NFC-normalized.
func inferCell(field string) core.Cell {
	if field == "" {
		return core.Cell{}
	}
	if plainNumber.MatchString(field) {
		if f, err := strconv.ParseFloat(field, 64); err == nil && strconv.FormatFloat(f, 'f', -1, 64) == field {
			return core.NumberCell(f)
		}
	}
	return textCell(field)
}

// textCell returns an NFC-normalized text cell.
func textCell(s string) core.Cell {
	return core.TextCell(norm.NFC.String(s))
}

// encodeCSV writes comma-separated text with "\n" row breaks. A field is
// quoted only when it holds a quote, comma or newline.
func encodeCSV(grid core.Grid) []byte {
	var b strings.Builder
	for i, row := range grid {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, c := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteField(c.String()))
		}
	}
	return []byte(b.String())
}

func quoteField(s string) string {
	if !strings.ContainsAny(s, "\",\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
