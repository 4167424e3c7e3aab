// Package codec converts between file bytes and core grids.
//
// Inputs are delimited text (.csv, .tsv, .txt) or Excel workbooks (.xlsx).
// Legacy .xls workbooks are rejected. Outputs are csv, xlsx or json.
package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/hoover/internal/core"
)

// DefaultMaxSize is the largest input accepted when no limit is configured.
const DefaultMaxSize = 100 << 20

// Kind is an input file type.
type Kind string

const (
	KindCSV  Kind = "csv"
	KindTSV  Kind = "tsv"
	KindText Kind = "txt"
	KindXLSX Kind = "xlsx"
)

var (
	// ErrUnsupportedFormat is returned by Encode for unknown export formats.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrEncoding is returned when a text input holds binary data.
	ErrEncoding = errors.New("encoding error: file contains binary data")
)

// KindOf maps a file name to its input kind by extension.
func KindOf(name string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return KindCSV, true
	case ".tsv":
		return KindTSV, true
	case ".txt":
		return KindText, true
	case ".xlsx":
		return KindXLSX, true
	}
	return "", false
}

// ProgressFunc receives load progress as a percentage.
type ProgressFunc func(percent int)

// Codec decodes inputs and encodes cleaned grids.
type Codec struct {
	maxSize int64
}

// New creates a Codec rejecting inputs larger than maxSize bytes.
// A maxSize of zero or less means DefaultMaxSize.
func New(maxSize int64) *Codec {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Codec{maxSize: maxSize}
}

// MaxSize returns the input size limit in bytes.
func (c *Codec) MaxSize() int64 {
	return c.maxSize
}

// Validate rejects unsupported file types and oversized inputs before any
// bytes are read.
func (c *Codec) Validate(name string, size int64) error {
	if _, ok := KindOf(name); !ok {
		return &core.ValidationError{File: name, Err: fmt.Errorf("%w: %s", core.ErrUnsupportedType, filepath.Ext(name))}
	}
	if size > c.maxSize {
		return &core.ValidationError{
			File: name,
			Err:  fmt.Errorf("%w: %s exceeds %s", core.ErrFileTooLarge, FormatSize(size), FormatSize(c.maxSize)),
		}
	}
	return nil
}

// Decode reads one input into a grid. size is the expected byte count, or
// 0 if unknown; progress may be nil.
func (c *Codec) Decode(name string, r io.Reader, size int64, progress ProgressFunc) (core.Grid, error) {
	if err := c.Validate(name, size); err != nil {
		return nil, err
	}
	kind, _ := KindOf(name)

	// One extra byte detects streams longer than announced.
	limited := &io.LimitedReader{R: r, N: c.maxSize + 1}

	var (
		grid core.Grid
		err  error
	)
	switch kind {
	case KindXLSX:
		grid, err = decodeXLSX(limited)
	default:
		grid, err = decodeText(limited, kind, size, progress)
	}
	if limited.N <= 0 {
		return nil, &core.ValidationError{File: name, Err: fmt.Errorf("%w: more than %s", core.ErrFileTooLarge, FormatSize(c.maxSize))}
	}
	if err != nil {
		return nil, &core.ParseError{File: name, Err: err}
	}
	if len(grid) == 0 {
		return nil, &core.ParseError{File: name, Err: core.ErrEmptyGrid}
	}
	if progress != nil {
		progress(100)
	}
	return grid, nil
}

// DecodeBytes is Decode over an in-memory file.
func (c *Codec) DecodeBytes(name string, data []byte) (core.Grid, error) {
	return c.Decode(name, bytes.NewReader(data), int64(len(data)), nil)
}

// Encode renders grid in the given export format. structure decides whether
// JSON output maps rows onto header keys.
func (c *Codec) Encode(grid core.Grid, format string, structure core.StructureInfo) ([]byte, error) {
	switch format {
	case core.FormatCSV:
		return encodeCSV(grid), nil
	case core.FormatXLSX:
		return encodeXLSX(grid, structure)
	case core.FormatJSON:
		return encodeJSON(grid, structure)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// ContentType returns the MIME type for an export format or archive.
func ContentType(format string) string {
	switch format {
	case core.FormatCSV:
		return "text/csv; charset=utf-8"
	case core.FormatJSON:
		return "application/json"
	case core.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "zip":
		return "application/zip"
	}
	return "application/octet-stream"
}

// FormatSize renders a byte count the way upload logs show it, e.g. "1.5 MB".
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	return s + " " + units[i]
}

// sniffSize is how much of a text input is inspected for the delimiter.
const sniffSize = 8 << 10

// peekHead returns up to sniffSize leading bytes without consuming them.
func peekHead(br *bufio.Reader) []byte {
	head, _ := br.Peek(sniffSize)
	return head
}
