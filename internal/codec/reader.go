package codec

// reader.go holds the io.Reader wrappers applied to delimited text before
// parsing:
//
//   - bomReader drops a leading UTF-8 byte order mark
//   - sanitizer replaces invalid UTF-8 bytes with '?'
//   - CountingReader tracks bytes consumed for load progress
//
// Use wrapText to apply them in order.

import (
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomReader skips the UTF-8 BOM Windows tools like to prepend.
type bomReader struct {
	r       io.Reader
	checked bool
	head    []byte
}

func newBOMReader(r io.Reader) *bomReader {
	return &bomReader{r: r}
}

func (b *bomReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		buf := make([]byte, len(utf8BOM))
		n, err := io.ReadFull(b.r, buf)
		switch {
		case err == io.ErrUnexpectedEOF || err == io.EOF:
			err = nil
		case err != nil:
			return 0, err
		}
		if !bytes.Equal(buf[:n], utf8BOM) {
			b.head = buf[:n]
		}
	}

	if len(b.head) > 0 {
		n := copy(p, b.head)
		b.head = b.head[n:]
		return n, nil
	}
	return b.r.Read(p)
}

// sanitizer rewrites invalid UTF-8 bytes to '?' as data streams through.
// A multi-byte sequence split across reads is held back until the next read.
type sanitizer struct {
	r       io.Reader
	pending []byte
}

func newSanitizer(r io.Reader) *sanitizer {
	return &sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	// p must have room for held bytes plus at least one new byte.
	if len(p) <= len(s.pending) {
		n := copy(p, s.pending)
		s.pending = s.pending[n:]
		return n, nil
	}

	off := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[off:])
	n += off
	if n == 0 {
		return 0, err
	}
	if asciiOnly(p[:n]) {
		return n, err
	}
	return s.clean(p[:n], err == io.EOF), err
}

func asciiOnly(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// clean sanitizes data in place and returns how many bytes are ready.
// Unless atEOF, an incomplete trailing sequence moves to pending.
func (s *sanitizer) clean(data []byte, atEOF bool) int {
	w := 0
	for i := 0; i < len(data); {
		if !atEOF && truncatedRune(data[i:]) {
			s.pending = append(s.pending, data[i:]...)
			return w
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			i++
			continue
		}
		copy(data[w:], data[i:i+size])
		w += size
		i += size
	}
	return w
}

// truncatedRune reports whether data is the start of a valid multi-byte
// sequence that has been cut short.
func truncatedRune(data []byte) bool {
	if len(data) == 0 || len(data) >= utf8.UTFMax || utf8.FullRune(data) {
		return false
	}
	return data[0] >= 0xC0
}

// CountingReader tracks bytes read for progress reporting.
type CountingReader struct {
	r         io.Reader
	BytesRead int64
	Total     int64 // 0 when unknown
}

// NewCountingReader wraps r; total may be 0 if the size is unknown.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{r: r, Total: total}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage, 0 when the total is
// unknown.
func (c *CountingReader) Progress() int {
	if c.Total <= 0 {
		return 0
	}
	pct := int(c.BytesRead * 100 / c.Total)
	return min(pct, 100)
}

// wrapText applies BOM stripping, then UTF-8 sanitizing, then counting.
func wrapText(r io.Reader, total int64) *CountingReader {
	return NewCountingReader(newSanitizer(newBOMReader(r)), total)
}
