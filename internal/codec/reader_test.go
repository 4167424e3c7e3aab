package codec

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBOMReader(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"with BOM", append([]byte{0xEF, 0xBB, 0xBF}, "a,b"...), "a,b"},
		{"without BOM", []byte("a,b"), "a,b"},
		{"empty", []byte{}, ""},
		{"only BOM", []byte{0xEF, 0xBB, 0xBF}, ""},
		{"short input", []byte("a"), "a"},
		{"partial BOM", []byte{0xEF, 0xBB, 'x', 'y'}, string([]byte{0xEF, 0xBB, 'x', 'y'})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newBOMReader(bytes.NewReader(tt.input)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestSanitizer(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"ascii", []byte("hello"), "hello"},
		{"multibyte", []byte("Zoë Ångström"), "Zoë Ångström"},
		{"invalid byte", []byte{'h', 'e', 0x80, 'l', 'o'}, "he?lo"},
		{"truncated at EOF", []byte{'o', 'k', 0xE2, 0x82}, "ok??"},
		{"empty", []byte{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newSanitizer(bytes.NewReader(tt.input)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestSanitizer_SplitRunes(t *testing.T) {
	// One byte per read forces every multi-byte rune across reads.
	input := "naïve café €5"
	got, err := io.ReadAll(newSanitizer(iotest.OneByteReader(strings.NewReader(input))))
	require.NoError(t, err)
	assert.Equal(t, input, string(got))
}

func TestCountingReader(t *testing.T) {
	input := strings.Repeat("x", 1000)
	r := NewCountingReader(strings.NewReader(input), int64(len(input)))

	buf := make([]byte, 100)
	for {
		_, err := r.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1000), r.BytesRead)
	assert.Equal(t, 100, r.Progress())

	assert.Zero(t, NewCountingReader(strings.NewReader("x"), 0).Progress())
}

func TestWrapText(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, 'h', 'e', 0x80, 'l', 'o')
	r := wrapText(bytes.NewReader(input), int64(len(input)))

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "he?lo", string(got))
	assert.Equal(t, int64(5), r.BytesRead)
}
