package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPack(t *testing.T) {
	files := map[string][]byte{
		"b_2024-03-04-10-00-00.csv": []byte("x,y\n1,2"),
		"a.json":                    []byte(`[]`),
	}
	data, err := Pack(files)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "a.json", zr.File[0].Name)
	assert.Equal(t, "b_2024-03-04-10-00-00.csv", zr.File[1].Name)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "x,y\n1,2", string(got))
}

func TestPackAt_Deterministic(t *testing.T) {
	at := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)
	files := map[string][]byte{"one.csv": []byte("a"), "two.csv": []byte("b")}

	first, err := PackAt(files, at)
	require.NoError(t, err)
	second, err := PackAt(files, at)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPack_Empty(t *testing.T) {
	_, err := Pack(nil)
	assert.ErrorIs(t, err, ErrEmpty)
}
