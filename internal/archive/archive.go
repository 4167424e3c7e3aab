// Package archive packs export files into a single zip.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrEmpty is returned when there is nothing to pack.
var ErrEmpty = errors.New("archive: no files to pack")

// Pack zips files into one deflated archive. Members are written in name
// order so the same input always yields the same archive.
func Pack(files map[string][]byte) ([]byte, error) {
	return PackAt(files, time.Now())
}

// PackAt is Pack with an explicit modification time for every member.
func PackAt(files map[string][]byte, modified time.Time) ([]byte, error) {
	if len(files) == 0 {
		return nil, ErrEmpty
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("archive: add %s: %w", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, fmt.Errorf("archive: write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("archive: close: %w", err)
	}
	return buf.Bytes(), nil
}
