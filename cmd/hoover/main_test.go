package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/hoover/internal/store"
)

func setup(t *testing.T) (in, out string) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	in, out = t.TempDir(), t.TempDir()
	t.Setenv("SETTINGS_STORE", "memory")
	t.Setenv("OUTPUT_DIR", filepath.Join(out, "unused"))
	t.Setenv("S3_BUCKET", "")
	t.Setenv("PRESETS_FILE", "")

	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(in, name), []byte(body), 0o644))
	}
	write("people.csv", "Name,Email\njohn smith,JOHN@EXAMPLE.COM\n,\njohn smith,JOHN@EXAMPLE.COM\n")
	write("towns.tsv", "town\tzip\noslo\t0150\n")
	write("legacy.xls", "not really excel")
	return in, out
}

func TestRun_Single(t *testing.T) {
	in, out := setup(t)
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{
		"-preset", "contact", "-format", "csv", "-prefix", "", "-out", out,
		filepath.Join(in, "people.csv"),
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	matches, err := filepath.Glob(filepath.Join(out, "people_*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "Name,Email\nJohn Smith,john@example.com", string(data))

	report := stdout.String()
	assert.Contains(t, report, "Quality score")
	assert.Contains(t, report, "Rows")
	assert.Contains(t, report, "4 -> 2")
}

func TestRun_BatchZip(t *testing.T) {
	in, out := setup(t)
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{
		"-format", "json", "-zip", "-out", out,
		filepath.Join(in, "people.csv"),
		filepath.Join(in, "legacy.xls"),
		filepath.Join(in, "towns.tsv"),
	}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 files failed: legacy.xls")

	zips, err := filepath.Glob(filepath.Join(out, "cleaned_*.zip"))
	require.NoError(t, err)
	assert.Len(t, zips, 2)

	summary := stdout.String()
	assert.Contains(t, summary, "legacy.xls")
	assert.Contains(t, summary, "failed")
	assert.Contains(t, summary, "2 files processed, 1 failed")
}

func TestRun_Errors(t *testing.T) {
	in, _ := setup(t)
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), nil, &stdout, &stderr)
	assert.ErrorIs(t, err, errUsage)

	err = run(context.Background(), []string{"-settings", `{"nope":true}`, filepath.Join(in, "people.csv")}, &stdout, &stderr)
	assert.ErrorIs(t, err, store.ErrInvalidSettings)

	err = run(context.Background(), []string{filepath.Join(in, "missing.csv")}, &stdout, &stderr)
	assert.Error(t, err)
}

func TestParseFlags_Pointers(t *testing.T) {
	var stderr bytes.Buffer
	o, err := parseFlags([]string{"a.csv"}, &stderr)
	require.NoError(t, err)
	assert.Nil(t, o.zip)
	assert.Nil(t, o.prefix)

	o, err = parseFlags([]string{"-zip=false", "-prefix", "x_", "a.csv", "b.csv"}, &stderr)
	require.NoError(t, err)
	require.NotNil(t, o.zip)
	assert.False(t, *o.zip)
	assert.Equal(t, "x_", *o.prefix)
	assert.Equal(t, []string{"a.csv", "b.csv"}, o.files)
}
