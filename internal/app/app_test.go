package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/hoover/internal/config"
	"github.com/JonMunkholm/hoover/internal/core"
	"github.com/JonMunkholm/hoover/internal/output"
	"github.com/JonMunkholm/hoover/internal/service"
)

func baseConfig(t *testing.T) *config.Config {
	return &config.Config{
		Store:   config.StoreConfig{Backend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "settings.db"), RetryAttempts: 1},
		Input:   config.InputConfig{MaxFileSize: 1 << 20},
		Output:  config.OutputConfig{Dir: t.TempDir()},
		Session: config.SessionConfig{TTL: time.Minute, HistoryLimit: 10},
		Jobs:    config.JobConfig{MaxConcurrent: 1, MaxWaitTime: time.Second},
	}
}

func TestBuild(t *testing.T) {
	cfg := baseConfig(t)
	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.IsType(t, &output.LocalSink{}, a.Sink)

	ctx := context.Background()
	resp, err := a.Service.Clean(ctx, service.CleanRequest{
		Upload: service.BytesUpload("people.csv", []byte("name,city\nann lee,oslo\n,\n")),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, 2, resp.Preview.CleanedRows, "basic preset drops the empty row")

	es := core.DefaultExportSettings()
	es.Format = core.FormatCSV
	require.NoError(t, a.Service.SaveExportSettings(ctx, es))
	assert.Equal(t, core.FormatCSV, a.Service.ExportSettings(ctx).Format)
}

func TestBuild_BadStore(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Store.Backend = "mongo"
	_, err := Build(context.Background(), cfg)
	assert.ErrorContains(t, err, "open settings store")
}

func TestBuild_MissingPresetsFile(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Presets.File = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := Build(context.Background(), cfg)
	assert.ErrorContains(t, err, "open presets file")
}

func TestLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("presets:\n  - name: crm\n    settings:\n      emails: true\n"), 0o644))

	r := core.NewPresetRegistry()
	require.NoError(t, LoadPresets(r, path))
	p, ok := r.Get("crm")
	require.True(t, ok)
	assert.True(t, p.Settings.Emails)

	assert.ErrorContains(t, LoadPresets(r, path), "already registered")
}

func TestNewSink_S3(t *testing.T) {
	sink, err := NewSink(context.Background(), &config.OutputConfig{
		S3Bucket:      "exports",
		S3Region:      "us-east-1",
		S3AccessKeyID: "AKIATEST",
		S3SecretKey:   "secret",
		S3Endpoint:    "http://localhost:9000",
	})
	require.NoError(t, err)
	assert.IsType(t, &output.S3Sink{}, sink)
}

func TestServiceConfig(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Jobs.Timeout = time.Minute
	sc := ServiceConfig(cfg)
	assert.Equal(t, int64(1<<20), sc.MaxFileSize)
	assert.Equal(t, 1, sc.MaxJobs)
	assert.Equal(t, time.Minute, sc.JobTimeout)
	assert.Equal(t, 10, sc.HistoryLimit)

	assert.Equal(t, "sqlite", StoreConfig(cfg).Backend)
}
