// Package app wires configuration into a ready cleaning service. Both the
// HTTP server and the command-line tool build their service here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/hoover/internal/config"
	"github.com/JonMunkholm/hoover/internal/core"
	"github.com/JonMunkholm/hoover/internal/output"
	"github.com/JonMunkholm/hoover/internal/service"
	"github.com/JonMunkholm/hoover/internal/store"
)

// App is a built service plus the resources it holds open.
type App struct {
	Service *service.Service
	Store   store.Store
	Sink    output.Sink
}

// Build opens the settings store, loads extra presets, and picks the
// export sink described by cfg. Close releases what Build opened.
func Build(ctx context.Context, cfg *config.Config, opts ...service.Option) (*App, error) {
	st, err := store.Open(ctx, StoreConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}
	slog.Info("settings store ready", "backend", cfg.Store.Backend)

	presets := core.Presets
	if cfg.Presets.File != "" {
		if err := LoadPresets(presets, cfg.Presets.File); err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	sink, err := NewSink(ctx, &cfg.Output)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	base := []service.Option{
		service.WithPresets(presets),
		service.WithSink(sink),
		service.WithLogger(slog.Default()),
	}
	svc := service.New(ServiceConfig(cfg), st, append(base, opts...)...)

	return &App{Service: svc, Store: st, Sink: sink}, nil
}

// Close releases the settings store.
func (a *App) Close() error {
	return a.Store.Close()
}

// StoreConfig maps the store section onto store.Config.
func StoreConfig(cfg *config.Config) store.Config {
	return store.Config{
		Backend:        cfg.Store.Backend,
		SQLitePath:     cfg.Store.SQLitePath,
		PostgresURL:    cfg.Store.PostgresURL,
		RedisURL:       cfg.Store.RedisURL,
		ConnectTimeout: cfg.Store.ConnectTimeout,
		RetryAttempts:  cfg.Store.RetryAttempts,
		RetryInterval:  cfg.Store.RetryInterval,
	}
}

// ServiceConfig maps the input, job and session sections onto
// service.Config.
func ServiceConfig(cfg *config.Config) service.Config {
	return service.Config{
		MaxFileSize:  cfg.Input.MaxFileSize,
		MaxJobs:      cfg.Jobs.MaxConcurrent,
		JobWait:      cfg.Jobs.MaxWaitTime,
		JobTimeout:   cfg.Jobs.Timeout,
		SessionTTL:   cfg.Session.TTL,
		HistoryLimit: cfg.Session.HistoryLimit,
	}
}

// NewSink returns an S3 sink when a bucket is configured, otherwise a
// local directory sink.
func NewSink(ctx context.Context, cfg *config.OutputConfig) (output.Sink, error) {
	if !cfg.UseS3() {
		slog.Info("exports stored locally", "dir", cfg.Dir)
		return output.NewLocalSink(cfg.Dir), nil
	}

	sink, err := output.NewS3Sink(ctx, output.S3Config{
		Bucket:         cfg.S3Bucket,
		Region:         cfg.S3Region,
		Prefix:         cfg.S3Prefix,
		AccessKeyID:    cfg.S3AccessKeyID,
		SecretKey:      cfg.S3SecretKey,
		Endpoint:       cfg.S3Endpoint,
		ForcePathStyle: cfg.S3ForcePathStyle,
		UploadTimeout:  cfg.S3UploadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 sink: %w", err)
	}
	slog.Info("exports stored in s3", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
	return sink, nil
}

// LoadPresets registers the presets in a YAML file.
func LoadPresets(r *core.PresetRegistry, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open presets file: %w", err)
	}
	defer f.Close()

	n, err := r.LoadYAML(f)
	if err != nil {
		return fmt.Errorf("load presets from %s: %w", path, err)
	}
	slog.Info("presets loaded", "file", path, "count", n, "total", r.Count())
	return nil
}
