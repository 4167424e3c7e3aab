// Package service is the application layer of the cleaning engine. It turns
// uploaded files into grids, runs them through the core pipeline, keeps the
// results in sessions, and encodes, names and stores exports.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/hoover/internal/codec"
	"github.com/JonMunkholm/hoover/internal/core"
	"github.com/JonMunkholm/hoover/internal/output"
	"github.com/JonMunkholm/hoover/internal/session"
	"github.com/JonMunkholm/hoover/internal/store"
)

// PreviewRows is how many rows of each grid a clean response previews.
const PreviewRows = 50

// DefaultPreset is applied when a request names no preset and sends no
// explicit settings.
const DefaultPreset = "basic"

// Config tunes a Service.
type Config struct {
	MaxFileSize  int64
	MaxJobs      int
	JobWait      time.Duration
	JobTimeout   time.Duration
	SessionTTL   time.Duration
	HistoryLimit int
}

// Service coordinates codec, cleaner, sessions, settings and export sink.
// It is safe for concurrent use.
type Service struct {
	cleaner  *core.Cleaner
	codec    *codec.Codec
	presets  *core.PresetRegistry
	sessions *session.Manager
	prefs    *store.Preferences
	sink     output.Sink
	limiter  *JobLimiter
	logger   *slog.Logger
	now      func() time.Time

	jobTimeout time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithCleaner replaces the default pipeline, e.g. to seed its random source.
func WithCleaner(c *core.Cleaner) Option {
	return func(s *Service) { s.cleaner = c }
}

// WithPresets replaces the process-wide preset registry.
func WithPresets(r *core.PresetRegistry) Option {
	return func(s *Service) { s.presets = r }
}

// WithSink sets where stored exports go. Without one, Store fails.
func WithSink(sink output.Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source used for export names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSessions replaces the session manager built from Config.
func WithSessions(m *session.Manager) Option {
	return func(s *Service) { s.sessions = m }
}

// New builds a Service persisting preferences in st.
func New(cfg Config, st store.Store, opts ...Option) *Service {
	s := &Service{
		codec:      codec.New(cfg.MaxFileSize),
		presets:    core.Presets,
		limiter:    NewJobLimiter(cfg.MaxJobs, cfg.JobWait),
		logger:     slog.Default(),
		now:        time.Now,
		jobTimeout: cfg.JobTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cleaner == nil {
		s.cleaner = core.NewCleaner(core.WithLogger(s.logger))
	}
	if s.sessions == nil {
		s.sessions = session.NewManager(cfg.SessionTTL, cfg.HistoryLimit)
	}
	s.prefs = store.NewPreferences(st, s.logger)
	return s
}

// Sessions exposes the session manager, e.g. to run its janitor.
func (s *Service) Sessions() *session.Manager { return s.sessions }

// Codec exposes the file codec.
func (s *Service) Codec() *codec.Codec { return s.codec }

// LimiterStatus reports job slot usage.
func (s *Service) LimiterStatus() LimiterStatus { return s.limiter.Status() }

// WaitForJobs blocks until running jobs finish or ctx is done.
func (s *Service) WaitForJobs(ctx context.Context) error { return s.limiter.WaitForDrain(ctx) }

// Presets lists every registered preset.
func (s *Service) Presets() []core.Preset { return s.presets.All() }

// Preset looks up one preset by name.
func (s *Service) Preset(name string) (core.Preset, error) {
	p, ok := s.presets.Get(name)
	if !ok {
		return core.Preset{}, fmt.Errorf("%w: %s", core.ErrUnknownPreset, name)
	}
	return p, nil
}

// resolveSettings picks the run settings: explicit settings win, then the
// named preset, then DefaultPreset.
func (s *Service) resolveSettings(preset string, explicit *core.Settings) (core.Settings, error) {
	if explicit != nil {
		return *explicit, nil
	}
	if preset == "" {
		preset = DefaultPreset
	}
	return s.presets.Apply(preset)
}

// withJob runs fn holding a job slot and, when configured, a deadline.
func (s *Service) withJob(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.limiter.Acquire(ctx); err != nil {
		return err
	}
	defer s.limiter.Release()

	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}
	return fn(ctx)
}

// ExportSettings returns stored export preferences or the defaults.
func (s *Service) ExportSettings(ctx context.Context) core.ExportSettings {
	return s.prefs.ExportSettings(ctx)
}

// SaveExportSettings stores export preferences.
func (s *Service) SaveExportSettings(ctx context.Context, es core.ExportSettings) error {
	return s.prefs.SaveExportSettings(ctx, es)
}

// Configurations lists saved configurations.
func (s *Service) Configurations(ctx context.Context) []core.Configuration {
	return s.prefs.Configurations(ctx)
}

// SaveConfiguration stores a named pair of cleaning and export settings.
func (s *Service) SaveConfiguration(ctx context.Context, name string, settings core.Settings, es core.ExportSettings) (core.Configuration, error) {
	cfg, err := s.prefs.SaveConfiguration(ctx, name, settings, es)
	if err != nil {
		return core.Configuration{}, err
	}
	s.logger.InfoContext(ctx, "configuration saved", "id", cfg.ID, "name", cfg.Name)
	return cfg, nil
}
