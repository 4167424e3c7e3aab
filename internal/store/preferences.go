package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/hoover/internal/core"
)

// Keys of the documents kept in a Store.
const (
	KeyExportSettings = "export_settings"
	KeyConfigurations = "configurations"
)

// ErrInvalidSettings rejects export settings or configurations that cannot
// be saved.
var ErrInvalidSettings = errors.New("invalid settings")

// Preferences reads and writes the typed settings documents. Reads never
// fail: a missing, unreadable or corrupt document yields the defaults.
type Preferences struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	// mu serializes read-modify-write of the configuration list.
	mu sync.Mutex
}

// NewPreferences wraps s. A nil logger uses slog.Default.
func NewPreferences(s Store, logger *slog.Logger) *Preferences {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preferences{store: s, logger: logger, now: time.Now}
}

// ExportSettings returns the stored export preferences merged over the
// defaults, so fields missing from an older document keep their default.
func (p *Preferences) ExportSettings(ctx context.Context) core.ExportSettings {
	es := core.DefaultExportSettings()
	raw, ok := p.load(ctx, KeyExportSettings)
	if !ok {
		return es
	}
	if err := json.Unmarshal([]byte(raw), &es); err != nil {
		p.logger.WarnContext(ctx, "corrupt export settings, using defaults", "error", err)
		return core.DefaultExportSettings()
	}
	if !core.ValidFormat(es.Format) {
		es.Format = core.FormatXLSX
	}
	return es
}

// SaveExportSettings validates and stores es.
func (p *Preferences) SaveExportSettings(ctx context.Context, es core.ExportSettings) error {
	if !core.ValidFormat(es.Format) {
		return fmt.Errorf("%w: unknown export format %q", ErrInvalidSettings, es.Format)
	}
	return p.save(ctx, KeyExportSettings, es)
}

// Configurations returns every saved configuration in save order.
func (p *Preferences) Configurations(ctx context.Context) []core.Configuration {
	raw, ok := p.load(ctx, KeyConfigurations)
	if !ok {
		return []core.Configuration{}
	}
	var list []core.Configuration
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		p.logger.WarnContext(ctx, "corrupt configurations, ignoring", "error", err)
		return []core.Configuration{}
	}
	return list
}

// Configuration finds a saved configuration by id.
func (p *Preferences) Configuration(ctx context.Context, id string) (core.Configuration, bool) {
	for _, c := range p.Configurations(ctx) {
		if c.ID == id {
			return c, true
		}
	}
	return core.Configuration{}, false
}

// SaveConfiguration appends a named configuration and returns it with its
// assigned id and timestamp.
func (p *Preferences) SaveConfiguration(ctx context.Context, name string, s core.Settings, es core.ExportSettings) (core.Configuration, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Configuration{}, fmt.Errorf("%w: configuration name is required", ErrInvalidSettings)
	}
	if !core.ValidFormat(es.Format) {
		return core.Configuration{}, fmt.Errorf("%w: unknown export format %q", ErrInvalidSettings, es.Format)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	cfg := core.Configuration{
		ID:             uuid.NewString(),
		Name:           name,
		Timestamp:      p.now().UTC().Format(time.RFC3339Nano),
		Settings:       s,
		ExportSettings: es,
	}
	list := append(p.Configurations(ctx), cfg)
	if err := p.save(ctx, KeyConfigurations, list); err != nil {
		return core.Configuration{}, err
	}
	return cfg, nil
}

func (p *Preferences) load(ctx context.Context, key string) (string, bool) {
	raw, ok, err := p.store.Get(ctx, key)
	if err != nil {
		p.logger.WarnContext(ctx, "settings read failed, using defaults", "key", key, "error", err)
		return "", false
	}
	return raw, ok
}

func (p *Preferences) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := p.store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
