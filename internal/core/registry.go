package core

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnknownPreset is returned when a preset name is not registered.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a named bundle of Settings.
type Preset struct {
	Name     string   `json:"name" yaml:"name"`
	Label    string   `json:"label" yaml:"label"`
	Settings Settings `json:"settings" yaml:"settings"`
	BuiltIn  bool     `json:"builtIn" yaml:"-"`
}

// PresetRegistry holds the presets available to runs.
type PresetRegistry struct {
	mu      sync.RWMutex
	presets map[string]Preset
}

// NewPresetRegistry returns a registry seeded with the built-in presets.
func NewPresetRegistry() *PresetRegistry {
	r := &PresetRegistry{presets: make(map[string]Preset)}
	for _, p := range builtinPresets() {
		r.Register(p)
	}
	return r
}

// Presets is the process-wide registry used by ApplyPreset.
var Presets = NewPresetRegistry()

// Register adds a preset.
// Panics if a preset with the same name is already registered.
func (r *PresetRegistry) Register(p Preset) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.presets[p.Name]; exists {
		panic(fmt.Sprintf("preset already registered: %s", p.Name))
	}
	r.presets[p.Name] = p
}

// Get returns a preset by name.
func (r *PresetRegistry) Get(name string) (Preset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.presets[name]
	return p, ok
}

// All returns every preset, built-ins first, then by name.
func (r *PresetRegistry) All() []Preset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Preset, 0, len(r.presets))
	for _, p := range r.presets {
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].BuiltIn != result[j].BuiltIn {
			return result[i].BuiltIn
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// Count returns the number of registered presets.
func (r *PresetRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.presets)
}

// Apply returns the settings of the named preset.
func (r *PresetRegistry) Apply(name string) (Settings, error) {
	p, ok := r.Get(name)
	if !ok {
		return Settings{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return p.Settings, nil
}

// presetFile is the YAML layout of a custom presets file.
type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// LoadYAML registers the presets listed in a YAML document. Entries whose
// name collides with an existing preset are rejected.
func (r *PresetRegistry) LoadYAML(src io.Reader) (int, error) {
	var f presetFile
	if err := yaml.NewDecoder(src).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("decode presets: %w", err)
	}

	for i, p := range f.Presets {
		if p.Name == "" {
			return i, fmt.Errorf("preset %d: name is required", i)
		}
		if _, exists := r.Get(p.Name); exists {
			return i, fmt.Errorf("preset %q: already registered", p.Name)
		}
		p.BuiltIn = false
		r.Register(p)
	}
	return len(f.Presets), nil
}

// ApplyPreset returns the settings of a preset in the process-wide registry.
func ApplyPreset(name string) (Settings, error) {
	return Presets.Apply(name)
}

func builtinPresets() []Preset {
	return []Preset{
		{
			Name:    "basic",
			Label:   "Basic Clean",
			BuiltIn: true,
			Settings: Settings{
				Capitalize:    true,
				Punctuation:   true,
				Spaces:        true,
				EmptyRows:     true,
				PreserveNames: true,
			},
		},
		{
			Name:    "contact",
			Label:   "Contact List",
			BuiltIn: true,
			Settings: Settings{
				Capitalize:    true,
				Punctuation:   true,
				Spaces:        true,
				Phone:         true,
				Emails:        true,
				EmptyRows:     true,
				EmptyColumns:  true,
				Dedupe:        true,
				MarkInvalid:   true,
				PreserveNames: true,
			},
		},
		{
			Name:    "export",
			Label:   "Export Ready",
			BuiltIn: true,
			Settings: Settings{
				Capitalize:    true,
				Punctuation:   true,
				Spaces:        true,
				Phone:         true,
				Dates:         true,
				Emails:        true,
				EmptyRows:     true,
				EmptyColumns:  true,
				Dedupe:        true,
				PreserveNames: true,
				StrictDates:   true,
			},
		},
		{
			Name:    "sensitive",
			Label:   "Sensitive Data",
			BuiltIn: true,
			Settings: Settings{
				Capitalize:    true,
				Punctuation:   true,
				Spaces:        true,
				EmptyRows:     true,
				EmptyColumns:  true,
				PreserveNames: true,
				Anonymize:     true,
			},
		},
		{
			Name:    "custom",
			Label:   "Custom",
			BuiltIn: true,
		},
	}
}
