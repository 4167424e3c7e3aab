package web

import (
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/hoover/internal/core"
	"github.com/JonMunkholm/hoover/internal/store"
)

// maxSettingsBody bounds JSON preference bodies.
const maxSettingsBody = 64 << 10

// handleGetExportSettings returns the stored export preferences.
func (s *Server) handleGetExportSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ExportSettings(r.Context()))
}

// handlePutExportSettings replaces the stored export preferences. Omitted
// fields keep their current values.
func (s *Server) handlePutExportSettings(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	es := s.service.ExportSettings(r.Context())
	if err := decodeStrict(raw, &es); err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", store.ErrInvalidSettings, err))
		return
	}
	if err := s.service.SaveExportSettings(r.Context(), es); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, es)
}

// handleListConfigurations lists saved configurations.
func (s *Server) handleListConfigurations(w http.ResponseWriter, r *http.Request) {
	configs := s.service.Configurations(r.Context())
	if configs == nil {
		configs = []core.Configuration{}
	}
	writeJSON(w, http.StatusOK, configs)
}

// saveConfigurationRequest is the body of POST /api/configurations.
type saveConfigurationRequest struct {
	Name           string               `json:"name"`
	Settings       core.Settings        `json:"settings"`
	ExportSettings *core.ExportSettings `json:"exportSettings"`
}

// handleSaveConfiguration stores a named pair of cleaning and export
// settings. Export settings default to the stored preferences.
func (s *Server) handleSaveConfiguration(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req saveConfigurationRequest
	if err := decodeStrict(raw, &req); err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", store.ErrInvalidSettings, err))
		return
	}
	es := s.service.ExportSettings(r.Context())
	if req.ExportSettings != nil {
		es = *req.ExportSettings
	}

	cfg, err := s.service.SaveConfiguration(r.Context(), req.Name, req.Settings, es)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

// readBody reads a bounded request body.
func readBody(w http.ResponseWriter, r *http.Request) (string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSettingsBody))
	if err != nil {
		return "", fmt.Errorf("%w: %v", store.ErrInvalidSettings, err)
	}
	return string(body), nil
}
