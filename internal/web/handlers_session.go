package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/hoover/internal/core"
	"github.com/JonMunkholm/hoover/internal/logging"
	"github.com/JonMunkholm/hoover/internal/service"
	"github.com/JonMunkholm/hoover/internal/store"
)

// defaultRowLimit caps /rows when no limit is given.
const defaultRowLimit = 500

// handleListSessions summarizes every live session.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Sessions().List())
}

// handleGetSession summarizes one session.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSessionRows returns rows of the session's current grid.
// Query: limit (default 500, 0 for all).
func (s *Server) handleSessionRows(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultRowLimit)
	rows, err := s.service.Rows(chi.URLParam(r, "sessionID"), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows, "count": len(rows)})
}

// handleDeleteSession discards a session.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteSession(chi.URLParam(r, "sessionID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUndo moves a session back one history entry.
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	resp, err := s.service.Undo(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRedo moves a session forward one history entry.
func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	resp, err := s.service.Redo(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleExport encodes the session's current grid.
//
// Query: format, zip, prefix override the stored export settings;
// store=true sends the file to the output sink and returns its location
// instead of the file itself.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	q := r.URL.Query()

	req := service.ExportRequest{SessionID: id, Format: q.Get("format")}
	if v := q.Get("zip"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, r, fmt.Errorf("%w: zip=%q", store.ErrInvalidSettings, v))
			return
		}
		req.Compress = &b
	}
	if q.Has("prefix") {
		p := q.Get("prefix")
		req.Prefix = &p
	}

	ctx := core.ContextWithSessionID(r.Context(), id)
	a, err := s.service.Export(ctx, req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if !queryBool(r, "store") {
		writeAttachment(w, a.Name, a.ContentType, a.Data)
		return
	}

	loc, err := s.service.Store(ctx, a)
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.WithFields(ctx, "location", loc).Info("export stored")
	writeJSON(w, http.StatusCreated, map[string]any{
		"name":     a.Name,
		"location": loc,
		"rows":     a.Rows,
		"bytes":    len(a.Data),
	})
}

// parseIntParam parses a non-negative integer query parameter with a
// default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}
