package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/hoover/internal/archive"
	"github.com/JonMunkholm/hoover/internal/codec"
	"github.com/JonMunkholm/hoover/internal/core"
	"github.com/JonMunkholm/hoover/internal/logging"
	"github.com/JonMunkholm/hoover/internal/service"
	"github.com/JonMunkholm/hoover/internal/store"
)

// formMemory is how much of a multipart body is held in memory before
// parts spill to temporary files.
const formMemory = 32 << 20

// handleListPresets lists every registered preset.
func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Presets())
}

// handleGetPreset returns one preset by name.
func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.Preset(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleClean cleans one uploaded file into a new session.
//
// Form fields: file (required), preset, settings (JSON object of toggles).
// With "Accept: text/event-stream" progress is streamed as SSE and the
// response arrives as a final "result" event.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r, 1); err != nil {
		respondError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		respondError(w, r, &core.ValidationError{File: "upload", Err: core.ErrNoFile})
		return
	}
	settings, err := parseSettings(r.FormValue("settings"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	req := service.CleanRequest{
		Upload:   formUpload(headers[0]),
		Preset:   r.FormValue("preset"),
		Settings: settings,
	}
	logging.FromContext(r.Context()).Info("clean requested", "file", req.Upload.Name, "bytes", req.Upload.Size)

	if wantsEventStream(r) {
		sse, err := newEventStream(w)
		if err != nil {
			respondError(w, r, err)
			return
		}
		req.Progress = sse.progress
		resp, err := s.service.Clean(r.Context(), req)
		if err != nil {
			sse.fail(err)
			return
		}
		sse.send("result", resp)
		return
	}

	resp, err := s.service.Clean(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleBatch cleans every uploaded file with one set of settings.
//
// Form fields: files (one or more), preset, settings, export (JSON export
// settings). Query: store=true sends every artifact to the output sink,
// download=zip returns the artifacts packed into one archive instead of
// the JSON summary.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	headers, err := s.batchFiles(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	settings, err := parseSettings(r.FormValue("settings"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	export, err := parseExportSettings(r.FormValue("export"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	req := service.BatchRequest{
		Preset:   r.FormValue("preset"),
		Settings: settings,
		Export:   export,
		Store:    queryBool(r, "store"),
	}
	for _, fh := range headers {
		req.Files = append(req.Files, formUpload(fh))
	}

	download := r.URL.Query().Get("download") == "zip"
	if wantsEventStream(r) && !download {
		sse, err := newEventStream(w)
		if err != nil {
			respondError(w, r, err)
			return
		}
		req.Progress = sse.progress
		resp, err := s.service.Batch(r.Context(), req)
		if err != nil {
			sse.fail(err)
			return
		}
		sse.send("result", resp)
		return
	}

	resp, err := s.service.Batch(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !download {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	packed, err := archive.Pack(batchMembers(resp.Artifacts))
	if err != nil {
		respondError(w, r, &core.ExportError{File: "batch", Err: err})
		return
	}
	w.Header().Set("X-Batch-Success", strconv.Itoa(resp.Success))
	w.Header().Set("X-Batch-Failed", strconv.Itoa(resp.Failed))
	writeAttachment(w, "cleaned_batch.zip", codec.ContentType("zip"), packed)
}

// parseForm limits the body to maxFiles inputs of the configured size and
// parses it as multipart.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request, maxFiles int) error {
	limit := s.cfg.Input.MaxFileSize*int64(maxFiles) + formMemory
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(formMemory); err != nil {
		var mb *http.MaxBytesError
		if errors.As(err, &mb) {
			return &core.ValidationError{File: "upload", Err: core.ErrFileTooLarge}
		}
		return &core.ValidationError{File: "upload", Err: fmt.Errorf("%w: %v", core.ErrNoFile, err)}
	}
	return nil
}

// batchFiles parses a batch form and returns its file parts.
func (s *Server) batchFiles(w http.ResponseWriter, r *http.Request) ([]*multipart.FileHeader, error) {
	if err := s.parseForm(w, r, s.cfg.Jobs.MaxConcurrent*8); err != nil {
		return nil, err
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		_ = r.MultipartForm.RemoveAll()
		return nil, &core.ValidationError{File: "batch", Err: core.ErrNoFile}
	}
	return headers, nil
}

// formUpload adapts a multipart file part to a service upload.
func formUpload(fh *multipart.FileHeader) service.Upload {
	return service.Upload{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// batchMembers names every artifact inside the download archive. Clashing
// names get a numeric prefix.
func batchMembers(artifacts []*service.Artifact) map[string][]byte {
	files := make(map[string][]byte, len(artifacts))
	for i, a := range artifacts {
		name := a.Name
		if _, taken := files[name]; taken {
			name = fmt.Sprintf("%d_%s", i+1, name)
		}
		files[name] = a.Data
	}
	return files
}

// parseSettings decodes an optional JSON settings object. Unknown keys are
// rejected so a typo cannot silently disable a toggle.
func parseSettings(raw string) (*core.Settings, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var settings core.Settings
	if err := decodeStrict(raw, &settings); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidSettings, err)
	}
	return &settings, nil
}

// parseExportSettings decodes optional export settings on top of the
// defaults.
func parseExportSettings(raw string) (*core.ExportSettings, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	es := core.DefaultExportSettings()
	if err := decodeStrict(raw, &es); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidSettings, err)
	}
	if !core.ValidFormat(es.Format) {
		return nil, fmt.Errorf("%w: %s", codec.ErrUnsupportedFormat, es.Format)
	}
	return &es, nil
}

func decodeStrict(raw string, v any) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// queryBool reads a boolean query parameter; anything unparsable is false.
func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

// writeAttachment sends data as a file download.
func writeAttachment(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
