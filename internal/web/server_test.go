package web

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/hoover/internal/codec"
	"github.com/JonMunkholm/hoover/internal/config"
	"github.com/JonMunkholm/hoover/internal/core"
	"github.com/JonMunkholm/hoover/internal/output"
	"github.com/JonMunkholm/hoover/internal/service"
	"github.com/JonMunkholm/hoover/internal/session"
	"github.com/JonMunkholm/hoover/internal/store"
)

var stamp = time.Date(2024, time.March, 4, 9, 5, 7, 0, time.UTC)

const contacts = "Name,Email,Phone\n" +
	"john smith,John.Doe@EXAMPLE.com,5551234567\n" +
	",,\n" +
	"john smith,John.Doe@EXAMPLE.com,5551234567\n" +
	"jane roe,not-an-email,15551234567\n"

func testConfig() *config.Config {
	return &config.Config{
		Input: config.InputConfig{MaxFileSize: 1 << 20},
		Jobs:  config.JobConfig{MaxConcurrent: 2, MaxWaitTime: time.Second},
		Rate:  config.RateLimitConfig{Enabled: false, RequestsPerMinute: 100, CleanLimit: 10},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	svc := service.New(service.Config{MaxFileSize: cfg.Input.MaxFileSize, MaxJobs: 2, JobWait: time.Second},
		store.NewMemory(),
		service.WithCleaner(core.NewCleaner(core.WithRandom(core.NewSeededRandom(7)))),
		service.WithClock(func() time.Time { return stamp }),
		service.WithSink(output.NewLocalSink(dir)),
	)
	s := NewServer(svc, cfg)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, dir
}

type part struct {
	field, name, body string
}

// multipartRequest builds a POST with file parts and plain fields.
func multipartRequest(t *testing.T, target string, files []part, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.body))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func cleanViaAPI(t *testing.T, s *Server) service.CleanResponse {
	t.Helper()
	rec := serve(s, multipartRequest(t, "/api/clean",
		[]part{{"file", "contacts.csv", contacts}},
		map[string]string{"preset": "contact"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[service.CleanResponse](t, rec)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
}

func TestPresets(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/presets", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	presets := decode[[]core.Preset](t, rec)
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	assert.Contains(t, names, "basic")
	assert.Contains(t, names, "contact")

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/presets/contact", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[core.Preset](t, rec).Settings.Emails)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/presets/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "CLN002", decode[ErrorResponse](t, rec).Code)
}

func TestCleanUndoRedoExport(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	resp := cleanViaAPI(t, s)
	base := "/api/sessions/" + resp.SessionID

	assert.Equal(t, [][]string{
		{"Name", "Email", "Phone"},
		{"John Smith", "john.doe@example.com", "(555) 123-4567"},
		{"Jane Roe", "[INVALID] not-an-email", "+1 (555) 123-4567"},
	}, resp.Preview.Cleaned)

	rec := serve(s, httptest.NewRequest(http.MethodGet, base, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[session.View](t, rec)
	assert.Equal(t, "contacts.csv", view.FileName)
	assert.True(t, view.CanUndo)

	rec = serve(s, httptest.NewRequest(http.MethodGet, base+"/rows?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["count"])

	rec = serve(s, httptest.NewRequest(http.MethodGet, base+"/export?format=csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, codec.ContentType(core.FormatCSV), rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "cleaned_contacts_2024-03-04-09-05-07.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Name,Email,Phone\nJohn Smith,"))

	rec = serve(s, httptest.NewRequest(http.MethodPost, base+"/undo", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.LabelOriginal, decode[service.StepResponse](t, rec).Label)

	rec = serve(s, httptest.NewRequest(http.MethodPost, base+"/undo", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SES002", decode[ErrorResponse](t, rec).Code)

	rec = serve(s, httptest.NewRequest(http.MethodPost, base+"/redo", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, base+"/export?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EXP001", decode[ErrorResponse](t, rec).Code)

	rec = serve(s, httptest.NewRequest(http.MethodDelete, base, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, base, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SES001", decode[ErrorResponse](t, rec).Code)
}

func TestExport_ZipAndStore(t *testing.T) {
	s, dir := newTestServer(t, testConfig())
	resp := cleanViaAPI(t, s)
	base := "/api/sessions/" + resp.SessionID

	rec := serve(s, httptest.NewRequest(http.MethodGet, base+"/export?format=json&zip=true&prefix=", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "contacts_2024-03-04-09-05-07.zip")

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "contacts_2024-03-04-09-05-07.json", zr.File[0].Name)

	rec = serve(s, httptest.NewRequest(http.MethodGet, base+"/export?format=csv&store=true", nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "cleaned_contacts_2024-03-04-09-05-07.csv", body["name"])
	assert.True(t, strings.HasPrefix(body["location"].(string), dir))

	rec = serve(s, httptest.NewRequest(http.MethodGet, base+"/export?zip=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CLN003", decode[ErrorResponse](t, rec).Code)
}

func TestClean_Errors(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	tests := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{
			name:   "no file",
			req:    multipartRequest(t, "/api/clean", nil, map[string]string{"preset": "basic"}),
			status: http.StatusBadRequest,
			code:   "FILE004",
		},
		{
			name:   "legacy excel",
			req:    multipartRequest(t, "/api/clean", []part{{"file", "old.xls", "x"}}, nil),
			status: http.StatusBadRequest,
			code:   "FILE002",
		},
		{
			name:   "bad settings",
			req:    multipartRequest(t, "/api/clean", []part{{"file", "a.csv", "a\n"}}, map[string]string{"settings": `{"capitalise":true}`}),
			status: http.StatusBadRequest,
			code:   "CLN003",
		},
		{
			name:   "unknown preset",
			req:    multipartRequest(t, "/api/clean", []part{{"file", "a.csv", "a\n"}}, map[string]string{"preset": "nope"}),
			status: http.StatusBadRequest,
			code:   "CLN002",
		},
		{
			name:   "empty file",
			req:    multipartRequest(t, "/api/clean", []part{{"file", "a.csv", ""}}, nil),
			status: http.StatusUnprocessableEntity,
			code:   "FILE005",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, tt.req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}
	assert.Zero(t, s.service.Sessions().Len(), "failed cleans leave no session")
}

func TestClean_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Input.MaxFileSize = 8
	s, _ := newTestServer(t, cfg)

	rec := serve(s, multipartRequest(t, "/api/clean", []part{{"file", "big.csv", strings.Repeat("x,", 64)}}, nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE001", decode[ErrorResponse](t, rec).Code)
}

func TestClean_EventStream(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	req := multipartRequest(t, "/api/clean", []part{{"file", "contacts.csv", contacts}}, map[string]string{"preset": "contact"})
	req.Header.Set("Accept", "text/event-stream")

	rec := serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "id: 1\nevent: progress\n")
	assert.Contains(t, body, "event: result\n")
	assert.NotContains(t, body, "event: error")

	req = multipartRequest(t, "/api/clean", []part{{"file", "a.csv", ""}}, nil)
	req.Header.Set("Accept", "text/event-stream")
	rec = serve(s, req)
	assert.Contains(t, rec.Body.String(), "event: error\n")
	assert.Contains(t, rec.Body.String(), `"code":"FILE005"`)
}

func TestBatch(t *testing.T) {
	s, dir := newTestServer(t, testConfig())
	files := []part{
		{"files", "contacts.csv", contacts},
		{"files", "old.xls", "x"},
		{"files", "more.csv", "name\nann\n"},
	}

	rec := serve(s, multipartRequest(t, "/api/batch?store=true", files,
		map[string]string{"preset": "contact", "export": `{"format":"csv"}`}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[core.BatchResult](t, rec)
	assert.Equal(t, 2, resp.Success)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Files, 3)
	assert.Equal(t, core.StatusFailed, resp.Files[1].Status)
	assert.Equal(t, "validation", resp.Files[1].ErrorKind)
	assert.True(t, strings.HasPrefix(resp.Files[0].Output, dir))

	rec = serve(s, multipartRequest(t, "/api/batch?download=zip", files,
		map[string]string{"export": `{"format":"json","fileNamePrefix":""}`}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2", rec.Header().Get("X-Batch-Success"))
	assert.Equal(t, "1", rec.Header().Get("X-Batch-Failed"))

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"contacts_2024-03-04-09-05-07.json", "more_2024-03-04-09-05-07.json"}, names)

	rec = serve(s, multipartRequest(t, "/api/batch", nil, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, multipartRequest(t, "/api/batch", files[:1], map[string]string{"export": `{"format":"pdf"}`}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EXP001", decode[ErrorResponse](t, rec).Code)
}

func TestExportSettings(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/settings/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.DefaultExportSettings(), decode[core.ExportSettings](t, rec))

	rec = serve(s, httptest.NewRequest(http.MethodPut, "/api/settings/export", strings.NewReader(`{"format":"csv","compressOutput":true}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/settings/export", nil))
	got := decode[core.ExportSettings](t, rec)
	assert.Equal(t, core.FormatCSV, got.Format)
	assert.True(t, got.CompressOutput)
	assert.Equal(t, "cleaned_", got.FileNamePrefix, "omitted fields are kept")

	rec = serve(s, httptest.NewRequest(http.MethodPut, "/api/settings/export", strings.NewReader(`{"format":"pdf"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodPut, "/api/settings/export", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CLN003", decode[ErrorResponse](t, rec).Code)
}

func TestConfigurations(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/configurations", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	body := `{"name":"Contacts","settings":{"capitalize":true,"emails":true}}`
	rec = serve(s, httptest.NewRequest(http.MethodPost, "/api/configurations", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decode[core.Configuration](t, rec)
	assert.NotEmpty(t, saved.ID)
	assert.True(t, saved.Settings.Emails)
	assert.Equal(t, core.DefaultExportSettings(), saved.ExportSettings)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/configurations", nil))
	assert.Len(t, decode[[]core.Configuration](t, rec), 1)

	rec = serve(s, httptest.NewRequest(http.MethodPost, "/api/configurations", strings.NewReader(`{"name":"  "}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	s, _ := newTestServer(t, cfg)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/presets", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/presets", nil)
	req.Header.Set("X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, serve(s, req).Code)

	// Health checks stay open.
	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestRateLimit_Clean(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, CleanLimit: 1}
	s, _ := newTestServer(t, cfg)

	cleanViaAPI(t, s)
	rec := serve(s, multipartRequest(t, "/api/clean", []part{{"file", "a.csv", "a\n"}}, nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decode[ErrorResponse](t, rec).Code)

	// Other routes use the general limit.
	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/api/presets", nil)).Code)
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := &rateLimiter{visitors: make(map[string]*visitor), rate: 2, window: time.Minute}
	assert.True(t, rl.allow("a"))
	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
	assert.True(t, rl.allow("b"))

	rl.visitors["a"].lastReset = time.Now().Add(-2 * time.Minute)
	assert.True(t, rl.allow("a"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{session.ErrNotFound, http.StatusNotFound},
		{session.ErrNothingToRedo, http.StatusConflict},
		{core.ErrNoData, http.StatusConflict},
		{service.ErrTooManyJobs, http.StatusServiceUnavailable},
		{&core.ValidationError{File: "a", Err: core.ErrFileTooLarge}, http.StatusRequestEntityTooLarge},
		{&core.ValidationError{File: "a", Err: core.ErrUnsupportedType}, http.StatusBadRequest},
		{&core.ParseError{File: "a", Err: codec.ErrEncoding}, http.StatusUnprocessableEntity},
		{&core.ExportError{File: "a", Err: service.ErrNoSink}, http.StatusServiceUnavailable},
		{&core.ExportError{File: "a", Err: errors.New("disk full")}, http.StatusInternalServerError},
		{fmt.Errorf("run: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
