package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/hoover/internal/codec"
	"github.com/JonMunkholm/hoover/internal/core"
	"github.com/JonMunkholm/hoover/internal/session"
)

// Upload is one input file. Open is called at most once, when the file is
// about to be decoded.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// BytesUpload wraps in-memory file contents.
func BytesUpload(name string, data []byte) Upload {
	return Upload{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// FileUpload opens a file from disk. The upload is named after the file's
// base name.
func FileUpload(path string) (Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Upload{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Upload{}, &core.ValidationError{File: path, Err: core.ErrUnsupportedType}
	}
	return Upload{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// CleanRequest asks for one file to be cleaned into a new session.
type CleanRequest struct {
	Upload   Upload
	Preset   string
	Settings *core.Settings
	Progress core.ProgressCallback
}

// Preview holds the first rows of the grids before and after cleaning.
type Preview struct {
	Original     [][]string `json:"original"`
	Cleaned      [][]string `json:"cleaned"`
	OriginalRows int        `json:"originalRows"`
	CleanedRows  int        `json:"cleanedRows"`
}

// CleanResponse is the outcome of a successful clean.
type CleanResponse struct {
	SessionID string             `json:"sessionId"`
	FileName  string             `json:"fileName"`
	Settings  core.Settings      `json:"settings"`
	Structure core.StructureInfo `json:"structure"`
	Metrics   core.Metrics       `json:"metrics"`
	Report    core.QualityReport `json:"report"`
	Log       []core.LogEntry    `json:"log"`
	Preview   Preview            `json:"preview"`
}

// Clean decodes and cleans one upload, storing the result and its history
// in a new session. A failed clean leaves no session behind.
func (s *Service) Clean(ctx context.Context, req CleanRequest) (*CleanResponse, error) {
	if err := s.codec.Validate(req.Upload.Name, req.Upload.Size); err != nil {
		return nil, err
	}
	settings, err := s.resolveSettings(req.Preset, req.Settings)
	if err != nil {
		return nil, err
	}

	var resp *CleanResponse
	err = s.withJob(ctx, func(ctx context.Context) error {
		grid, err := s.decode(ctx, req.Upload, req.Progress)
		if err != nil {
			return err
		}

		sess := s.sessions.Create()
		ctx = core.ContextWithSessionID(ctx, sess.ID)
		res, err := s.cleaner.Run(ctx, grid, core.RunOptions{
			Settings: settings,
			Export:   s.prefs.ExportSettings(ctx),
			FileName: req.Upload.Name,
			History:  sess.History(),
			Progress: req.Progress,
		})
		if err != nil {
			if derr := s.sessions.Delete(sess.ID); derr != nil {
				s.logger.WarnContext(ctx, "remove failed session", "session_id", sess.ID, "error", derr)
			}
			return err
		}
		sess.SetResult(res, settings)

		resp = &CleanResponse{
			SessionID: sess.ID,
			FileName:  res.FileName,
			Settings:  settings,
			Structure: res.Structure,
			Metrics:   res.Metrics,
			Report:    res.Report,
			Log:       res.Log,
			Preview:   newPreview(res.Original, res.Grid),
		}
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "clean failed", "file", req.Upload.Name, "error", err)
		return nil, err
	}
	s.logger.InfoContext(ctx, "file cleaned",
		"file", resp.FileName,
		"session_id", resp.SessionID,
		"rows", resp.Metrics.RowsProcessed,
		"score", resp.Report.DisplayScore(),
	)
	return resp, nil
}

// decode opens and parses an upload, reporting load progress.
func (s *Service) decode(ctx context.Context, u Upload, progress core.ProgressCallback) (core.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if u.Open == nil {
		return nil, &core.ValidationError{File: u.Name, Err: core.ErrNoFile}
	}
	rc, err := u.Open()
	if err != nil {
		return nil, &core.ParseError{File: u.Name, Err: err}
	}
	defer rc.Close()

	var onProgress codec.ProgressFunc
	if progress != nil {
		onProgress = func(p int) {
			progress(core.Progress{
				FileName: u.Name,
				Phase:    core.PhaseLoading,
				Percent:  p / 10,
				Message:  fmt.Sprintf("Reading %s (%d%%)", u.Name, p),
			})
		}
	}
	return s.codec.Decode(u.Name, rc, u.Size, onProgress)
}

func newPreview(original, cleaned core.Grid) Preview {
	return Preview{
		Original:     head(original, PreviewRows),
		Cleaned:      head(cleaned, PreviewRows),
		OriginalRows: len(original),
		CleanedRows:  len(cleaned),
	}
}

// head renders the first n rows of g.
func head(g core.Grid, n int) [][]string {
	return g[:min(n, len(g))].Strings()
}

// StepResponse is the session state after an undo or redo.
type StepResponse struct {
	Label   string       `json:"label"`
	Session session.View `json:"session"`
	Preview [][]string   `json:"preview"`
}

// Undo moves a session back one history entry.
func (s *Service) Undo(ctx context.Context, id string) (*StepResponse, error) {
	return s.step(ctx, id, (*session.Session).Undo, core.ActionUndo)
}

// Redo moves a session forward one history entry.
func (s *Service) Redo(ctx context.Context, id string) (*StepResponse, error) {
	return s.step(ctx, id, (*session.Session).Redo, core.ActionRedo)
}

func (s *Service) step(ctx context.Context, id string, move func(*session.Session) (core.HistoryEntry, error), action string) (*StepResponse, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	e, err := move(sess)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(core.ContextWithSessionID(ctx, id), action, "label", e.Label)
	return &StepResponse{
		Label:   e.Label,
		Session: sess.View(),
		Preview: head(e.Snapshot, PreviewRows),
	}, nil
}

// Session returns a summary of a live session.
func (s *Service) Session(id string) (session.View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.View{}, err
	}
	return sess.View(), nil
}

// Rows returns up to limit rows of the session's current grid.
func (s *Service) Rows(id string, limit int) ([][]string, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	grid, _, err := sess.Current()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = len(grid)
	}
	return head(grid, limit), nil
}

// DeleteSession discards a session and its history.
func (s *Service) DeleteSession(id string) error {
	return s.sessions.Delete(id)
}
