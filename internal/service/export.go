package service

import (
	"context"
	"errors"

	"github.com/JonMunkholm/hoover/internal/archive"
	"github.com/JonMunkholm/hoover/internal/codec"
	"github.com/JonMunkholm/hoover/internal/core"
	"github.com/JonMunkholm/hoover/internal/output"
)

// ErrNoSink is returned by Store when no output sink is configured.
var ErrNoSink = errors.New("export: no output sink configured")

// Artifact is an encoded export ready to download or store.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportRequest selects a session and optionally overrides the stored
// export settings.
type ExportRequest struct {
	SessionID string
	Format    string
	Compress  *bool
	Prefix    *string
}

// Export encodes the session's grid at its current history position.
func (s *Service) Export(ctx context.Context, req ExportRequest) (*Artifact, error) {
	sess, err := s.sessions.Get(req.SessionID)
	if err != nil {
		return nil, err
	}
	grid, structure, err := sess.Current()
	if err != nil {
		return nil, err
	}
	source := ""
	if res := sess.Result(); res != nil {
		source = res.FileName
	}

	es := s.prefs.ExportSettings(ctx)
	if req.Format != "" {
		es.Format = req.Format
	}
	if req.Compress != nil {
		es.CompressOutput = *req.Compress
	}
	if req.Prefix != nil {
		es.FileNamePrefix = *req.Prefix
	}

	a, err := s.render(grid, structure, source, es)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(core.ContextWithSessionID(ctx, sess.ID), "export ready",
		"name", a.Name, "format", es.Format, "bytes", len(a.Data))
	return a, nil
}

// Store hands an artifact to the configured sink and returns its location.
func (s *Service) Store(ctx context.Context, a *Artifact) (string, error) {
	if s.sink == nil {
		return "", &core.ExportError{File: a.Name, Err: ErrNoSink}
	}
	loc, err := s.sink.Put(ctx, a.Name, a.Data)
	if err != nil {
		return "", &core.ExportError{File: a.Name, Err: err}
	}
	return loc, nil
}

// render encodes grid and names it after source. A compressed export is a
// zip whose single member carries the unprefixed name.
func (s *Service) render(grid core.Grid, structure core.StructureInfo, source string, es core.ExportSettings) (*Artifact, error) {
	data, err := s.codec.Encode(grid, es.Format, structure)
	if err != nil {
		return nil, &core.ExportError{File: source, Err: err}
	}

	ext := es.Format
	at := s.now()
	if !es.CompressOutput {
		return &Artifact{
			Name:        output.FileName(es.FileNamePrefix, source, ext, at),
			ContentType: codec.ContentType(es.Format),
			Data:        data,
			Rows:        len(grid),
		}, nil
	}

	zipName, member := output.ArchiveNames(es.FileNamePrefix, source, ext, at)
	packed, err := archive.PackAt(map[string][]byte{member: data}, at)
	if err != nil {
		return nil, &core.ExportError{File: source, Err: err}
	}
	return &Artifact{
		Name:        zipName,
		ContentType: codec.ContentType("zip"),
		Data:        packed,
		Rows:        len(grid),
	}, nil
}
