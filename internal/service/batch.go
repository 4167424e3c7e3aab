package service

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/hoover/internal/core"
)

// BatchRequest cleans several uploads with one set of settings.
type BatchRequest struct {
	Files    []Upload
	Preset   string
	Settings *core.Settings

	// Export overrides the stored export settings when set.
	Export *core.ExportSettings

	// Store sends every artifact to the output sink. Otherwise artifacts
	// are only returned.
	Store bool

	Progress core.ProgressCallback
}

// BatchResponse is the fold of a batch plus the artifacts it produced, in
// input order, for the files that succeeded.
type BatchResponse struct {
	core.BatchResult
	Artifacts []*Artifact `json:"-"`
}

// Batch cleans and exports each upload in order under one job slot. A file
// that fails is recorded and the batch continues; only cancellation of ctx
// stops it early.
func (s *Service) Batch(ctx context.Context, req BatchRequest) (*BatchResponse, error) {
	if len(req.Files) == 0 {
		return nil, &core.ValidationError{File: "batch", Err: core.ErrNoFile}
	}
	settings, err := s.resolveSettings(req.Preset, req.Settings)
	if err != nil {
		return nil, err
	}
	es := s.prefs.ExportSettings(ctx)
	if req.Export != nil {
		es = *req.Export
	}
	if req.Store && s.sink == nil {
		return nil, &core.ExportError{File: "batch", Err: ErrNoSink}
	}

	names := make([]string, len(req.Files))
	for i, f := range req.Files {
		names[i] = f.Name
	}

	resp := &BatchResponse{}
	err = s.withJob(ctx, func(ctx context.Context) error {
		next := 0
		step := func(ctx context.Context, name string) (core.FileOutcome, error) {
			u := req.Files[next]
			next++
			a, out, err := s.cleanOne(ctx, u, settings, es)
			if err != nil {
				return out, err
			}
			if req.Store {
				loc, err := s.Store(ctx, a)
				if err != nil {
					return out, err
				}
				out.Output = loc
			}
			resp.Artifacts = append(resp.Artifacts, a)
			return out, nil
		}
		resp.BatchResult = s.cleaner.Batch(ctx, names, step, req.Progress)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "batch complete",
		"files", len(req.Files),
		"success", resp.Success,
		"failed", resp.Failed,
	)
	return resp, nil
}

// cleanOne runs a single batch file from upload to artifact.
func (s *Service) cleanOne(ctx context.Context, u Upload, settings core.Settings, es core.ExportSettings) (*Artifact, core.FileOutcome, error) {
	if err := s.codec.Validate(u.Name, u.Size); err != nil {
		return nil, core.FileOutcome{}, err
	}
	grid, err := s.decode(ctx, u, nil)
	if err != nil {
		return nil, core.FileOutcome{}, err
	}
	res, err := s.cleaner.Run(ctx, grid, core.RunOptions{
		Settings: settings,
		Export:   es,
		FileName: u.Name,
	})
	if err != nil {
		return nil, core.FileOutcome{}, err
	}

	report := res.Report
	out := core.FileOutcome{Rows: len(res.Grid), Report: &report}
	a, err := s.render(res.Grid, res.Structure, u.Name, es)
	if err != nil {
		return nil, out, fmt.Errorf("render %s: %w", u.Name, err)
	}
	out.Output = a.Name
	return a, out, nil
}
