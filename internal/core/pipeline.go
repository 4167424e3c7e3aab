package core

// pipeline.go sequences the cleaning stages for a single grid.
//
// A run owns its settings, structure, metrics and activity log; nothing is
// shared between runs. The flow is:
//
//  1. DetectStructure on the original grid
//  2. Record the original grid in History ("Original data loaded")
//  3. PruneRows (empty toggle)
//  4. normalizeCell over every surviving cell
//  5. EmptyColumns / RemoveColumns (emptyCols toggle, structure not preserved)
//  6. Dedupe (dupes toggle)
//  7. Record the cleaned grid in History and Score the metrics
//
// Runs check the context every ContextCheckInterval rows and report progress
// through an optional callback.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ContextCheckInterval is how many rows are normalized between
// cancellation checks.
const ContextCheckInterval = 500

// RunOptions configure one cleaning run.
type RunOptions struct {
	Settings Settings
	Export   ExportSettings
	FileName string

	// History, when set, receives the original and cleaned snapshots.
	History *History

	// Progress, when set, is called as the run changes phase.
	Progress ProgressCallback
}

// Result is the outcome of a successful run.
type Result struct {
	RunID     string        `json:"runId"`
	FileName  string        `json:"fileName"`
	Original  Grid          `json:"-"`
	Grid      Grid          `json:"-"`
	Structure StructureInfo `json:"structure"`
	Metrics   Metrics       `json:"metrics"`
	Report    QualityReport `json:"report"`
	Log       []LogEntry    `json:"log"`
}

// Cleaner runs the cleaning pipeline. It holds only collaborators, never
// per-run state, and is safe for concurrent use.
type Cleaner struct {
	random     RandomSource
	logger     *slog.Logger
	now        func() time.Time
	checkEvery int
}

// Option customizes a Cleaner.
type Option func(*Cleaner)

// WithRandom sets the source used for anonymization.
func WithRandom(r RandomSource) Option {
	return func(c *Cleaner) { c.random = r }
}

// WithLogger sets the structured logger that mirrors run log entries.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cleaner) { c.logger = l }
}

// WithClock overrides the time source used for metrics and log entries.
func WithClock(now func() time.Time) Option {
	return func(c *Cleaner) { c.now = now }
}

// NewCleaner creates a Cleaner with the given options.
func NewCleaner(opts ...Option) *Cleaner {
	c := &Cleaner{
		random:     DefaultRandom,
		logger:     slog.Default(),
		now:        time.Now,
		checkEvery: ContextCheckInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// run carries the state of a single pipeline execution.
type run struct {
	id        string
	ctx       context.Context
	file      string
	settings  Settings
	export    ExportSettings
	structure StructureInfo
	metrics   Metrics
	log       []LogEntry
	phase     CleanPhase
	emailCols map[int]bool

	random     RandomSource
	logger     *slog.Logger
	now        func() time.Time
	progress   ProgressCallback
	checkEvery int
}

func (c *Cleaner) newRun(ctx context.Context, opts RunOptions) *run {
	id := uuid.NewString()
	return &run{
		id:         id,
		ctx:        ctx,
		file:       opts.FileName,
		settings:   opts.Settings,
		export:     opts.Export,
		phase:      PhaseStarting,
		random:     c.random,
		logger:     loggerFromContext(ctx, c.logger).With("run_id", id, "file", opts.FileName),
		now:        c.now,
		progress:   opts.Progress,
		checkEvery: c.checkEvery,
		metrics:    Metrics{StartTime: c.now()},
	}
}

// Run executes the full pipeline over grid. The input grid is never
// modified. A run that fails returns a typed error and, when a History was
// supplied, leaves only the original snapshot recorded.
func (c *Cleaner) Run(ctx context.Context, grid Grid, opts RunOptions) (res *Result, err error) {
	r := c.newRun(ctx, opts)
	defer r.recoverPanic(&err)
	defer func() {
		if err != nil {
			r.fail(err)
		}
	}()

	if len(grid) == 0 {
		return nil, &ParseError{File: r.file, Err: ErrEmptyGrid}
	}

	r.report(PhaseAnalyzing, 10, "Analyzing structure...")
	r.structure = DetectStructure(grid)
	r.infof(ActionStructure, "%d columns, headers: %t", r.structure.ColumnCount, r.structure.HasHeaders)

	if opts.History != nil {
		opts.History.Record(grid, LabelOriginal)
	}

	cleaned, err := r.clean(grid)
	if err != nil {
		return nil, err
	}

	if r.settings.Dedupe {
		r.report(PhaseDedupe, 70, "Removing duplicates...")
		var removed int
		cleaned, removed = Dedupe(cleaned, r.structure.HasHeaders)
		if removed > 0 {
			r.successf(ActionDuplicatesRemoved, "%d duplicate rows removed", removed)
			r.metrics.DuplicatesRemoved = removed
			r.metrics.IssuesFixed += removed
		}
	}

	r.metrics.RowsProcessed = len(cleaned)
	r.metrics.CellsProcessed = cleaned.CellCount()
	r.metrics.EndTime = r.now()

	if opts.History != nil {
		opts.History.Record(cleaned, LabelCleaned)
	}

	report := Score(r.metrics)
	r.successf(ActionCleaningComplete, "%d rows, %d issues fixed, quality %d%% (%s)",
		r.metrics.RowsProcessed, r.metrics.IssuesFixed, report.DisplayScore(), report.Rating)
	r.report(PhaseComplete, 100, "Processing complete!")

	return &Result{
		RunID:     r.id,
		FileName:  r.file,
		Original:  grid,
		Grid:      cleaned,
		Structure: r.structure,
		Metrics:   r.metrics,
		Report:    report,
		Log:       r.log,
	}, nil
}

// Clean runs row pruning, cell normalization and column pruning against a
// previously detected structure. Deduplication and scoring are left to the
// caller.
func (c *Cleaner) Clean(ctx context.Context, grid Grid, structure StructureInfo, opts RunOptions) (out Grid, m Metrics, err error) {
	r := c.newRun(ctx, opts)
	r.structure = structure
	defer r.recoverPanic(&err)

	out, err = r.clean(grid)
	if err != nil {
		return nil, Metrics{}, err
	}
	r.metrics.RowsProcessed = len(out)
	r.metrics.CellsProcessed = out.CellCount()
	r.metrics.EndTime = r.now()
	return out, r.metrics, nil
}

// clean is stages 3 to 5 of the pipeline.
func (r *run) clean(grid Grid) (Grid, error) {
	rows := grid
	if r.settings.EmptyRows {
		r.report(PhasePruning, 20, "Removing empty rows...")
		var removed int
		rows, removed = PruneRows(grid, r.structure.HasHeaders)
		if removed > 0 {
			r.successf(ActionEmptyRowsRemoved, "%d rows removed", removed)
			r.metrics.IssuesFixed += removed
		}
	}

	r.report(PhaseCleaning, 25, "Cleaning data...")
	r.emailCols = emailColumns(r.structure)

	cleaned := make(Grid, len(rows))
	for i, row := range rows {
		if i%r.checkEvery == 0 {
			if err := r.ctx.Err(); err != nil {
				r.phase = PhaseCancelled
				return nil, fmt.Errorf("clean %s: %w", r.file, err)
			}
			if i > 0 {
				r.report(PhaseCleaning, 25+40*i/len(rows), fmt.Sprintf("Cleaning row %d of %d...", i, len(rows)))
			}
		}
		header := i == 0 && r.structure.HasHeaders
		out := make(Row, len(row))
		for j, cell := range row {
			out[j] = TextCell(r.normalizeCell(cell, cellRef{row: i + 1, col: j + 1, header: header}))
		}
		cleaned[i] = out
	}

	if r.settings.EmptyColumns && len(cleaned) > 0 {
		r.report(PhaseColumns, 65, "Checking empty columns...")
		empty := EmptyColumns(cleaned, r.structure.HasHeaders)
		switch {
		case len(empty) == 0:
		case r.export.PreserveOriginalStructure:
			r.infof(ActionStructurePreserved, "%d empty columns kept for structure", len(empty))
		default:
			cleaned = RemoveColumns(cleaned, empty)
			r.successf(ActionColumnsRemoved, "%d columns removed", len(empty))
			r.metrics.ColumnsRemoved = len(empty)
			r.metrics.IssuesFixed += len(empty)
		}
	}
	return cleaned, nil
}

// emailColumns marks the columns whose header names an email field.
func emailColumns(s StructureInfo) map[int]bool {
	cols := make(map[int]bool)
	if !s.HasHeaders {
		return cols
	}
	for i, h := range s.Headers {
		if isEmailHeader(h) {
			cols[i] = true
		}
	}
	return cols
}

func (r *run) recoverPanic(err *error) {
	if p := recover(); p != nil {
		*err = &ProcessingError{File: r.file, Stage: r.phase, Err: fmt.Errorf("panic: %v", p)}
		r.fail(*err)
	}
}

func (r *run) fail(err error) {
	if r.phase == PhaseCancelled {
		r.report(PhaseCancelled, 0, "Cancelled")
		return
	}
	r.addLog(ActionProcessingError, err.Error(), SeverityError)
	r.phase = PhaseFailed
	if r.progress != nil {
		r.progress(Progress{RunID: r.id, FileName: r.file, Phase: PhaseFailed, Message: "Processing failed", Error: err.Error()})
	}
}

func (r *run) report(phase CleanPhase, percent int, msg string) {
	r.phase = phase
	if r.progress != nil {
		r.progress(Progress{RunID: r.id, FileName: r.file, Phase: phase, Percent: percent, Message: msg})
	}
}

func (r *run) addLog(action, details string, sev Severity) {
	r.log = append(r.log, LogEntry{Time: r.now(), Action: action, Details: details, Severity: sev})
	r.logger.Log(r.ctx, sev.slogLevel(), action, "details", details)
}

func (r *run) infof(action, format string, args ...any) {
	r.addLog(action, fmt.Sprintf(format, args...), SeverityInfo)
}

func (r *run) successf(action, format string, args ...any) {
	r.addLog(action, fmt.Sprintf(format, args...), SeveritySuccess)
}

func (r *run) warnf(action, format string, args ...any) {
	r.addLog(action, fmt.Sprintf(format, args...), SeverityWarning)
}
