package core

import (
	"context"
	"fmt"
	"strings"
)

// OutcomeStatus marks how a batch item finished.
type OutcomeStatus string

const (
	StatusSuccess   OutcomeStatus = "success"
	StatusFailed    OutcomeStatus = "failed"
	StatusCancelled OutcomeStatus = "cancelled"
)

// FileOutcome is the per-file result of a batch.
type FileOutcome struct {
	Name      string         `json:"name"`
	Status    OutcomeStatus  `json:"status"`
	Rows      int            `json:"rows,omitempty"`
	Output    string         `json:"output,omitempty"`
	Report    *QualityReport `json:"report,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorKind string         `json:"errorKind,omitempty"`
	Err       error          `json:"-"`
}

// BatchResult folds every FileOutcome of a batch.
type BatchResult struct {
	Success int           `json:"success"`
	Failed  int           `json:"failed"`
	Files   []FileOutcome `json:"files"`
	Log     []LogEntry    `json:"log"`
}

// FailedNames lists the files that did not succeed.
func (b BatchResult) FailedNames() []string {
	var names []string
	for _, f := range b.Files {
		if f.Status != StatusSuccess {
			names = append(names, f.Name)
		}
	}
	return names
}

// FileStep loads, cleans and exports one named input. The returned outcome
// only needs Rows, Output and Report; status is filled in by Batch.
type FileStep func(ctx context.Context, name string) (FileOutcome, error)

// Batch processes names strictly in order. A failing file is recorded and
// the batch moves on; only cancellation of ctx stops it early, in which
// case the remaining files are marked cancelled.
func (c *Cleaner) Batch(ctx context.Context, names []string, step FileStep, progress ProgressCallback) BatchResult {
	res := BatchResult{Files: make([]FileOutcome, 0, len(names))}
	logger := loggerFromContext(ctx, c.logger)
	add := func(action, details string, sev Severity) {
		res.Log = append(res.Log, LogEntry{Time: c.now(), Action: action, Details: details, Severity: sev})
		logger.Log(ctx, sev.slogLevel(), action, "details", details)
	}

	add("Batch Processing", fmt.Sprintf("Starting batch of %d files", len(names)), SeverityInfo)

	for i, name := range names {
		if err := ctx.Err(); err != nil {
			for _, rest := range names[i:] {
				res.Files = append(res.Files, FileOutcome{Name: rest, Status: StatusCancelled, Error: err.Error(), Err: err})
				res.Failed++
			}
			add("Batch Cancelled", fmt.Sprintf("%d files not processed", len(names)-i), SeverityWarning)
			break
		}

		if progress != nil {
			progress(Progress{
				FileName: name,
				Phase:    PhaseCleaning,
				Percent:  i * 90 / max(len(names), 1),
				Message:  fmt.Sprintf("Processing %d/%d: %s", i+1, len(names), name),
			})
		}

		outcome := runStep(ctx, name, step)
		res.Files = append(res.Files, outcome)
		if outcome.Status == StatusSuccess {
			res.Success++
			add(ActionBatchComplete, "Processed: "+name, SeveritySuccess)
		} else {
			res.Failed++
			add("Batch Error", fmt.Sprintf("Failed to process %s: %s", name, outcome.Error), SeverityError)
		}
	}

	sev := SeveritySuccess
	if res.Failed > 0 {
		sev = SeverityWarning
	}
	add("Batch Summary", fmt.Sprintf("%d files processed, %d failed", res.Success, res.Failed), sev)
	if res.Failed > 0 {
		add("Failed Files", strings.Join(res.FailedNames(), ", "), SeverityWarning)
	}
	if progress != nil {
		progress(Progress{Phase: PhaseComplete, Percent: 100, Message: "Batch processing complete!"})
	}
	return res
}

// runStep isolates one file so a panic becomes a failed outcome.
func runStep(ctx context.Context, name string, step FileStep) (out FileOutcome) {
	defer func() {
		if p := recover(); p != nil {
			err := &ProcessingError{File: name, Stage: PhaseCleaning, Err: fmt.Errorf("panic: %v", p)}
			out = FileOutcome{Name: name, Status: StatusFailed, Error: err.Error(), ErrorKind: ErrorKind(err), Err: err}
		}
	}()

	out, err := step(ctx, name)
	out.Name = name
	if err != nil {
		out.Status = StatusFailed
		out.Error = err.Error()
		out.ErrorKind = ErrorKind(err)
		out.Err = err
		return out
	}
	out.Status = StatusSuccess
	return out
}
