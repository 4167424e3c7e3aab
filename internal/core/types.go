package core

import (
	"log/slog"
	"time"
)

// CleanPhase indicates the current stage of a cleaning run.
type CleanPhase string

const (
	PhaseStarting  CleanPhase = "starting"
	PhaseLoading   CleanPhase = "loading"
	PhaseAnalyzing CleanPhase = "analyzing"
	PhasePruning   CleanPhase = "pruning"
	PhaseCleaning  CleanPhase = "cleaning"
	PhaseColumns   CleanPhase = "columns"
	PhaseDedupe    CleanPhase = "dedupe"
	PhaseExporting CleanPhase = "exporting"
	PhaseComplete  CleanPhase = "complete"
	PhaseFailed    CleanPhase = "failed"
	PhaseCancelled CleanPhase = "cancelled"
)

// Progress is a point-in-time report on a run.
type Progress struct {
	RunID    string     `json:"runId"`
	FileName string     `json:"fileName,omitempty"`
	Phase    CleanPhase `json:"phase"`
	Percent  int        `json:"percent"`
	Message  string     `json:"message"`
	Error    string     `json:"error,omitempty"` // Non-empty if Phase is PhaseFailed
}

// ProgressCallback is called as a run moves through its phases.
type ProgressCallback func(Progress)

// Severity classifies a run log entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// slogLevel maps a severity onto the structured logger.
func (s Severity) slogLevel() slog.Level {
	switch s {
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	case SeverityInfo:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// LogEntry is one line of a run's activity log.
type LogEntry struct {
	Time     time.Time `json:"time"`
	Action   string    `json:"action"`
	Details  string    `json:"details"`
	Severity Severity  `json:"severity"`
}

// Log actions recorded by the pipeline.
const (
	ActionFileLoaded         = "File Loaded"
	ActionStructure          = "Structure Detected"
	ActionEmptyRowsRemoved   = "Empty Rows Removed"
	ActionInvalidEmail       = "Invalid Email"
	ActionColumnsRemoved     = "Empty Columns Removed"
	ActionStructurePreserved = "Structure Preserved"
	ActionDuplicatesRemoved  = "Duplicates Removed"
	ActionCleaningComplete   = "Cleaning Complete"
	ActionProcessingError    = "Processing Error"
	ActionBatchComplete      = "Batch Complete"
	ActionFileFailed         = "File Failed"
	ActionUndo               = "Undo"
	ActionRedo               = "Redo"
)

// History labels recorded at run checkpoints.
const (
	LabelOriginal = "Original data loaded"
	LabelCleaned  = "Cleaned"
)
