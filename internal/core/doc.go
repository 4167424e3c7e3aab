// Package core implements the cleaning engine for tabular data.
//
// The package holds all domain logic independent of any codec, transport or
// storage layer. It is driven by the HTTP server, the CLI and tests without
// modification.
//
// # Architecture
//
//   - Pattern library: ordered recognizers for emails, phones, postal codes,
//     dates, SSN and card shapes, URLs and person names ([Classify]).
//   - Cell normalizer: the fixed per-cell stage order of anonymize, dates,
//     spacing, punctuation, capitalization, phone and email.
//   - Pruning and deduplication: [PruneRows], [EmptyColumns], [RemoveColumns]
//     and [Dedupe] never touch the header row.
//   - Scoring: [Score] turns run [Metrics] into a bounded [QualityReport].
//   - History: [History] is a linear undo/redo log of deep-copied snapshots.
//   - Presets: named [Settings] bundles kept in a [PresetRegistry].
//
// # Running
//
// A [Cleaner] holds collaborators only. Each call to [Cleaner.Run] builds a
// private run value carrying settings, structure, metrics and the activity
// log:
//
//	cleaner := core.NewCleaner(core.WithRandom(core.NewSeededRandom(1)))
//	res, err := cleaner.Run(ctx, grid, core.RunOptions{
//	    Settings: settings,
//	    History:  core.NewHistory(core.DefaultHistoryLimit),
//	})
//
// Runs check ctx every [ContextCheckInterval] rows. [Cleaner.Batch] folds a
// list of inputs into per-file outcomes and keeps going past failures.
//
// # Error Handling
//
// Failures are typed: [ValidationError], [ParseError], [ProcessingError] and
// [ExportError], all unwrapping to their cause. Invalid data such as a bad
// email is a warning in the run log, never an error. [MapError] maps any
// error to a coded user message.
package core
