// Package ui implements the live progress view of a migration run using bubbletea's Elm architecture.
//
// The (view) [Model] starts the run in a goroutine and consumes its [tasks.ProgressUpdate] channel:
//   - one [progress] bar per kind, filled as entity outcomes arrive
//   - submitted, failed and asset failure counters per kind
//   - the most recent failures, newest last
//
// The channel is closed when the run returns; the model then shows the totals and waits for q.
// Pressing q during a run cancels its context, and [Model.Wait] still yields the partial report.
package ui
