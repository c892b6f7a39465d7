// Package tasks orchestrates the migration of WordPress entities with real-time progress reporting.
//
// # Core Operations
//
// [MigrationEngine] exposes one operation per kind plus an aggregate:
//
//  1. [MigrationEngine.MigrateAuthors] : upload each avatar, then create the author
//  2. [MigrationEngine.MigrateTags] : create each tag
//  3. [MigrationEngine.MigratePosts] : transform the body, upload inline and featured
//     images, then create the post
//  4. [MigrationEngine.MigrateAll] : run the requested kinds in dependency order
//     (authors, tags, posts) and return a [RunReport]
//
// # Units of Work
//
// Every row becomes one unit on a pool bounded by the configured worker count.
// A unit moves through [StateFetched], [StateAssetResolved], [StateTransformed] and
// ends in [StateSubmitted] or [StateFailed]. Within a unit the image upload always
// finishes before the entity that references it is submitted. Units are isolated:
// a failed upload is recorded and the entity goes ahead without the image, a failed
// submission fails only that entity, and a panic is recovered into a failed outcome.
//
// Outcomes are written by index into a slice sized before any unit starts, so no
// locks guard the results. Counters are computed once every unit has finished.
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, kind, step counters, messages, and the
// finished [Outcome] or [KindReport] as data. Updates use select with default to prevent blocking.
//
// # Errors
//
// Only a failure to read a kind from the source is returned as an error; it wraps
// [shared.ErrFetchFailed]. Entity failures live in the report.
package tasks
