// Package repositories implements the two databases wpx talks to.
//
// Key Implementations:
//   - [WordPressSource] : read-only queries against a WordPress schema (MySQL in
//     production); satisfies the source interface of the migration engine
//   - [RunRepository] : the local SQLite run ledger where each finished run
//     report is saved for later inspection with the history command
//
// The ledger is written once, after a run. Nothing reads it back to skip or resume entities.
package repositories
