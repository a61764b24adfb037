// Package stores persists validation runs to SQLite: one row per run,
// per-rule summaries, the explanation lines and field severities of every
// flagged tag, and the background-integrity issues of the run.
package stores
