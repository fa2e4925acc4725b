// Package storage persists the visitor audit trail.
//
// Every created or changed visitor is appended as a full snapshot. Two
// drivers exist:
//   - "json": a single JSON array, read entirely, appended to and rewritten
//     on every call. Malformed content is treated as an empty trail.
//   - "sqlite": one row per snapshot in a local SQLite file.
//
// Appends are best-effort from the caller's point of view; the reconciler
// logs and drops their errors.
package storage
