// Package sqlite persists snapping runs: one row per run, one row per
// committed object and the templates recognised in the run.
//
// The schema is managed by golang-migrate from migrations embedded in the
// binary. Open does not migrate; callers run MigrateUp before recording.
package sqlite
