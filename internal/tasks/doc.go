// Package tasks runs the long-lived jobs of the dashboard: entity backups and sound alerts.
//
// # Backups
//
// [BackupEngine.Run] copies backend entities to local files. A single producer lists each entity
// through a [rate.Limiter] and a bounded worker pool writes the records with the formatter
// package (json, csv or markdown). Failures are recorded per entity and never retried. A
// backup_manifest.json summarizing the run is written last.
//
// # Sound Alerts
//
// [AlertWatcher.Run] follows [models.AlertSettings]:
//   - disabled: returns immediately
//   - interval: fires every IntervalMinutes
//   - on-order: polls marketplace_orders and fires when the count grows
//
// Alerts are delivered to a [Notifier]; the CLI prints the resolved audio URL and rings the bell.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
