// Package repositories implements the local SQLite store.
//
// The store only holds what the dashboard owns: the sound alert preferences and receipts of
// audio files uploaded to the backend. Business records and credentials always stay on the
// backend.
//
// Key Implementations:
//   - [AlertSettingsRepository] : single-row alert preferences with defaults when unset
//   - [AudioRepository] : upload receipts with soft deletes and lookup by file name
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated
// sequence tables, giving receipts a stable upload order independent of their UUIDs.
package repositories
