package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchEntity Phase = iota
	WriteBackup
	WriteManifest
	WatchAlerts
)

func (p Phase) String() string {
	switch p {
	case FetchEntity:
		return "fetch_entity"
	case WriteBackup:
		return "write_backup"
	case WriteManifest:
		return "write_manifest"
	case WatchAlerts:
		return "watch_alerts"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchEntityUpdate(step, total int, entity string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchEntity,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching %s...", step, total, entity),
	}
}

func backupCompletedUpdate(step, total int, res EntityBackupResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteBackup,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d records)", step, total, res.Entity, res.Records),
		Data:    res,
	}
}

func backupFailedUpdate(step, total int, res EntityBackupResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteBackup,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Entity, res.Err),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written to %s", path),
	}
}

func alertUpdate(event AlertEvent) ProgressUpdate {
	msg := fmt.Sprintf("Alert: %s", event.AudioName)
	if event.NewOrders > 0 {
		msg = fmt.Sprintf("Alert: %d new order(s), playing %s", event.NewOrders, event.AudioName)
	}
	return ProgressUpdate{
		Phase:   WatchAlerts,
		Step:    1,
		Total:   1,
		Message: msg,
		Data:    event,
	}
}
