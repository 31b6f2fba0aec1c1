package model

import "time"

// Writer defines a generic interface for persisting window snapshots.
type Writer interface {
	// Write takes a completed window snapshot and persists it. The timestamp
	// string names the snapshot (it becomes a directory or column value).
	Write(snapshot WindowSnapshot, timestamp string) error

	// GetInterval returns the configured snapshot interval for this writer.
	GetInterval() time.Duration
}
