package model

import "time"

// BackupRecord is one row of backup history.
type BackupRecord struct {
	ID          int64      `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	SizeBytes   int64      `json:"size_bytes"`
	ObjectKey   string     `json:"object_key"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
}
