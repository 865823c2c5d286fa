package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ewhitmore/campuspay/internal/model"
)

type BackupStore struct {
	db *sql.DB
}

func NewBackupStore(db *sql.DB) *BackupStore {
	return &BackupStore{db: db}
}

const backupCols = `id, started_at, completed_at, size_bytes, object_key, status, error`

func scanBackup(scanner interface{ Scan(...any) error }) (*model.BackupRecord, error) {
	var b model.BackupRecord
	var completedAt sql.NullTime

	err := scanner.Scan(&b.ID, &b.StartedAt, &completedAt, &b.SizeBytes, &b.ObjectKey, &b.Status, &b.Error)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		b.CompletedAt = &completedAt.Time
	}
	return &b, nil
}

// Start records the beginning of a backup run.
func (s *BackupStore) Start(now time.Time) (int64, error) {
	result, err := s.db.Exec(`INSERT INTO backup_history (started_at, status) VALUES (?, 'running')`, now)
	if err != nil {
		return 0, fmt.Errorf("insert backup record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Complete marks a backup run as finished.
func (s *BackupStore) Complete(id int64, objectKey string, sizeBytes int64, now time.Time) error {
	_, err := s.db.Exec(
		`UPDATE backup_history SET status = 'completed', completed_at = ?, object_key = ?, size_bytes = ? WHERE id = ?`,
		now, objectKey, sizeBytes, id,
	)
	if err != nil {
		return fmt.Errorf("complete backup record: %w", err)
	}
	return nil
}

// Fail marks a backup run as failed with its error message.
func (s *BackupStore) Fail(id int64, errMsg string, now time.Time) error {
	_, err := s.db.Exec(
		`UPDATE backup_history SET status = 'failed', completed_at = ?, error = ? WHERE id = ?`,
		now, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("fail backup record: %w", err)
	}
	return nil
}

// List returns the most recent backup runs, newest first.
func (s *BackupStore) List(limit int) ([]model.BackupRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+backupCols+` FROM backup_history ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	var records []model.BackupRecord
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backup record: %w", err)
		}
		records = append(records, *b)
	}
	return records, rows.Err()
}
