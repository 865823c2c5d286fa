package backup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ewhitmore/campuspay/internal/model"
	"github.com/ewhitmore/campuspay/internal/store"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds backup manager configuration.
type Config struct {
	S3         S3Config
	Passphrase string
}

// Manager takes encrypted database snapshots and uploads them to
// S3-compatible storage. Runs are admin-triggered and serialized.
type Manager struct {
	mu      sync.Mutex
	running bool

	cfg    Config
	db     *sql.DB
	store  *store.BackupStore
	client s3Client
	logger *slog.Logger
}

func NewManager(cfg Config, db *sql.DB, bs *store.BackupStore, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:    cfg,
		db:     db,
		store:  bs,
		logger: logger.With("component", "backup"),
	}
	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" && cfg.Passphrase != "" {
		m.client = newS3Client(cfg.S3)
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether S3 credentials and a passphrase are configured.
func (m *Manager) Enabled() bool {
	return m.client != nil
}

// History returns the most recent backup runs.
func (m *Manager) History(limit int) ([]model.BackupRecord, error) {
	return m.store.List(limit)
}

// RunNow snapshots the database, encrypts the copy, and uploads it.
// Returns the backup record ID. A second call while one is in flight
// fails immediately.
func (m *Manager) RunNow(ctx context.Context) (int64, error) {
	if m.client == nil {
		return 0, fmt.Errorf("backup not configured")
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return 0, fmt.Errorf("backup already in progress")
	}
	m.running = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	now := time.Now().UTC()
	id, err := m.store.Start(now)
	if err != nil {
		return 0, fmt.Errorf("record backup start: %w", err)
	}

	objectKey, size, err := m.run(ctx, id, now)
	if err != nil {
		m.store.Fail(id, err.Error(), time.Now().UTC())
		m.logger.Error("backup failed", "id", id, "error", err)
		return id, err
	}

	if err := m.store.Complete(id, objectKey, size, time.Now().UTC()); err != nil {
		return id, fmt.Errorf("record backup completion: %w", err)
	}
	m.logger.Info("backup completed", "id", id, "key", objectKey, "size_bytes", size)
	return id, nil
}

func (m *Manager) run(ctx context.Context, id int64, now time.Time) (string, int64, error) {
	tmpDir := os.TempDir()
	snapshot := filepath.Join(tmpDir, fmt.Sprintf("campuspay-backup-%d.db", id))
	encFile := filepath.Join(tmpDir, fmt.Sprintf("campuspay-backup-%d.db.enc", id))
	defer os.Remove(snapshot)
	defer os.Remove(encFile)

	// VACUUM INTO writes a consistent point-in-time copy without
	// blocking writers.
	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, snapshot); err != nil {
		return "", 0, fmt.Errorf("snapshot database: %w", err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		return "", 0, err
	}
	if err := EncryptFile(snapshot, encFile, m.cfg.Passphrase, salt); err != nil {
		return "", 0, fmt.Errorf("encrypt snapshot: %w", err)
	}

	encData, err := os.Open(encFile)
	if err != nil {
		return "", 0, fmt.Errorf("open encrypted file: %w", err)
	}
	defer encData.Close()

	stat, err := encData.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("stat encrypted file: %w", err)
	}

	objectKey := fmt.Sprintf("backups/campuspay-%s.db.enc", now.Format("2006-01-02T150405Z"))
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.S3.Bucket),
		Key:           aws.String(objectKey),
		Body:          encData,
		ContentLength: aws.Int64(stat.Size()),
	})
	if err != nil {
		return "", 0, fmt.Errorf("upload to s3: %w", err)
	}
	return objectKey, stat.Size(), nil
}
