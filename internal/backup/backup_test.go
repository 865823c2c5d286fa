package backup

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ewhitmore/campuspay/internal/database"
	"github.com/ewhitmore/campuspay/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManagerDisabledWithoutConfig(t *testing.T) {
	m := NewManager(Config{}, nil, nil, discardLogger())
	if m.Enabled() {
		t.Error("expected manager disabled without S3 config")
	}
	if _, err := m.RunNow(context.Background()); err == nil {
		t.Error("expected error from RunNow when disabled")
	}

	// A passphrase alone is not enough.
	m2 := NewManager(Config{Passphrase: "secret"}, nil, nil, discardLogger())
	if m2.Enabled() {
		t.Error("expected manager disabled without S3 credentials")
	}
}

func TestManagerRunNow(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mock := newMockS3()
	m := NewManager(Config{
		S3:         S3Config{Bucket: "backups", AccessKey: "key", SecretKey: "secret"},
		Passphrase: "hunter2",
	}, db, store.NewBackupStore(db), discardLogger())
	m.client = mock

	id, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a backup record id")
	}

	mock.mu.Lock()
	uploaded := len(mock.objects)
	var key string
	var data []byte
	for k, v := range mock.objects {
		key, data = k, v
	}
	mock.mu.Unlock()

	if uploaded != 1 {
		t.Fatalf("uploaded objects = %d, want 1", uploaded)
	}
	if !strings.HasPrefix(key, "backups/campuspay-") {
		t.Errorf("object key = %q, want backups/campuspay- prefix", key)
	}
	// The uploaded snapshot is encrypted, not a raw sqlite file.
	if bytes.HasPrefix(data, []byte("SQLite format 3")) {
		t.Error("uploaded object is not encrypted")
	}

	records, err := m.History(10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("history records = %d, want 1", len(records))
	}
	r := records[0]
	if r.Status != "completed" {
		t.Errorf("status = %q, want completed", r.Status)
	}
	if r.ObjectKey != key {
		t.Errorf("object key = %q, want %q", r.ObjectKey, key)
	}
	if r.SizeBytes != int64(len(data)) {
		t.Errorf("size = %d, want %d", r.SizeBytes, len(data))
	}
	if r.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}

func TestManagerRecordsFailure(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mock := newMockS3()
	mock.putErr = io.ErrUnexpectedEOF
	m := NewManager(Config{
		S3:         S3Config{Bucket: "backups", AccessKey: "key", SecretKey: "secret"},
		Passphrase: "hunter2",
	}, db, store.NewBackupStore(db), discardLogger())
	m.client = mock

	if _, err := m.RunNow(context.Background()); err == nil {
		t.Fatal("expected upload error")
	}

	records, err := m.History(10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 1 || records[0].Status != "failed" {
		t.Fatalf("records = %+v, want one failed record", records)
	}
	if records[0].Error == "" {
		t.Error("expected error message on failed record")
	}
}
