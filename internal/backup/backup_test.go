package backup

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/emersoneims/generator-oracle/internal/database"
	"github.com/emersoneims/generator-oracle/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
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

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(string(data))),
	}, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManagerStateLifecycle(t *testing.T) {
	// Without S3 config -> disabled
	m := NewManager(Config{}, nil, nil, testLogger())
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
	}

	// With S3 config -> idle
	m2 := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
	}, nil, nil, testLogger())
	if m2.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m2.Status().State, StateIdle)
	}
}

func TestManagerStopSafety(t *testing.T) {
	m := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
	}, nil, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	m.Stop()

	// Double stop should not panic
	m.Stop()
}

func TestManagerCachedKey(t *testing.T) {
	m := NewManager(Config{}, nil, nil, testLogger())

	if m.HasCachedKey() {
		t.Error("expected no cached key")
	}

	m.CacheKey("passphrase", []byte("salt1234salt1234"))

	if !m.HasCachedKey() {
		t.Error("expected cached key")
	}
}

func TestUpdateS3Config(t *testing.T) {
	m := NewManager(Config{}, nil, nil, testLogger())
	if m.Status().State != StateDisabled {
		t.Fatalf("initial state = %q, want %q", m.Status().State, StateDisabled)
	}

	m.UpdateS3Config(S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret", Region: "us-east-1"})
	if m.Status().State != StateIdle {
		t.Errorf("state after set = %q, want %q", m.Status().State, StateIdle)
	}

	m.UpdateS3Config(S3Config{})
	if m.Status().State != StateDisabled {
		t.Errorf("state after clear = %q, want %q", m.Status().State, StateDisabled)
	}
}

func TestManagerDisabledNoStart(t *testing.T) {
	m := NewManager(Config{}, nil, nil, testLogger())

	ctx := context.Background()
	m.Start(ctx) // should be a no-op for disabled state

	// Stop should not block
	m.Stop()
}

func TestRunNowUploadsEncryptedSnapshot(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "oracle.db")

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ss := store.NewSettingsStore(db)
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	if err := ss.Set("backup_passphrase_salt", hex.EncodeToString(salt)); err != nil {
		t.Fatalf("set salt: %v", err)
	}

	m := NewManager(Config{
		S3:     S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		DBPath: dbPath,
	}, db, ss, testLogger())
	mock := newMockS3()
	m.client = mock

	key, err := m.RunNow(context.Background(), "workshop-passphrase")
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	mock.mu.Lock()
	data, ok := mock.objects[key]
	mock.mu.Unlock()
	if !ok {
		t.Fatalf("uploaded object %q not found", key)
	}
	if len(data) <= saltSize+nonceSize {
		t.Errorf("uploaded object too small: %d bytes", len(data))
	}

	// Passphrase cached for scheduled runs after a manual backup.
	if !m.HasCachedKey() {
		t.Error("expected cached passphrase after manual backup")
	}

	if m.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m.Status().State, StateIdle)
	}
	if m.Status().LastBackup == nil {
		t.Error("expected last backup timestamp")
	}
}

func TestRunNowWithoutSalt(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "oracle.db")

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(Config{
		S3:     S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		DBPath: dbPath,
	}, db, store.NewSettingsStore(db), testLogger())
	m.client = newMockS3()

	if _, err := m.RunNow(context.Background(), "passphrase"); err == nil {
		t.Fatal("expected error when salt is not configured")
	}
}
