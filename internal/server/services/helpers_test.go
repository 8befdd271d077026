package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/auth"
	"github.com/dmitrijs2005/filekeeper/internal/server/config"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/memory"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("access-secret", "refresh-secret", 10*time.Minute)
	require.NoError(t, err)
	return ts
}

func newUserService(t *testing.T) (*UserService, *memory.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	store := memory.New()
	cfg := &config.Config{PasswordHashCost: bcrypt.MinCost}
	return NewUserService(db, store, newTokens(t), cfg, logging.NewNop()), store, mock
}

// memBlobs is a blob store over a map; the err fields inject failures.
type memBlobs struct {
	mu         sync.Mutex
	blobs      map[string]string
	seq        int
	putErr     error
	deleteErr  error
	resolveErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: make(map[string]string)}
}

func (m *memBlobs) Put(_ context.Context, ownerID string, u *models.Upload) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	b, err := io.ReadAll(u.Content)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	loc := ownerID + "/" + strings.Repeat("b", m.seq)
	m.blobs[loc] = string(b)
	return loc, nil
}

func (m *memBlobs) Delete(_ context.Context, locator string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, locator)
	return nil
}

func (m *memBlobs) Resolve(_ context.Context, locator string) (string, error) {
	if m.resolveErr != nil {
		return "", m.resolveErr
	}
	return "blob://" + locator, nil
}

func (m *memBlobs) has(locator string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[locator]
	return ok
}

func (m *memBlobs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

func newFileService(t *testing.T) (*FileService, *memory.Store, *memBlobs) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	store := memory.New()
	blobs := newMemBlobs()
	s := NewFileService(db, store, blobs, logging.NewNop())
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s, store, blobs
}

func textUpload(name, body string) *models.Upload {
	return &models.Upload{
		OriginalName: name,
		MimeType:     "text/plain",
		Size:         int64(len(body)),
		Content:      strings.NewReader(body),
	}
}
