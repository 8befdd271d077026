// Package memory implements the repositories on plain maps. It backs the
// service and HTTP tests, where the SQL layer is covered separately by
// sqlmock.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/files"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/users"
)

// Store holds every table. The same repositories are returned for the pool
// and for transactions; writes are not rolled back.
type Store struct {
	mu sync.Mutex

	users   map[string]models.User
	tokens  []models.RefreshToken
	files   map[int64]models.File
	tokenID int64
	fileID  int64

	Now func() time.Time
}

func New() *Store {
	return &Store{
		users: make(map[string]models.User),
		files: make(map[int64]models.File),
		Now:   time.Now,
	}
}

func (s *Store) RunMigrations(context.Context, *sql.DB) error { return nil }

func (s *Store) Users(dbx.DBTX) users.Repository                 { return (*userRepo)(s) }
func (s *Store) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return (*tokenRepo)(s) }
func (s *Store) Files(dbx.DBTX) files.Repository                 { return (*fileRepo)(s) }

// TokenCount reports how many refresh token rows userID has.
func (s *Store) TokenCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tokens {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

type userRepo Store

func (r *userRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; ok {
		return common.ErrorDuplicateUser
	}
	r.users[u.ID] = *u
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

type tokenRepo Store

func (r *tokenRepo) Create(_ context.Context, userID string, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return common.ErrorNotFound
	}
	r.tokenID++
	r.tokens = append(r.tokens, models.RefreshToken{ID: r.tokenID, UserID: userID, Token: token})
	return nil
}

func (r *tokenRepo) FindByUser(_ context.Context, userID string) (*models.RefreshToken, error) {
	return r.find(func(t models.RefreshToken) bool { return t.UserID == userID })
}

func (r *tokenRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	return r.find(func(t models.RefreshToken) bool { return t.Token == token })
}

func (r *tokenRepo) find(match func(models.RefreshToken) bool) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if match(t) {
			return &t, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *tokenRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.tokens[:0]
	for _, t := range r.tokens {
		if t.Token != token {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(r.tokens) {
		return common.ErrorNotFound
	}
	r.tokens = kept
	return nil
}

type fileRepo Store

func (r *fileRepo) Create(_ context.Context, f *models.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fileID++
	f.ID = r.fileID
	f.CreatedAt = r.Now()
	f.UpdatedAt = f.CreatedAt
	r.files[f.ID] = *f
	return nil
}

func (r *fileRepo) FindOwned(_ context.Context, id int64, userID string) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok || f.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return &f, nil
}

func (r *fileRepo) ListOwned(_ context.Context, userID string, limit, offset int) ([]*models.File, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owned := make([]*models.File, 0)
	for _, f := range r.files {
		if f.UserID == userID {
			f := f
			owned = append(owned, &f)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })

	total := int64(len(owned))
	if offset < 0 || offset >= len(owned) {
		return []*models.File{}, total, nil
	}
	end := offset + limit
	if limit < 0 || end > len(owned) || end < offset {
		end = len(owned)
	}
	return owned[offset:end], total, nil
}

func (r *fileRepo) Update(_ context.Context, f *models.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.files[f.ID]
	if !ok || cur.UserID != f.UserID {
		return common.ErrorNotFound
	}
	f.CreatedAt = cur.CreatedAt
	f.UpdatedAt = r.Now()
	r.files[f.ID] = *f
	return nil
}

func (r *fileRepo) Delete(_ context.Context, id int64, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok || f.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.files, id)
	return nil
}
