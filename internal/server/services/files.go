package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/blobstore"
	"github.com/dmitrijs2005/filekeeper/internal/server/keylock"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/repomanager"
)

const (
	DefaultPageSize = 10
	DefaultPage     = 1
)

// FileService runs every file operation on behalf of one authenticated user;
// a file of another user behaves exactly like a missing one.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobstore.Store
	locks       *keylock.Locker
	log         logging.Logger
	now         func() time.Time
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, blobs blobstore.Store, log logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		locks:       keylock.New(),
		log:         log.With("module", "files"),
		now:         time.Now,
	}
}

func (s *FileService) Upload(ctx context.Context, userID string, upload *models.Upload) (*models.File, error) {
	locator, err := s.blobs.Put(ctx, userID, upload)
	if err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	file := &models.File{UserID: userID}
	s.describe(file, upload, locator)

	if err := s.repomanager.Files(s.db).Create(ctx, file); err != nil {
		s.discard(ctx, locator)
		return nil, fmt.Errorf("error creating file: %w", err)
	}

	s.log.Info(ctx, "file uploaded", "user_id", userID, "file_id", file.ID, "size", file.Size)
	return file, nil
}

// List returns one page in insertion order. Non-positive arguments fall back
// to DefaultPageSize and DefaultPage; a page past the end is empty but still
// carries the total.
func (s *FileService) List(ctx context.Context, userID string, pageSize, page int) (*models.FilePage, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page <= 0 {
		page = DefaultPage
	}

	offset := math.MaxInt
	if page-1 <= math.MaxInt/pageSize {
		offset = (page - 1) * pageSize
	}

	files, total, err := s.repomanager.Files(s.db).ListOwned(ctx, userID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}
	return &models.FilePage{Files: files, Total: total}, nil
}

func (s *FileService) Get(ctx context.Context, userID string, id int64) (*models.File, error) {
	file, err := s.repomanager.Files(s.db).FindOwned(ctx, id, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error searching file: %w", err)
	}
	return file, nil
}

// Download resolves the file's locator. Bytes are not streamed.
func (s *FileService) Download(ctx context.Context, userID string, id int64) (string, error) {
	file, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}

	url, err := s.blobs.Resolve(ctx, file.URL)
	if err != nil {
		return "", fmt.Errorf("resolve blob: %w", err)
	}
	return url, nil
}

// Delete removes the blob and then the row. When the blob cannot be removed
// the row stays and common.ErrorBlobDeleteFailed is returned.
func (s *FileService) Delete(ctx context.Context, userID string, id int64) error {
	unlock := s.locks.Lock(fileKey(id))
	defer unlock()

	file, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, file.URL); err != nil {
		s.log.Error(ctx, "blob delete failed", "file_id", id, "locator", file.URL, "error", err)
		return fmt.Errorf("%w: %v", common.ErrorBlobDeleteFailed, err)
	}

	if err := s.repomanager.Files(s.db).Delete(ctx, id, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error deleting file: %w", err)
	}

	s.log.Info(ctx, "file deleted", "user_id", userID, "file_id", id)
	return nil
}

// Update stores the new blob, points the row at it and only then drops the
// old blob. A failed row update leaves the old blob and row as they were.
func (s *FileService) Update(ctx context.Context, userID string, id int64, upload *models.Upload) (*models.File, error) {
	unlock := s.locks.Lock(fileKey(id))
	defer unlock()

	file, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	oldLocator := file.URL

	locator, err := s.blobs.Put(ctx, userID, upload)
	if err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	s.describe(file, upload, locator)

	if err := s.repomanager.Files(s.db).Update(ctx, file); err != nil {
		s.discard(ctx, locator)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error updating file: %w", err)
	}

	if err := s.blobs.Delete(ctx, oldLocator); err != nil {
		s.log.Warn(ctx, "old blob not removed", "file_id", id, "locator", oldLocator, "error", err)
	}

	s.log.Info(ctx, "file updated", "user_id", userID, "file_id", id)
	return file, nil
}

func (s *FileService) describe(file *models.File, upload *models.Upload, locator string) {
	file.Name = upload.OriginalName
	file.Extension = filepath.Ext(upload.OriginalName)
	file.MimeType = upload.MimeType
	file.Size = upload.Size
	file.URL = locator
	file.UploadDate = s.now().UTC()
}

// discard removes a blob that never got a row. The request context may
// already be cancelled at this point.
func (s *FileService) discard(ctx context.Context, locator string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), locator); err != nil {
		s.log.Warn(ctx, "orphan blob not removed", "locator", locator, "error", err)
	}
}

func fileKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
