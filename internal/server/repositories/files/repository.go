// Package files declares the file catalog: metadata rows for uploaded blobs,
// always addressed together with their owner.
package files

import (
	"context"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

// Repository never exposes a file by id alone; every lookup carries userID.
type Repository interface {
	// Create inserts file and fills in ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, file *models.File) error
	// FindOwned returns common.ErrorNotFound unless file id belongs to userID.
	FindOwned(ctx context.Context, id int64, userID string) (*models.File, error)
	// ListOwned returns up to limit files of userID in insertion order after
	// skipping offset, plus the user's total file count.
	ListOwned(ctx context.Context, userID string, limit, offset int) ([]*models.File, int64, error)
	// Update rewrites metadata and locator of an owned row.
	Update(ctx context.Context, file *models.File) error
	// Delete removes an owned row.
	Delete(ctx context.Context, id int64, userID string) error
}
