// Package blobstore persists uploaded file bytes and hands back a locator
// string that the file catalog keeps in its url column.
package blobstore

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/filekeeper/internal/server/config"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/google/uuid"
)

// Store is implemented by LocalStore and S3Store.
type Store interface {
	// Put writes upload for ownerID and returns its locator.
	Put(ctx context.Context, ownerID string, upload *models.Upload) (string, error)
	// Delete removes the blob behind locator. A missing blob is not an error.
	Delete(ctx context.Context, locator string) error
	// Resolve turns a locator into something a client can fetch: a path for
	// the local store, a presigned URL for S3.
	Resolve(ctx context.Context, locator string) (string, error)
}

// New builds the store selected by cfg.BlobBackend.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendLocal:
		return NewLocalStore(cfg.UploadDir)
	case config.BlobBackendS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

// objectName is a random name that keeps the original extension so the
// blob stays recognizable on disk or in a bucket listing.
func objectName(originalName string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
}

// ownerDir encodes a user id into a single path segment. Ids are chosen by
// clients, so "..", "a/../b" and the like must not reach the filesystem or
// an object key as-is.
func ownerDir(ownerID string) string {
	return hex.EncodeToString([]byte(ownerID))
}
