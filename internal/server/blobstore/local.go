package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/filekeeper/internal/filex"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

// LocalStore keeps blobs under root/<hex owner>/<random name>. Locators are
// absolute paths and are always checked against root before use.
type LocalStore struct {
	root string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	root, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Put(ctx context.Context, ownerID string, upload *models.Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir, err := filex.Within(s.root, ownerDir(ownerID))
	if err != nil || dir == s.root {
		return "", fmt.Errorf("invalid owner %q: %w", ownerID, filex.ErrOutsideRoot)
	}
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}

	path, err := filex.Within(dir, objectName(upload.OriginalName))
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o660)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}

	if _, err := io.Copy(f, upload.Content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close blob: %w", err)
	}

	return path, nil
}

func (s *LocalStore) Delete(ctx context.Context, locator string) error {
	path, err := s.checked(locator)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

func (s *LocalStore) Resolve(ctx context.Context, locator string) (string, error) {
	return s.checked(locator)
}

func (s *LocalStore) checked(locator string) (string, error) {
	path, err := filex.Within(s.root, locatorRel(s.root, locator))
	if err != nil {
		return "", err
	}
	if path == s.root {
		return "", fmt.Errorf("%w: %s", filex.ErrOutsideRoot, locator)
	}
	return path, nil
}

// locatorRel maps a stored absolute locator onto root. Anything outside root
// comes back with a leading ".." and is rejected by filex.Within.
func locatorRel(root, locator string) string {
	rel, err := filepath.Rel(root, filepath.Clean(locator))
	if err != nil {
		return locator
	}
	return rel
}
