// Package filex contains filesystem helpers used by the local blob store.
package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a path resolves outside of its sandbox root.
var ErrOutsideRoot = errors.New("path escapes root")

// EnsureDir creates dir (and parents) if needed and returns its absolute path.
// Relative paths are resolved against the current working directory.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// Within joins elems onto root and checks that the cleaned result stays
// inside root.
func Within(root string, elems ...string) (string, error) {
	p := filepath.Clean(filepath.Join(append([]string{root}, elems...)...))
	if p != root && !strings.HasPrefix(p, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	return p, nil
}
