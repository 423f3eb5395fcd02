package workspace

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
)

// Sweep removes workspace directories under the root that were last modified
// more than maxAge ago. They are left behind only when the service dies in the
// middle of a request. Entries that are not workspace directories are ignored.
// It returns the number of directories removed.
func (r *Root) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !entry.IsDir() || uuid.Validate(entry.Name()) != nil {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(r.dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			cleanupErr := &apperr.CleanupError{Path: path, Err: err}
			r.logger.Warn("failed to sweep workspace", slog.String("error", cleanupErr.Error()))
			continue
		}
		removed++
	}

	return removed, nil
}
