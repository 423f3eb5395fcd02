// Package workspace owns the request scoped staging directories used while an
// edit is processed. Each request gets its own directory under a shared root,
// named by a random UUID, so concurrent requests never resolve to the same
// input or output path.
package workspace

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
)

const (
	inputName  = "input.mp4"
	outputName = "output.mp4"
	probeName  = ".write-probe"
)

// Root is the parent directory in which workspaces are created.
type Root struct {
	dir    string
	logger *slog.Logger
}

// Workspace is a staging directory exclusively owned by one request.
type Workspace struct {
	ID         string
	Dir        string
	InputPath  string
	OutputPath string

	logger  *slog.Logger
	release sync.Once
}

// NewRoot returns a Root for dir. The directory is created lazily by Acquire.
func NewRoot(dir string, logger *slog.Logger) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Root{dir: abs, logger: logger}, nil
}

// Dir returns the absolute root directory.
func (r *Root) Dir() string { return r.dir }

// Acquire creates a new, empty workspace and verifies it can be written to.
// The caller must call Release once the request is finished.
func (r *Root) Acquire() (*Workspace, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, classify("workspace root", r.dir, err)
	}

	id := uuid.NewString()
	dir := filepath.Join(r.dir, id)

	// Mkdir rather than MkdirAll: an existing directory means a collision and
	// must not be shared.
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, classify("workspace directory", dir, err)
	}

	ws := &Workspace{
		ID:         id,
		Dir:        dir,
		InputPath:  filepath.Join(dir, inputName),
		OutputPath: filepath.Join(dir, outputName),
		logger:     r.logger.With(slog.String("workspace_id", id)),
	}

	if err := probeWritable(dir); err != nil {
		ws.Release()
		return nil, classify("workspace directory", dir, err)
	}

	return ws, nil
}

// Release removes the workspace directory and all files in it. It is safe to
// call more than once. Failures are logged and never returned.
func (w *Workspace) Release() {
	w.release.Do(func() {
		if err := os.RemoveAll(w.Dir); err != nil {
			cleanupErr := &apperr.CleanupError{Path: w.Dir, Err: err}
			w.logger.Error("failed to remove workspace", slog.String("error", cleanupErr.Error()))
			return
		}
		w.logger.Debug("workspace released")
	})
}

// Path returns a path for an additional file inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, filepath.Base(name))
}

func probeWritable(dir string) error {
	marker := filepath.Join(dir, probeName)
	if err := os.WriteFile(marker, nil, 0o644); err != nil {
		return err
	}
	return os.Remove(marker)
}

func classify(resource, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return &apperr.PermissionError{Path: path, Err: err}
	default:
		return &apperr.ResourceNotFoundError{Resource: resource, Path: path, Err: err}
	}
}
