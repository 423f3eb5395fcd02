// Package local stores artifacts on the local filesystem. The service serves
// the directory over HTTP so the returned URLs resolve.
package local

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
	"github.com/ArnabMallick12/Video-Editor/internal/storage"
)

type Store struct {
	dir     string
	baseURL string
	logger  *slog.Logger
}

// New returns a Store writing below dir and building URLs from baseURL.
func New(dir, baseURL string, logger *slog.Logger) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: abs, baseURL: baseURL, logger: logger}, nil
}

// Dir is the directory artifacts are written to.
func (s *Store) Dir() string { return s.dir }

// Upload writes body to a temporary file next to the target and renames it
// into place, so readers never observe a partial artifact.
func (s *Store) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	target, err := s.resolve(key)
	if err != nil {
		return "", &apperr.StorageError{Key: key, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return "", &apperr.StorageError{Key: key, Err: err}
	}

	written, err := writeAtomic(target, body)
	if err != nil {
		return "", &apperr.StorageError{Key: key, Err: err}
	}
	if size >= 0 && written != size {
		_ = os.Remove(target)
		return "", &apperr.StorageError{Key: key, Err: fmt.Errorf("wrote %d bytes, expected %d", written, size)}
	}

	s.logger.Info("artifact stored",
		slog.String("key", key),
		slog.String("content_type", contentType),
		slog.String("size", humanize.Bytes(uint64(written))))

	return storage.JoinURL(s.baseURL, key), nil
}

func (s *Store) resolve(key string) (string, error) {
	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if !strings.HasPrefix(target, s.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes the storage directory", key)
	}
	return target, nil
}

func writeAtomic(target string, body io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, body)
	if err != nil {
		tmp.Close()
		return written, err
	}
	if err := tmp.Close(); err != nil {
		return written, err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return written, err
	}

	return written, os.Rename(tmp.Name(), target)
}
