// Package fetch downloads source media into a workspace.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
)

// Config controls the HTTP client used for downloads.
type Config struct {
	// Timeout bounds the whole download, including reading the body.
	Timeout time.Duration
	// MaxBytes rejects sources larger than this. Zero means unlimited.
	MaxBytes int64
}

// Fetcher streams remote files to local paths.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

// NewFetcher creates a Fetcher. A nil client uses a client built from cfg.
func NewFetcher(cfg Config, client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{client: client, maxBytes: cfg.MaxBytes, logger: logger}
}

// Fetch issues a GET against sourceURL and writes the body to dst. On any
// failure dst is removed and a *apperr.FetchError is returned.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL, dst string) (int64, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return 0, &apperr.FetchError{URL: sourceURL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, &apperr.FetchError{URL: sourceURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return 0, &apperr.FetchError{URL: sourceURL, StatusCode: resp.StatusCode}
	}

	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return 0, &apperr.FetchError{URL: sourceURL, Err: tooLarge(f.maxBytes)}
	}

	written, err := writeFile(dst, resp.Body, f.maxBytes)
	if err != nil {
		if removeErr := os.Remove(dst); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			f.logger.Warn("failed to remove partial download",
				slog.String("error", (&apperr.CleanupError{Path: dst, Err: removeErr}).Error()))
		}
		return 0, &apperr.FetchError{URL: sourceURL, Err: err}
	}

	f.logger.Info("source downloaded",
		slog.String("size", humanize.Bytes(uint64(written))),
		slog.Duration("took", time.Since(start)))

	return written, nil
}

func writeFile(dst string, body io.Reader, maxBytes int64) (int64, error) {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}

	reader := body
	if maxBytes > 0 {
		// One extra byte tells an exact-size body apart from an oversized one.
		reader = io.LimitReader(body, maxBytes+1)
	}

	written, copyErr := io.Copy(out, reader)
	closeErr := out.Close()

	switch {
	case copyErr != nil:
		return written, fmt.Errorf("write body: %w", copyErr)
	case closeErr != nil:
		return written, fmt.Errorf("close file: %w", closeErr)
	case maxBytes > 0 && written > maxBytes:
		return written, tooLarge(maxBytes)
	}

	return written, nil
}

func tooLarge(limit int64) error {
	return fmt.Errorf("source exceeds the %s limit", humanize.Bytes(uint64(limit)))
}
