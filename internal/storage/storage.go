package storage

import (
	"context"
	"io"
	"mime"
	"strings"

	"github.com/google/uuid"
)

// Key prefixes keeping processed videos and thumbnails apart.
const (
	ProcessedPrefix = "processed/"
	ThumbnailPrefix = "thumbnails/"
)

// ArtifactStore persists finished artifacts and returns a public URL for
// them. Uploading to an existing key overwrites it. Implementations wrap
// failures in *apperr.StorageError and do not retry.
type ArtifactStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// ProcessedKey returns a fresh object key for an edited video.
func ProcessedKey() string {
	return ProcessedPrefix + uuid.NewString() + ".mp4"
}

// ThumbnailKey returns a fresh object key for a thumbnail image with the
// extension of its detected contentType. Client file names are never used.
func ThumbnailKey(contentType string) string {
	return ThumbnailPrefix + uuid.NewString() + extension(contentType)
}

func extension(contentType string) string {
	// Fallbacks for types the host mime table does not always know.
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}

	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// JoinURL appends key to base with exactly one slash between them.
func JoinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
