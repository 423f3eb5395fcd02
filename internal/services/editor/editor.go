// Package editor runs an edit request end to end: it validates the fields,
// stages the source in a fresh workspace, encodes it and uploads the
// results. The workspace is released on every path.
package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
	"github.com/ArnabMallick12/Video-Editor/internal/encoder"
	"github.com/ArnabMallick12/Video-Editor/internal/filter"
	"github.com/ArnabMallick12/Video-Editor/internal/storage"
	"github.com/ArnabMallick12/Video-Editor/internal/types"
	"github.com/ArnabMallick12/Video-Editor/internal/types/edit"
	"github.com/ArnabMallick12/Video-Editor/internal/workspace"
)

type Workspaces interface {
	Acquire() (*workspace.Workspace, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, sourceURL, dst string) (int64, error)
}

type PlanBuilder interface {
	Build(opts edit.EditOptions) (filter.Plan, error)
}

type Processor interface {
	Process(ctx context.Context, job encoder.Job) error
}

// Prober is optional. When set, the length of every produced clip is logged.
type Prober interface {
	Probe(ctx context.Context, path string) (encoder.MediaInfo, error)
}

// Thumbnail is an image attached to the request, stored next to the video.
type Thumbnail struct {
	Body io.Reader
	Size int64
}

// Request is one edit request as received from the transport.
type Request struct {
	Fields    edit.Fields
	Thumbnail *Thumbnail
}

// Deps are the collaborators of a Service. Prober may be nil.
type Deps struct {
	Workspaces Workspaces
	Fetcher    Fetcher
	Builder    PlanBuilder
	Processor  Processor
	Prober     Prober
	Store      storage.ArtifactStore
}

type Service struct {
	deps   Deps
	logger *slog.Logger
}

func NewService(deps Deps, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{deps: deps, logger: logger}
}

// Edit processes req. Each stage runs only if the previous one succeeded and
// the first failure is returned as is.
func (s *Service) Edit(ctx context.Context, req Request) (*types.EditResult, error) {
	opts, err := edit.Parse(req.Fields)
	if err != nil {
		return nil, err
	}

	var thumb *preparedThumbnail
	if req.Thumbnail != nil {
		if thumb, err = prepareThumbnail(req.Thumbnail); err != nil {
			return nil, err
		}
	}

	ws, err := s.deps.Workspaces.Acquire()
	if err != nil {
		return nil, err
	}
	defer ws.Release()

	if thumb != nil {
		closeThumb, err := thumb.stage(ws)
		if err != nil {
			return nil, err
		}
		defer closeThumb()
	}

	logger := s.logger.With(slog.String("workspace_id", ws.ID))
	logger.Info("edit request accepted",
		slog.String("source_url", opts.SourceURL),
		slog.Float64("trim_start", opts.TrimStart),
		slog.Float64("trim_end", opts.TrimEnd),
		slog.Bool("muted", opts.Muted),
		slog.Bool("overlay", opts.Overlay.Enabled()))

	if _, err := s.deps.Fetcher.Fetch(ctx, opts.SourceURL, ws.InputPath); err != nil {
		return nil, err
	}

	plan, err := s.deps.Builder.Build(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	job := encoder.Job{
		InputPath:  ws.InputPath,
		OutputPath: ws.OutputPath,
		Plan:       plan,
		Muted:      opts.Muted,
	}
	if err := s.deps.Processor.Process(ctx, job); err != nil {
		logger.Error("encoding failed", slog.String("error", err.Error()))
		return nil, err
	}
	s.logClip(ctx, logger, ws.OutputPath, time.Since(start))

	video, err := s.uploadVideo(ctx, ws.OutputPath)
	if err != nil {
		return nil, err
	}

	result := &types.EditResult{WorkspaceID: ws.ID, Video: video}

	if thumb != nil {
		artifact, err := s.uploadThumbnail(ctx, thumb)
		if err != nil {
			return nil, err
		}
		result.Thumbnail = &artifact
	}

	logger.Info("edit request completed", slog.String("video_url", video.URL))

	return result, nil
}

func (s *Service) uploadVideo(ctx context.Context, path string) (types.ProcessedArtifact, error) {
	key := storage.ProcessedKey()

	f, err := os.Open(path)
	if err != nil {
		return types.ProcessedArtifact{}, &apperr.ProcessingError{ExitCode: 0, Err: fmt.Errorf("open output: %w", err)}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return types.ProcessedArtifact{}, &apperr.ProcessingError{ExitCode: 0, Err: fmt.Errorf("stat output: %w", err)}
	}

	url, err := s.deps.Store.Upload(ctx, key, f, info.Size(), types.ContentTypeMP4)
	if err != nil {
		return types.ProcessedArtifact{}, asStorageError(key, err)
	}

	return types.ProcessedArtifact{
		Key:         key,
		URL:         url,
		ContentType: types.ContentTypeMP4,
		Size:        info.Size(),
	}, nil
}

// sniffLen is how much of a thumbnail is read to detect its type.
const sniffLen = 3072

type preparedThumbnail struct {
	body        io.Reader
	size        int64
	contentType string
	// staged is false for a body that cannot seek. Its size is only known
	// once it has been copied into the workspace.
	staged bool
}

// prepareThumbnail checks that the attachment is an image. Only the first
// sniffLen bytes are read, so the check runs before any workspace exists.
func prepareThumbnail(thumb *Thumbnail) (*preparedThumbnail, error) {
	invalid := func(err error) error {
		return &apperr.ValidationError{Field: "thumbnail", Reason: err.Error()}
	}

	prepared := &preparedThumbnail{size: thumb.Size}

	var mt *mimetype.MIME
	if rs, ok := thumb.Body.(io.ReadSeeker); ok {
		var err error
		if mt, err = mimetype.DetectReader(rs); err != nil {
			return nil, invalid(err)
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, invalid(err)
		}
		prepared.body = rs
		prepared.staged = true
	} else {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(thumb.Body, head)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, invalid(err)
		}
		head = head[:n]
		mt = mimetype.Detect(head)
		prepared.body = io.MultiReader(bytes.NewReader(head), thumb.Body)
	}

	if !isImage(mt) {
		return nil, invalid(fmt.Errorf("expected an image, got %s", mt.String()))
	}
	prepared.contentType = mt.String()

	return prepared, nil
}

// stage copies a body that cannot seek into ws, so the upload gets a known
// size and the copy goes away with the workspace. The returned func closes the
// copy and must run before ws is released.
func (t *preparedThumbnail) stage(ws *workspace.Workspace) (func(), error) {
	if t.staged {
		return func() {}, nil
	}

	path := ws.Path("thumbnail.upload")
	f, err := os.Create(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, &apperr.PermissionError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("stage thumbnail: %w", err)
	}

	n, err := io.Copy(f, t.body)
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		f.Close()
		return nil, &apperr.ValidationError{Field: "thumbnail", Reason: err.Error()}
	}

	t.body = f
	t.size = n
	t.staged = true
	return func() { f.Close() }, nil
}

func isImage(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("image/jpeg") || m.Is("image/png") || m.Is("image/gif") || m.Is("image/webp") {
			return true
		}
	}
	return false
}

func (s *Service) uploadThumbnail(ctx context.Context, thumb *preparedThumbnail) (types.ProcessedArtifact, error) {
	key := storage.ThumbnailKey(thumb.contentType)
	url, err := s.deps.Store.Upload(ctx, key, thumb.body, thumb.size, thumb.contentType)
	if err != nil {
		return types.ProcessedArtifact{}, asStorageError(key, err)
	}

	return types.ProcessedArtifact{
		Key:         key,
		URL:         url,
		ContentType: thumb.contentType,
		Size:        thumb.size,
	}, nil
}

func (s *Service) logClip(ctx context.Context, logger *slog.Logger, path string, took time.Duration) {
	if s.deps.Prober == nil {
		return
	}
	info, err := s.deps.Prober.Probe(ctx, path)
	if err != nil {
		logger.Warn("failed to probe output", slog.String("error", err.Error()))
		return
	}
	logger.Info("clip encoded",
		slog.Duration("duration", info.Duration),
		slog.Int("width", info.Width),
		slog.Int("height", info.Height),
		slog.Duration("took", took))
}

func asStorageError(key string, err error) error {
	if apperr.KindOf(err) == apperr.KindStorage {
		return err
	}
	return &apperr.StorageError{Key: key, Err: err}
}
