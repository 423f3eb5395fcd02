package editor_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
	"github.com/ArnabMallick12/Video-Editor/internal/encoder"
	"github.com/ArnabMallick12/Video-Editor/internal/filter"
	"github.com/ArnabMallick12/Video-Editor/internal/services/editor"
	"github.com/ArnabMallick12/Video-Editor/internal/storage"
	"github.com/ArnabMallick12/Video-Editor/internal/types/edit"
	"github.com/ArnabMallick12/Video-Editor/internal/workspace"
)

// copyEncoder concatenates the input file and its own argument vector into
// the output file, so every output identifies the request that produced it.
const copyEncoder = `in=$2
for last; do :; done
cat "$in" > "$last"
printf '%s\n' "$@" >> "$last"`

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fakeFetcher struct {
	calls atomic.Int32
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, sourceURL, dst string) (int64, error) {
	f.calls.Add(1)
	if f.err != nil {
		return 0, f.err
	}
	body := "source:" + sourceURL + "\n"
	return int64(len(body)), os.WriteFile(dst, []byte(body), 0o644)
}

type countingProcessor struct {
	calls atomic.Int32
	next  editor.Processor
}

func (p *countingProcessor) Process(ctx context.Context, job encoder.Job) error {
	p.calls.Add(1)
	return p.next.Process(ctx, job)
}

type fakeProber struct{ calls atomic.Int32 }

func (p *fakeProber) Probe(context.Context, string) (encoder.MediaInfo, error) {
	p.calls.Add(1)
	return encoder.MediaInfo{Duration: 3 * time.Second, Width: 640, Height: 360}, nil
}

type memStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	// files records the path of bodies uploaded from disk.
	files map[string]string
	err   error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, contentTypes: map[string]string{}, files: map[string]string{}}
}

func (s *memStore) Upload(_ context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if int64(len(data)) != size {
		return "", fmt.Errorf("size %d does not match body of %d bytes", size, len(data))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.contentTypes[key] = contentType
	if f, ok := body.(*os.File); ok {
		s.files[key] = f.Name()
	}
	return "https://cdn.example.com/" + key, nil
}

func (s *memStore) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.objects[key])
}

type harness struct {
	svc       *editor.Service
	root      *workspace.Root
	fetcher   *fakeFetcher
	processor *countingProcessor
	prober    *fakeProber
	store     *memStore
}

func newHarness(t *testing.T, script string) *harness {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake encoder scripts need a POSIX shell")
	}

	dir := t.TempDir()
	bin := filepath.Join(dir, "ffmpeg")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	font := filepath.Join(dir, "font.ttf")
	require.NoError(t, os.WriteFile(font, []byte("font"), 0o644))

	root, err := workspace.NewRoot(filepath.Join(dir, "temp"), nil)
	require.NoError(t, err)

	h := &harness{
		root:      root,
		fetcher:   &fakeFetcher{},
		processor: &countingProcessor{next: encoder.New(encoder.Config{FfmpegBinPath: bin, Timeout: 30 * time.Second}, nil)},
		prober:    &fakeProber{},
		store:     newMemStore(),
	}
	h.svc = editor.NewService(editor.Deps{
		Workspaces: root,
		Fetcher:    h.fetcher,
		Builder:    filter.NewBuilder(font),
		Processor:  h.processor,
		Prober:     h.prober,
		Store:      h.store,
	}, nil)
	return h
}

// assertNoResidue checks that no request left anything under the root.
func (h *harness) assertNoResidue(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(h.root.Dir())
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEdit_Success(t *testing.T) {
	h := newHarness(t, copyEncoder)

	result, err := h.svc.Edit(context.Background(), editor.Request{
		Fields: edit.Fields{
			edit.FieldSourceURL:   "https://example.com/in.mp4",
			edit.FieldTrimStart:   "1",
			edit.FieldTrimEnd:     "4",
			edit.FieldOverlayText: "hello",
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Video.Key, storage.ProcessedPrefix))
	assert.Equal(t, "https://cdn.example.com/"+result.Video.Key, result.Video.URL)
	assert.Equal(t, "video/mp4", h.store.contentTypes[result.Video.Key])
	assert.Nil(t, result.Thumbnail)

	out := h.store.get(result.Video.Key)
	assert.Contains(t, out, "source:https://example.com/in.mp4")
	assert.Contains(t, out, "-ss\n1\n-t\n3\n")
	assert.Contains(t, out, "text='hello'")
	assert.Contains(t, out, "-codec:a\ncopy\n")

	assert.EqualValues(t, 1, h.prober.calls.Load())
	h.assertNoResidue(t)
}

func TestEdit_WithThumbnail(t *testing.T) {
	h := newHarness(t, copyEncoder)

	thumb := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 64)...)
	result, err := h.svc.Edit(context.Background(), editor.Request{
		Fields: edit.Fields{edit.FieldVideoURLAlias: "https://example.com/in.mp4"},
		Thumbnail: &editor.Thumbnail{
			Body: bytes.NewReader(thumb),
			Size: int64(len(thumb)),
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Thumbnail)

	assert.True(t, strings.HasPrefix(result.Thumbnail.Key, storage.ThumbnailPrefix))
	assert.True(t, strings.HasSuffix(result.Thumbnail.Key, ".png"))
	assert.Equal(t, "image/png", result.Thumbnail.ContentType)
	assert.Equal(t, string(thumb), h.store.get(result.Thumbnail.Key))
	h.assertNoResidue(t)
}

func TestEdit_StreamedThumbnailStagedInWorkspace(t *testing.T) {
	h := newHarness(t, copyEncoder)

	thumb := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{7}, 8192)...)
	result, err := h.svc.Edit(context.Background(), editor.Request{
		Fields: edit.Fields{edit.FieldSourceURL: "https://example.com/in.mp4"},
		// MultiReader hides the Seek method of the underlying reader.
		Thumbnail: &editor.Thumbnail{Body: io.MultiReader(bytes.NewReader(thumb))},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Thumbnail)

	assert.Equal(t, int64(len(thumb)), result.Thumbnail.Size)
	assert.Equal(t, string(thumb), h.store.get(result.Thumbnail.Key))

	h.store.mu.Lock()
	staged := h.store.files[result.Thumbnail.Key]
	h.store.mu.Unlock()
	assert.Equal(t, filepath.Join(h.root.Dir(), result.WorkspaceID, "thumbnail.upload"), staged)
	h.assertNoResidue(t)
}

func TestEdit_ThumbnailNotAnImage(t *testing.T) {
	h := newHarness(t, copyEncoder)

	_, err := h.svc.Edit(context.Background(), editor.Request{
		Fields: edit.Fields{edit.FieldSourceURL: "https://example.com/in.mp4"},
		Thumbnail: &editor.Thumbnail{
			Body: strings.NewReader("just some text"),
		},
	})

	var validationErr *apperr.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "thumbnail", validationErr.Field)
	assert.Zero(t, h.fetcher.calls.Load())
	assert.Zero(t, h.processor.calls.Load())
}

func TestEdit_MissingSourceURL(t *testing.T) {
	h := newHarness(t, copyEncoder)

	_, err := h.svc.Edit(context.Background(), editor.Request{
		Fields: edit.Fields{edit.FieldOverlayText: "hello"},
	})

	var validationErr *apperr.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, edit.FieldSourceURL, validationErr.Field)
	assert.Zero(t, h.fetcher.calls.Load(), "no network activity")
	assert.Zero(t, h.processor.calls.Load(), "no process spawn")
	assert.NoDirExists(t, h.root.Dir(), "no workspace acquired")
}

func TestEdit_FetchFailure(t *testing.T) {
	h := newHarness(t, copyEncoder)
	h.fetcher.err = &apperr.FetchError{URL: "https://example.com/in.mp4", StatusCode: 404}

	_, err := h.svc.Edit(context.Background(), editor.Request{
		Fields: edit.Fields{edit.FieldSourceURL: "https://example.com/in.mp4"},
	})

	assert.Equal(t, apperr.KindFetch, apperr.KindOf(err))
	assert.Zero(t, h.processor.calls.Load())
	h.assertNoResidue(t)
}

func TestEdit_EncoderExitCode(t *testing.T) {
	h := newHarness(t, `echo "Invalid argument" >&2
exit 2`)

	_, err := h.svc.Edit(context.Background(), editor.Request{
		Fields: edit.Fields{edit.FieldSourceURL: "https://example.com/in.mp4"},
	})

	var procErr *apperr.ProcessingError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, 2, procErr.ExitCode)
	assert.Empty(t, h.store.objects)
	h.assertNoResidue(t)
}

func TestEdit_MissingFontFailsBeforeSpawn(t *testing.T) {
	h := newHarness(t, copyEncoder)
	h.svc = editor.NewService(editor.Deps{
		Workspaces: h.root,
		Fetcher:    h.fetcher,
		Builder:    filter.NewBuilder(filepath.Join(t.TempDir(), "missing.ttf")),
		Processor:  h.processor,
		Store:      h.store,
	}, nil)

	_, err := h.svc.Edit(context.Background(), editor.Request{
		Fields: edit.Fields{
			edit.FieldSourceURL:   "https://example.com/in.mp4",
			edit.FieldOverlayText: "hello",
		},
	})

	assert.Equal(t, apperr.KindResourceNotFound, apperr.KindOf(err))
	assert.Zero(t, h.processor.calls.Load())
	h.assertNoResidue(t)
}

func TestEdit_StorageFailure(t *testing.T) {
	h := newHarness(t, copyEncoder)
	h.store.err = errors.New("bucket unavailable")

	_, err := h.svc.Edit(context.Background(), editor.Request{
		Fields: edit.Fields{edit.FieldSourceURL: "https://example.com/in.mp4"},
	})

	var storageErr *apperr.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.True(t, strings.HasPrefix(storageErr.Key, storage.ProcessedPrefix))
	h.assertNoResidue(t)
}

func TestEdit_ConcurrentRequestsAreIndependent(t *testing.T) {
	h := newHarness(t, copyEncoder)

	const n = 40
	results := make([]string, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			result, err := h.svc.Edit(context.Background(), editor.Request{
				Fields: edit.Fields{
					edit.FieldSourceURL:   "https://example.com/clip-" + strconv.Itoa(i) + ".mp4",
					edit.FieldOverlayText: "request " + strconv.Itoa(i),
					edit.FieldTrimStart:   strconv.Itoa(i + 1),
					edit.FieldTrimEnd:     strconv.Itoa(i + 3),
				},
			})
			errs[i] = err
			if err == nil {
				results[i] = result.Video.Key
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i], "request %d", i)
		require.False(t, seen[results[i]], "duplicate key %s", results[i])
		seen[results[i]] = true

		out := h.store.get(results[i])
		assert.Contains(t, out, "source:https://example.com/clip-"+strconv.Itoa(i)+".mp4\n")
		assert.Contains(t, out, "text='request "+strconv.Itoa(i)+"'")
		assert.Contains(t, out, "-ss\n"+strconv.Itoa(i+1)+"\n-t\n2\n")
	}
	h.assertNoResidue(t)
}
