package s3_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
	"github.com/ArnabMallick12/Video-Editor/internal/storage/s3"
)

func newServer(t *testing.T, status int) (*httptest.Server, *[]*http.Request) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []*http.Request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		requests = append(requests, r)
		mu.Unlock()

		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)
			return
		}
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newStore(t *testing.T, endpoint, publicBase string) *s3.Store {
	t.Helper()
	store, err := s3.New(context.Background(), s3.Config{
		Bucket:          "videos",
		Region:          "us-east-1",
		Endpoint:        endpoint,
		UsePathStyle:    true,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		PublicBaseURL:   publicBase,
	}, nil)
	require.NoError(t, err)
	return store
}

func TestUpload_PathStyleEndpoint(t *testing.T) {
	srv, requests := newServer(t, http.StatusOK)
	store := newStore(t, srv.URL, "")

	url, err := store.Upload(context.Background(), "processed/clip.mp4", bytes.NewReader([]byte("video")), 5, "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/videos/processed/clip.mp4", url)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/videos/processed/clip.mp4", req.URL.Path)
	assert.Equal(t, "video/mp4", req.Header.Get("Content-Type"))
}

func TestUpload_PublicBaseURL(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK)
	store := newStore(t, srv.URL, "https://cdn.example.com")

	url, err := store.Upload(context.Background(), "thumbnails/t.jpg", bytes.NewReader([]byte("img")), 3, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/thumbnails/t.jpg", url)
}

func TestUpload_Failure(t *testing.T) {
	srv, _ := newServer(t, http.StatusForbidden)
	store := newStore(t, srv.URL, "")

	_, err := store.Upload(context.Background(), "processed/clip.mp4", bytes.NewReader([]byte("video")), 5, "video/mp4")
	require.Error(t, err)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
}
