package drive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/markdave123-py/Docshelf/internal/core"
)

func newDriveServer(t *testing.T, metaStatus, contentStatus int, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		if !strings.HasSuffix(r.URL.Path, "/files/file-1") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("alt") == "media" {
			w.WriteHeader(contentStatus)
			_, _ = w.Write([]byte("\x89PNG fake"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(metaStatus)
		if metaStatus == http.StatusOK {
			_, _ = w.Write([]byte(`{"name":"scan.png","mimeType":"image/png"}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"File not found"}}`))
	}))
}

func TestFetchReadsMetadataThenContent(t *testing.T) {
	var calls int32
	srv := newDriveServer(t, http.StatusOK, http.StatusOK, &calls)
	defer srv.Close()

	f := NewFetcher(srv.URL+"/drive/v3/", 1<<20)
	file, err := f.Fetch(context.Background(), "file-1", "tok-1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if file.Name != "scan.png" || file.MIMEType != "image/png" || string(file.Data) != "\x89PNG fake" {
		t.Fatalf("file = %+v", file)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestFetchMetadataFailure(t *testing.T) {
	var calls int32
	srv := newDriveServer(t, http.StatusNotFound, http.StatusOK, &calls)
	defer srv.Close()

	_, err := NewFetcher(srv.URL+"/drive/v3/", 0).Fetch(context.Background(), "file-1", "tok-1")
	if !errors.Is(err, core.ErrUpstreamFetch) {
		t.Fatalf("err = %v, want ErrUpstreamFetch", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("content fetched after metadata failure (calls = %d)", calls)
	}
}

func TestFetchContentFailure(t *testing.T) {
	var calls int32
	srv := newDriveServer(t, http.StatusOK, http.StatusForbidden, &calls)
	defer srv.Close()

	_, err := NewFetcher(srv.URL+"/drive/v3/", 0).Fetch(context.Background(), "file-1", "tok-1")
	if !errors.Is(err, core.ErrUpstreamFetch) {
		t.Fatalf("err = %v, want ErrUpstreamFetch", err)
	}
}

func TestFetchRequiresIdentifiers(t *testing.T) {
	_, err := NewFetcher("", 0).Fetch(context.Background(), " ", "tok")
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestFetchEnforcesSizeLimit(t *testing.T) {
	var calls int32
	srv := newDriveServer(t, http.StatusOK, http.StatusOK, &calls)
	defer srv.Close()

	_, err := NewFetcher(srv.URL+"/drive/v3/", 4).Fetch(context.Background(), "file-1", "tok-1")
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
