package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestObjectStoreRemove(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	bucket := NewObjectStore(srv.URL, "secret-token")
	if err := bucket.Remove(context.Background(), "media", "videos/demo.mp4"); err != nil {
		t.Fatalf("failed to remove: %v", err)
	}

	if gotMethod != http.MethodDelete {
		t.Fatalf("expected DELETE, got %s", gotMethod)
	}
	if gotPath != "/object/media/videos/demo.mp4" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
}

func TestObjectStoreRemoveTolerates404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	bucket := NewObjectStore(srv.URL, "")
	if err := bucket.Remove(context.Background(), "media", "gone.jpg"); err != nil {
		t.Fatalf("404 must not be an error: %v", err)
	}
}

func TestObjectStoreRemoveServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	bucket := NewObjectStore(srv.URL, "")
	if err := bucket.Remove(context.Background(), "media", "broken.jpg"); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestObjectStoreRemoveNoop(t *testing.T) {
	bucket := NewObjectStore("", "")
	if err := bucket.Remove(context.Background(), "media", "any.jpg"); err != nil {
		t.Fatalf("empty base url must be a noop: %v", err)
	}

	withBase := NewObjectStore("http://localhost:1", "")
	if err := withBase.Remove(context.Background(), "media", ""); err != nil {
		t.Fatalf("empty key must be a noop: %v", err)
	}
}

func TestMediaCacheEvict(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thumb.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	media := NewMediaCache(dir)
	if err := media.Evict("../../thumb.jpg"); err != nil {
		t.Fatalf("failed to evict: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file to be removed")
	}

	// 再次淘汰不存在的文件不算错误
	if err := media.Evict("thumb.jpg"); err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
}
