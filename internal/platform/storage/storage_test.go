package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("user-1", "image/png")
	if !strings.HasPrefix(key, "user-1/") {
		t.Errorf("key %q not prefixed with user id", key)
	}
	if matched, _ := regexp.MatchString(`^user-1/\d+_\d{6}\.png$`, key); !matched {
		t.Errorf("key %q does not match expected shape", key)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	url, err := s.Upload(ctx, "u1/photo.jpg", "image/jpeg", bytes.NewReader([]byte("pixels")))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "memory://u1/photo.jpg" {
		t.Errorf("url = %q", url)
	}

	data, ok := s.Get("u1/photo.jpg")
	if !ok || string(data) != "pixels" {
		t.Errorf("stored content = %q, ok=%v", data, ok)
	}

	if err := s.Delete(ctx, "u1/photo.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "u1/photo.jpg"); err != ErrObjectNotFound {
		t.Errorf("second delete: got %v, want ErrObjectNotFound", err)
	}
}

func TestMemoryStoreRejectsContentType(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Upload(context.Background(), "u1/doc.pdf", "application/pdf", strings.NewReader("x"))
	if err != ErrInvalidContentType {
		t.Errorf("got %v, want ErrInvalidContentType", err)
	}
}

func TestSupabaseStoreUpload(t *testing.T) {
	var gotPath, gotAuth, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSupabaseStore(srv.URL, "service-key", "patient-photos")
	url, err := s.Upload(context.Background(), "u1/1_000001.jpg", "image/jpeg", bytes.NewReader([]byte("pixels")))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if gotPath != "/storage/v1/object/patient-photos/u1/1_000001.jpg" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer service-key" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotType != "image/jpeg" {
		t.Errorf("content type = %q", gotType)
	}
	if string(gotBody) != "pixels" {
		t.Errorf("body = %q", gotBody)
	}
	want := srv.URL + "/storage/v1/object/public/patient-photos/u1/1_000001.jpg"
	if url != want {
		t.Errorf("url = %q, want %q", url, want)
	}
}

func TestSupabaseStoreUploadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewSupabaseStore(srv.URL, "key", "bucket")
	if _, err := s.Upload(context.Background(), "k", "image/png", strings.NewReader("x")); err == nil {
		t.Error("expected error on 400 response")
	}
}

func TestSupabaseStoreDeleteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewSupabaseStore(srv.URL, "key", "bucket")
	if err := s.Delete(context.Background(), "missing"); err != ErrObjectNotFound {
		t.Errorf("got %v, want ErrObjectNotFound", err)
	}
}
