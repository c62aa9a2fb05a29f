package storage

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/storage")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	ctx := context.Background()

	key := "uploads/images/photo_abc1234567.png"
	payload := []byte("fake image bytes")
	if err := store.Upload(ctx, key, bytes.NewReader(payload), int64(len(payload)), "image/png"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	ok, err := store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Fatal("blob missing after upload")
	}

	rc, err := store.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("round trip mismatch: got %q", got)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ok, err = store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("blob still present after delete")
	}
}

func TestLocalStorageDeleteMissingIsNoop(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/storage")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	if err := store.Delete(context.Background(), "uploads/images/never_there.png"); err != nil {
		t.Errorf("Delete of missing blob: %v", err)
	}
}

func TestLocalStorageGetURL(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/storage/")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	if got, want := store.GetURL("uploads/images/a.png"), "/storage/uploads/images/a.png"; got != want {
		t.Errorf("GetURL: got %q, want %q", got, want)
	}
}

func TestLocalStoragePathConfinement(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStorage(root, "/storage")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	// Hostile keys must resolve inside the root.
	for _, key := range []string{"../../etc/passwd", "a/../../b", "/absolute"} {
		p := store.path(key)
		rel, err := filepath.Rel(root, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			t.Errorf("key %q escaped root: %q", key, p)
		}
	}
}
