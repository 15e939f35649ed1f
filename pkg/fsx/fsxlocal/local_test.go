package fsxlocal_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/fsx"
	"github.com/Abraxas-365/academy/pkg/fsx/fsxlocal"
)

func newStorage(t *testing.T) *fsxlocal.LocalStorage {
	t.Helper()
	s, err := fsxlocal.NewLocalStorage(t.TempDir(), "/uploads/")
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}
	return s
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	data := []byte("avatar bytes")

	if err := s.Write(ctx, "avatars/u1.png", data, "image/png"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	exists, err := s.Exists(ctx, "avatars/u1.png")
	if err != nil || !exists {
		t.Fatalf("Exists: got %v, %v", exists, err)
	}

	got, err := s.Read(ctx, "avatars/u1.png")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("read back %q", got)
	}

	if err := s.Delete(ctx, "avatars/u1.png"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if exists, _ := s.Exists(ctx, "avatars/u1.png"); exists {
		t.Error("file still exists after delete")
	}

	// Deleting a missing file is not an error.
	if err := s.Delete(ctx, "avatars/u1.png"); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
}

func TestLocalStorage_ReadMissing(t *testing.T) {
	s := newStorage(t)

	_, err := s.Read(context.Background(), "nope.png")
	if !errx.HasCode(err, fsx.CodeNotFound) {
		t.Fatalf("expected FSX_NOT_FOUND, got %v", err)
	}
}

func TestLocalStorage_EscapeIsContained(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	// Path traversal is cleaned relative to the base directory, never
	// outside it.
	if err := s.Write(ctx, "../../etc/passwd", []byte("x"), "text/plain"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := s.Read(ctx, "etc/passwd")
	if err != nil {
		t.Fatalf("cleaned path not written inside base dir: %v", err)
	}
	if string(got) != "x" {
		t.Errorf("read back %q", got)
	}
}

func TestLocalStorage_URL(t *testing.T) {
	s := newStorage(t)

	if got := s.URL("avatars/u1.png"); got != "/uploads/avatars/u1.png" {
		t.Errorf("URL: got %s", got)
	}
	if got := s.URL("/avatars/u1.png"); got != "/uploads/avatars/u1.png" {
		t.Errorf("URL with leading slash: got %s", got)
	}
}
