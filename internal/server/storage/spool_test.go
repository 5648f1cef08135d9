package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSpool_Save(t *testing.T) {
	t.Run("spools bytes to disk", func(t *testing.T) {
		dir := t.TempDir()
		spool := NewFileSpool(dir)

		data := bytes.NewReader([]byte("test content"))
		n, err := spool.Save("abc123", data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if n != 12 {
			t.Errorf("expected 12 bytes written, got %d", n)
		}

		content, err := os.ReadFile(filepath.Join(dir, "abc123.part"))
		if err != nil {
			t.Fatalf("failed to read spool entry: %v", err)
		}
		if string(content) != "test content" {
			t.Errorf("expected 'test content', got %q", content)
		}
	})
}

func TestFileSpool_Open(t *testing.T) {
	t.Run("reads back a spooled entry", func(t *testing.T) {
		dir := t.TempDir()
		spool := NewFileSpool(dir)

		spool.Save("read1", bytes.NewReader([]byte("payload")))

		r, err := spool.Open("read1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer r.Close()

		got, _ := io.ReadAll(r)
		if string(got) != "payload" {
			t.Errorf("expected 'payload', got %q", got)
		}
	})

	t.Run("errors for missing entry", func(t *testing.T) {
		spool := NewFileSpool(t.TempDir())

		if _, err := spool.Open("nonexistent"); err == nil {
			t.Error("expected error for missing spool entry")
		}
	})
}

func TestFileSpool_Remove(t *testing.T) {
	t.Run("removes existing entry", func(t *testing.T) {
		dir := t.TempDir()
		spool := NewFileSpool(dir)

		spool.Save("del123", bytes.NewReader([]byte("data")))

		if err := spool.Remove("del123"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(filepath.Join(dir, "del123.part")); !os.IsNotExist(err) {
			t.Error("expected spool entry to be removed")
		}
	})

	t.Run("no error for missing entry", func(t *testing.T) {
		spool := NewFileSpool(t.TempDir())

		if err := spool.Remove("nonexistent"); err != nil {
			t.Errorf("expected no error for missing entry, got: %v", err)
		}
	})
}

func TestFileSpool_EnsureDir(t *testing.T) {
	t.Run("creates directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "spool", "path")
		spool := NewFileSpool(dir)

		if err := spool.EnsureDir(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("directory not created: %v", err)
		}
		if !info.IsDir() {
			t.Error("expected a directory")
		}
	})

	t.Run("succeeds if directory exists", func(t *testing.T) {
		spool := NewFileSpool(t.TempDir())

		if err := spool.EnsureDir(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
