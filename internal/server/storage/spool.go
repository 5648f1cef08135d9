package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Spool defines the interface for the temporary upload buffer.
// Uploaded bytes are spooled locally before the relay attempt and removed
// again on every exit path, success or failure.
type Spool interface {
	Save(uploadID string, data io.Reader) (int64, error)
	Open(uploadID string) (io.ReadCloser, error)
	Remove(uploadID string) error
	EnsureDir() error
}

// FileSpool buffers uploads on the local filesystem.
type FileSpool struct {
	basePath string
}

// NewFileSpool creates a filesystem-backed spool rooted at basePath.
func NewFileSpool(basePath string) *FileSpool {
	return &FileSpool{basePath: basePath}
}

// EnsureDir creates the spool directory if it doesn't exist.
func (fs *FileSpool) EnsureDir() error {
	if err := os.MkdirAll(fs.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create spool directory %s: %w", fs.basePath, err)
	}
	return nil
}

// Save writes data from a reader to the spool entry for uploadID.
// Returns the number of bytes written.
func (fs *FileSpool) Save(uploadID string, data io.Reader) (int64, error) {
	filePath := fs.filePath(uploadID)

	file, err := os.Create(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to create spool file %s: %w", filePath, err)
	}
	defer file.Close()

	n, err := io.Copy(file, data)
	if err != nil {
		// Clean up partial file on error
		os.Remove(filePath)
		return 0, fmt.Errorf("failed to write spool file: %w", err)
	}

	return n, nil
}

// Open returns a reader over a spooled upload.
func (fs *FileSpool) Open(uploadID string) (io.ReadCloser, error) {
	file, err := os.Open(fs.filePath(uploadID))
	if err != nil {
		return nil, fmt.Errorf("spool entry not found for upload %s: %w", uploadID, err)
	}
	return file, nil
}

// Remove deletes the spool entry for an upload. Missing entries are not
// an error, so Remove is safe to defer unconditionally.
func (fs *FileSpool) Remove(uploadID string) error {
	filePath := fs.filePath(uploadID)
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove spool file %s: %w", filePath, err)
	}
	return nil
}

func (fs *FileSpool) filePath(uploadID string) string {
	return filepath.Join(fs.basePath, uploadID+".part")
}
