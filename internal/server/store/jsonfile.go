package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// jsonRecord is the on-disk shape of a record in the flat-file backend.
// uploaded_at is kept as Unix milliseconds, matching records written by
// earlier deployments of this service.
type jsonRecord struct {
	ID               string `json:"id"`
	ChannelFileRef   string `json:"file_id"`
	ChannelUniqueRef string `json:"file_unique_id,omitempty"`
	FileName         string `json:"file_name"`
	Caption          string `json:"caption"`
	UploadedAt       int64  `json:"uploaded_at"`
}

type jsonDB struct {
	Files []jsonRecord `json:"files"`
}

// JSONFileStore persists records in a single JSON file of the form
// {"files": [...]}. Every write serializes a full read-modify-write of the
// file under a mutex, so concurrent appends within one process never lose
// updates. Multi-process deployments should use the Postgres backend.
type JSONFileStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONFileStore opens (or creates) the flat-file store at path.
func NewJSONFileStore(path string) (*JSONFileStore, error) {
	s := &JSONFileStore{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		if err := s.write(jsonDB{Files: []jsonRecord{}}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat store file %s: %w", path, err)
	}

	// Fail fast on an unreadable or corrupt file rather than at first request.
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONFileStore) Append(ctx context.Context, rec FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.read()
	if err != nil {
		return err
	}
	db.Files = append(db.Files, toJSONRecord(rec))
	return s.write(db)
}

func (s *JSONFileStore) List(ctx context.Context) ([]FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.read()
	if err != nil {
		return nil, err
	}

	out := make([]FileRecord, 0, len(db.Files))
	for _, jr := range db.Files {
		out = append(out, fromJSONRecord(jr))
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *JSONFileStore) Find(ctx context.Context, id string) (*FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.read()
	if err != nil {
		return nil, err
	}
	for _, jr := range db.Files {
		if jr.ID == id || jr.ChannelFileRef == id {
			rec := fromJSONRecord(jr)
			return &rec, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (s *JSONFileStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.read()
	if err != nil {
		return 0, err
	}
	return int64(len(db.Files)), nil
}

func (s *JSONFileStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.read()
	return err
}

func (s *JSONFileStore) read() (jsonDB, error) {
	var db jsonDB
	data, err := os.ReadFile(s.path)
	if err != nil {
		return db, fmt.Errorf("failed to read store file %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &db); err != nil {
		return db, fmt.Errorf("failed to parse store file %s: %w", s.path, err)
	}
	return db, nil
}

// write replaces the store file atomically: marshal to a temp file in the
// same directory, then rename over the original.
func (s *JSONFileStore) write(db jsonDB) error {
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".store-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close store file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

func toJSONRecord(rec FileRecord) jsonRecord {
	return jsonRecord{
		ID:               rec.ID,
		ChannelFileRef:   rec.ChannelFileRef,
		ChannelUniqueRef: rec.ChannelUniqueRef,
		FileName:         rec.FileName,
		Caption:          rec.Caption,
		UploadedAt:       rec.UploadedAt.UnixMilli(),
	}
}

func fromJSONRecord(jr jsonRecord) FileRecord {
	return FileRecord{
		ID:               jr.ID,
		ChannelFileRef:   jr.ChannelFileRef,
		ChannelUniqueRef: jr.ChannelUniqueRef,
		FileName:         jr.FileName,
		Caption:          jr.Caption,
		UploadedAt:       time.UnixMilli(jr.UploadedAt).UTC(),
	}
}
