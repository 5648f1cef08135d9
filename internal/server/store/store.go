package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrRecordNotFound = errors.New("file record not found")
)

// FileRecord is the persisted metadata row describing one relayed file.
// The JSON field names match the records written by earlier deployments,
// so an existing db.json can be served as-is.
type FileRecord struct {
	ID               string    `json:"id"`
	ChannelFileRef   string    `json:"file_id"`
	ChannelUniqueRef string    `json:"file_unique_id,omitempty"`
	FileName         string    `json:"file_name"`
	Caption          string    `json:"caption"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// Store persists file records. Records are immutable once appended;
// there is no update or delete.
type Store interface {
	// Append adds a new record. IDs are assigned by the caller and must be unique.
	Append(ctx context.Context, rec FileRecord) error
	// List returns all records ordered by upload time, newest first.
	List(ctx context.Context) ([]FileRecord, error)
	// Find looks up a record by its public id, falling back to the channel
	// file reference for identifiers minted by legacy deployments.
	// Returns ErrRecordNotFound when nothing matches.
	Find(ctx context.Context, id string) (*FileRecord, error)
	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// MemoryStore keeps records in memory. Used in tests and as a reference
// implementation of the ordering contract.
type MemoryStore struct {
	mu   sync.RWMutex
	recs []FileRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(ctx context.Context, rec FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]FileRecord, len(m.recs))
	copy(out, m.recs)
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) Find(ctx context.Context, id string) (*FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.recs {
		if m.recs[i].ID == id || m.recs[i].ChannelFileRef == id {
			rec := m.recs[i]
			return &rec, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *MemoryStore) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.recs)), nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// sortNewestFirst orders records by upload time descending. Ties fall back
// to id so the order is stable for records appended within the same instant.
func sortNewestFirst(recs []FileRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].UploadedAt.Equal(recs[j].UploadedAt) {
			return recs[i].ID > recs[j].ID
		}
		return recs[i].UploadedAt.After(recs[j].UploadedAt)
	})
}
