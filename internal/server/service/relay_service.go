package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tgstash/internal/server/store"
)

// Sentinel errors for the service layer.
var (
	ErrNotFound      = errors.New("file record not found")
	ErrRelayFailed   = errors.New("relay send failed")
	ErrStoreFailed   = errors.New("store write failed")
	ErrResolveFailed = errors.New("resolve failed")
)

// fallbackName is used when neither the form field nor the multipart part
// carries a file name.
const fallbackName = "unnamed"

// Relay is the channel client the service depends on: send bytes to the
// channel, resolve a stored reference to a relative delivery path, and
// compose the final delivery URL.
type Relay interface {
	Send(ctx context.Context, name, caption string, data io.Reader) (fileRef, uniqueRef string, err error)
	Resolve(ctx context.Context, fileRef string) (filePath string, err error)
	FileURL(filePath string) string
}

// Spool is the temporary upload buffer. Entries must be removed on every
// exit path.
type Spool interface {
	Save(uploadID string, data io.Reader) (int64, error)
	Open(uploadID string) (io.ReadCloser, error)
	Remove(uploadID string) error
}

// Stats holds aggregate service statistics.
type Stats struct {
	TotalFiles   int64      `json:"total_files"`
	LastUploaded *time.Time `json:"last_uploaded_at,omitempty"`
}

// RelayService contains the business logic for relaying files to the
// channel and resolving them back.
type RelayService struct {
	store store.Store
	relay Relay
	spool Spool
}

// NewRelayService creates a new relay service.
func NewRelayService(st store.Store, relay Relay, spool Spool) *RelayService {
	return &RelayService{
		store: st,
		relay: relay,
		spool: spool,
	}
}

// Upload relays a single uploaded file to the channel and, only after the
// relay confirms success, appends a metadata record. The bytes are spooled
// locally for the duration of the relay attempt and removed again on every
// exit path.
//
// The effective file name is the filename form field when non-empty, else
// the multipart part's original name, else a fixed fallback.
func (s *RelayService) Upload(ctx context.Context, fieldName, originalName, caption string, data io.Reader) (*store.FileRecord, error) {
	name := fieldName
	if name == "" {
		name = originalName
	}
	if name == "" {
		name = fallbackName
	}

	id := uuid.NewString()

	// Spool the bytes so the relay client can stream a regular file.
	size, err := s.spool.Save(id, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRelayFailed, err)
	}
	defer func() {
		if err := s.spool.Remove(id); err != nil {
			slog.Error("failed to remove spool entry", "upload_id", id, "error", err)
		}
	}()

	spooled, err := s.spool.Open(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRelayFailed, err)
	}
	defer spooled.Close()

	// All-or-nothing: a failed relay writes no record.
	fileRef, uniqueRef, err := s.relay.Send(ctx, name, caption, spooled)
	if err != nil {
		slog.Error("relay send failed", "upload_id", id, "file_name", name, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrRelayFailed, err)
	}

	rec := store.FileRecord{
		ID:               id,
		ChannelFileRef:   fileRef,
		ChannelUniqueRef: uniqueRef,
		FileName:         name,
		Caption:          caption,
		UploadedAt:       time.Now().UTC(),
	}

	if err := s.store.Append(ctx, rec); err != nil {
		// The channel object is now orphaned; nothing references it locally.
		slog.Error("store write failed after successful relay",
			"upload_id", id,
			"channel_file_ref", fileRef,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}

	slog.Info("upload relayed",
		"upload_id", id,
		"file_name", name,
		"size", size,
		"channel_file_ref", fileRef,
	)
	return &rec, nil
}

// List returns all file records, newest first.
func (s *RelayService) List(ctx context.Context) ([]store.FileRecord, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list file records: %w", err)
	}
	return recs, nil
}

// Download looks up a record and resolves its channel reference into a
// time-limited delivery URL. The URL is ephemeral and never persisted.
func (s *RelayService) Download(ctx context.Context, id string) (string, error) {
	rec, err := s.store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to look up file record: %w", err)
	}

	filePath, err := s.relay.Resolve(ctx, rec.ChannelFileRef)
	if err != nil {
		slog.Error("resolve failed",
			"id", rec.ID,
			"channel_file_ref", rec.ChannelFileRef,
			"error", err,
		)
		return "", fmt.Errorf("%w: %v", ErrResolveFailed, err)
	}

	return s.relay.FileURL(filePath), nil
}

// GetStats returns aggregate service statistics.
func (s *RelayService) GetStats(ctx context.Context) (*Stats, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count file records: %w", err)
	}

	stats := &Stats{TotalFiles: total}
	if total > 0 {
		recs, err := s.store.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list file records: %w", err)
		}
		if len(recs) > 0 {
			last := recs[0].UploadedAt
			stats.LastUploaded = &last
		}
	}
	return stats, nil
}
