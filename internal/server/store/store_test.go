package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func record(id, ref, name string, at time.Time) FileRecord {
	return FileRecord{
		ID:             id,
		ChannelFileRef: ref,
		FileName:       name,
		Caption:        "",
		UploadedAt:     at,
	}
}

func TestMemoryStore_List(t *testing.T) {
	t.Run("orders newest first regardless of insertion order", func(t *testing.T) {
		ctx := context.Background()
		s := NewMemoryStore()
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		// Insert out of order
		s.Append(ctx, record("b", "ref-b", "b.txt", base.Add(2*time.Hour)))
		s.Append(ctx, record("a", "ref-a", "a.txt", base))
		s.Append(ctx, record("c", "ref-c", "c.txt", base.Add(4*time.Hour)))

		recs, err := s.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"c", "b", "a"}
		if len(recs) != len(want) {
			t.Fatalf("expected %d records, got %d", len(want), len(recs))
		}
		for i, id := range want {
			if recs[i].ID != id {
				t.Errorf("position %d: expected %s, got %s", i, id, recs[i].ID)
			}
		}
	})

	t.Run("empty store lists zero records", func(t *testing.T) {
		recs, err := NewMemoryStore().List(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recs) != 0 {
			t.Errorf("expected empty list, got %d records", len(recs))
		}
	})
}

func TestMemoryStore_Find(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Append(ctx, record("id-1", "channel-ref-1", "a.txt", time.Now().UTC()))

	t.Run("finds by public id", func(t *testing.T) {
		rec, err := s.Find(ctx, "id-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.FileName != "a.txt" {
			t.Errorf("expected a.txt, got %s", rec.FileName)
		}
	})

	t.Run("finds by legacy channel reference", func(t *testing.T) {
		rec, err := s.Find(ctx, "channel-ref-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.ID != "id-1" {
			t.Errorf("expected id-1, got %s", rec.ID)
		}
	})

	t.Run("unknown id yields ErrRecordNotFound", func(t *testing.T) {
		if _, err := s.Find(ctx, "nope"); err != ErrRecordNotFound {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})
}

func TestJSONFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("append and list round-trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db.json")
		s, err := NewJSONFileStore(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		at := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
		rec := FileRecord{
			ID:               "abc",
			ChannelFileRef:   "BQACAgQAAx",
			ChannelUniqueRef: "AgADmQ",
			FileName:         "report.pdf",
			Caption:          "quarterly",
			UploadedAt:       at,
		}
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		recs, err := s.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recs) != 1 {
			t.Fatalf("expected 1 record, got %d", len(recs))
		}
		got := recs[0]
		if got.ID != "abc" || got.ChannelFileRef != "BQACAgQAAx" ||
			got.FileName != "report.pdf" || got.Caption != "quarterly" {
			t.Errorf("record fields mangled: %+v", got)
		}
		if !got.UploadedAt.Equal(at) {
			t.Errorf("expected %v, got %v", at, got.UploadedAt)
		}
	})

	t.Run("reads records written by earlier deployments", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db.json")
		legacy := `{"files":[{"id":"n4noid01","file_id":"BQAC_legacy","file_unique_id":"AgAD1",` +
			`"file_name":"old.txt","caption":"","uploaded_at":1717243200000}]}`
		if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
			t.Fatalf("failed to seed store: %v", err)
		}

		s, err := NewJSONFileStore(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rec, err := s.Find(ctx, "n4noid01")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.ChannelFileRef != "BQAC_legacy" {
			t.Errorf("expected BQAC_legacy, got %s", rec.ChannelFileRef)
		}
		want := time.UnixMilli(1717243200000).UTC()
		if !rec.UploadedAt.Equal(want) {
			t.Errorf("expected %v, got %v", want, rec.UploadedAt)
		}
	})

	t.Run("rejects corrupt store file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db.json")
		os.WriteFile(path, []byte("{not json"), 0644)

		if _, err := NewJSONFileStore(path); err == nil {
			t.Error("expected error for corrupt store file")
		}
	})

	t.Run("concurrent appends lose no records", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db.json")
		s, err := NewJSONFileStore(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		const n = 20
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := fmt.Sprintf("id-%02d", i)
				rec := record(id, "ref-"+id, id+".bin", time.Now().UTC())
				if err := s.Append(ctx, rec); err != nil {
					t.Errorf("append %s failed: %v", id, err)
				}
			}(i)
		}
		wg.Wait()

		count, err := s.Count(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != n {
			t.Errorf("expected %d records, got %d (lost updates)", n, count)
		}

		recs, _ := s.List(ctx)
		seen := make(map[string]bool, len(recs))
		for _, rec := range recs {
			if seen[rec.ID] {
				t.Errorf("duplicate id %s", rec.ID)
			}
			seen[rec.ID] = true
		}
	})

	t.Run("creates missing file and parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "db.json")
		s, err := NewJSONFileStore(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.Ping(ctx); err != nil {
			t.Errorf("ping failed on fresh store: %v", err)
		}
	})
}
