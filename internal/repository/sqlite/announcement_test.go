package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"live-announcer/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// setupTestDB creates a temporary test database
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-announcements-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	db, err := NewDB(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to open database: %v", err)
	}

	if err := Migrate(db.DB); err != nil {
		db.Close()
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		os.Remove(tmpFile.Name())
		os.Remove(tmpFile.Name() + "-wal")
		os.Remove(tmpFile.Name() + "-shm")
	})

	return db
}

func TestAnnouncementRepository_FindMissing(t *testing.T) {
	repo := NewAnnouncementRepository(setupTestDB(t))
	ctx := context.Background()

	record, err := repo.FindByStreamerIdentity(ctx, "twitch", "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil {
		t.Errorf("expected nil record, got %+v", record)
	}

	record, err = repo.FindByStreamID(ctx, "stream-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil {
		t.Errorf("expected nil record, got %+v", record)
	}

	record, err = repo.FindByStreamID(ctx, "")
	if err != nil || record != nil {
		t.Errorf("expected empty stream id to find nothing, got %+v, %v", record, err)
	}
}

func TestAnnouncementRepository_UpsertReplaces(t *testing.T) {
	repo := NewAnnouncementRepository(setupTestDB(t))
	ctx := context.Background()

	first := &domain.AnnouncementRecord{
		StreamerIdentity: "1234",
		Platform:         "twitch",
		MessageID:        "msg-1",
		StreamID:         "stream-1",
		CategoryName:     "Gaming",
	}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	second := &domain.AnnouncementRecord{
		StreamerIdentity: "1234",
		Platform:         "twitch",
		MessageID:        "msg-1",
		StreamID:         "stream-2",
		CategoryName:     "",
	}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	got, err := repo.FindByStreamerIdentity(ctx, "twitch", "1234")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected record")
	}
	if got.StreamID != "stream-2" {
		t.Errorf("expected stream-2, got %s", got.StreamID)
	}
	if got.CategoryName != "" {
		t.Errorf("expected category to be overwritten with empty, got %q", got.CategoryName)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Errorf("expected timestamps to be set, got %+v", got)
	}

	old, err := repo.FindByStreamID(ctx, "stream-1")
	if err != nil {
		t.Fatalf("find by stream failed: %v", err)
	}
	if old != nil {
		t.Errorf("expected previous session to be gone, got %+v", old)
	}

	bySession, err := repo.FindByStreamID(ctx, "stream-2")
	if err != nil {
		t.Fatalf("find by stream failed: %v", err)
	}
	if bySession == nil || bySession.StreamerIdentity != "1234" {
		t.Errorf("expected record for streamer 1234, got %+v", bySession)
	}

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected exactly one record, got %d", len(records))
	}
}

func TestAnnouncementRepository_UpsertRejectsEmptyIdentity(t *testing.T) {
	repo := NewAnnouncementRepository(setupTestDB(t))

	err := repo.Upsert(context.Background(), &domain.AnnouncementRecord{MessageID: "msg"})
	if err == nil {
		t.Fatal("expected error for empty identity")
	}
}

func TestAnnouncementRepository_UpsertRejectsEmptyPlatform(t *testing.T) {
	repo := NewAnnouncementRepository(setupTestDB(t))

	err := repo.Upsert(context.Background(), &domain.AnnouncementRecord{StreamerIdentity: "abc", MessageID: "msg"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty platform, got %v", err)
	}
}

func TestAnnouncementRepository_IdentityIsScopedByPlatform(t *testing.T) {
	repo := NewAnnouncementRepository(setupTestDB(t))
	ctx := context.Background()

	seed := []*domain.AnnouncementRecord{
		{StreamerIdentity: "12345", Platform: "twitch", MessageID: "msg-t", StreamID: "t-1"},
		{StreamerIdentity: "12345", Platform: "glimesh", MessageID: "msg-g", StreamID: "g-1"},
	}
	for _, record := range seed {
		if err := repo.Upsert(ctx, record); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected one record per platform, got %d", len(records))
	}

	if err := repo.Delete(ctx, "glimesh", "12345"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	got, err := repo.FindByStreamerIdentity(ctx, "twitch", "12345")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got == nil || got.MessageID != "msg-t" {
		t.Errorf("expected the twitch record to survive, got %+v", got)
	}
	gone, err := repo.FindByStreamerIdentity(ctx, "glimesh", "12345")
	if err != nil || gone != nil {
		t.Errorf("expected the glimesh record to be gone, got %+v, %v", gone, err)
	}
}

func TestMigrate_KeysExistingRecordsByPlatform(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "test-upgrade-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()
	t.Cleanup(func() {
		os.Remove(tmpFile.Name())
		os.Remove(tmpFile.Name() + "-wal")
		os.Remove(tmpFile.Name() + "-shm")
	})

	db, err := NewDB(tmpFile.Name())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	all := migrations
	migrations = all[:2]
	err = Migrate(db.DB)
	migrations = all
	if err != nil {
		t.Fatalf("failed to run early migrations: %v", err)
	}

	if _, err := db.Exec(
		"INSERT INTO announcements (streamer_identity, message_id, stream_id, category_name) VALUES (?, ?, ?, ?)",
		"1234", "msg-1", "stream-1", "Gaming",
	); err != nil {
		t.Fatalf("failed to seed legacy row: %v", err)
	}

	if err := Migrate(db.DB); err != nil {
		t.Fatalf("failed to upgrade: %v", err)
	}

	got, err := NewAnnouncementRepository(db).FindByStreamerIdentity(context.Background(), "twitch", "1234")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got == nil || got.MessageID != "msg-1" || got.CategoryName != "Gaming" {
		t.Errorf("expected legacy row to be kept under twitch, got %+v", got)
	}
}

func TestAnnouncementRepository_Delete(t *testing.T) {
	repo := NewAnnouncementRepository(setupTestDB(t))
	ctx := context.Background()

	// Deleting a missing record is a no-op
	if err := repo.Delete(ctx, "twitch", "missing"); err != nil {
		t.Fatalf("delete of missing record failed: %v", err)
	}

	if err := repo.Upsert(ctx, &domain.AnnouncementRecord{
		StreamerIdentity: "abc",
		Platform:         "twitch",
		MessageID:        "msg",
		StreamID:         "s",
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := repo.Delete(ctx, "twitch", "abc"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	got, err := repo.FindByStreamerIdentity(ctx, "twitch", "abc")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected record to be deleted, got %+v", got)
	}
}

func TestAnnouncementRepository_ConcurrentKeys(t *testing.T) {
	repo := NewAnnouncementRepository(setupTestDB(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := domain.StreamerIdentity(fmt.Sprintf("streamer-%d", i))
			if err := repo.Upsert(ctx, &domain.AnnouncementRecord{
				StreamerIdentity: id,
				Platform:         "twitch",
				MessageID:        fmt.Sprintf("msg-%d", i),
				StreamID:         fmt.Sprintf("stream-%d", i),
			}); err != nil {
				t.Errorf("upsert %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 20 {
		t.Errorf("expected 20 records, got %d", len(records))
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	if err := Migrate(db.DB); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	version, err := getCurrentVersion(db.DB)
	if err != nil {
		t.Fatalf("failed to read version: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("expected version %d, got %d", len(migrations), version)
	}
}

// Upserting any sequence of records for one streamer leaves exactly the last one stored.
func TestProperty_UpsertLastWriteWins(t *testing.T) {
	repo := NewAnnouncementRepository(setupTestDB(t))
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("last upsert is the stored record", prop.ForAll(
		func(identity string, pool []string, n int) bool {
			id := domain.StreamerIdentity(identity)
			streamIDs := pool[:n]
			for i, streamID := range streamIDs {
				if err := repo.Upsert(ctx, &domain.AnnouncementRecord{
					StreamerIdentity: id,
					Platform:         "twitch",
					MessageID:        fmt.Sprintf("msg-%d", i),
					StreamID:         streamID,
				}); err != nil {
					t.Logf("upsert failed: %v", err)
					return false
				}
			}

			got, err := repo.FindByStreamerIdentity(ctx, "twitch", id)
			if err != nil || got == nil {
				t.Logf("find failed: %v", err)
				return false
			}
			last := streamIDs[len(streamIDs)-1]
			ok := got.StreamID == last && got.MessageID == fmt.Sprintf("msg-%d", len(streamIDs)-1)

			if err := repo.Delete(ctx, "twitch", id); err != nil {
				t.Logf("cleanup failed: %v", err)
				return false
			}
			return ok
		},
		gen.Identifier(),
		gen.SliceOfN(10, gen.Identifier()),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}
