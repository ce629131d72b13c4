package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dbehnke/dmr-bridge/pkg/logger"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	db, err := NewDB(Config{Path: filepath.Join(t.TempDir(), "test.db")}, log)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestHeardRepositoryCreateAndGet(t *testing.T) {
	repo := NewHeardRepository(testDB(t).GetDB())

	entries := []Heard{
		{SrcID: 2042099, DstID: 91, Timeslot: 0, StreamID: 1, Proto: "homebrew", HeardAt: time.Now().Add(-2 * time.Minute)},
		{SrcID: 1234567, DstID: 91, Timeslot: 1, StreamID: 2, Proto: "homebrew", HeardAt: time.Now().Add(-1 * time.Minute)},
		{SrcID: 2042099, DstID: 9, Timeslot: 0, StreamID: 3, Proto: "homebrew", HeardAt: time.Now()},
	}
	for i := range entries {
		if err := repo.Create(&entries[i]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	recent, err := repo.GetRecent(2)
	if err != nil {
		t.Fatalf("GetRecent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(recent))
	}
	if recent[0].StreamID != 3 {
		t.Errorf("Expected most recent stream 3 first, got %d", recent[0].StreamID)
	}

	bySrc, err := repo.GetBySrcID(2042099, 10)
	if err != nil {
		t.Fatalf("GetBySrcID: %v", err)
	}
	if len(bySrc) != 2 {
		t.Errorf("Expected 2 entries for subscriber, got %d", len(bySrc))
	}
}

func TestHeardRepositoryPrune(t *testing.T) {
	repo := NewHeardRepository(testDB(t).GetDB())

	for i := 0; i < 5; i++ {
		h := &Heard{SrcID: uint32(i + 1), DstID: 91, StreamID: uint32(i), HeardAt: time.Now().Add(time.Duration(i) * time.Second)}
		if err := repo.Create(h); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if err := repo.Prune(2); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	left, err := repo.GetRecent(10)
	if err != nil {
		t.Fatalf("GetRecent: %v", err)
	}
	if len(left) != 2 {
		t.Errorf("Expected 2 entries after prune, got %d", len(left))
	}
}
