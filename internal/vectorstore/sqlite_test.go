package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/tanya/internal/models"
)

func newTestChunkStore(t *testing.T) *ChunkStore {
	t.Helper()
	store, err := NewChunkStore(filepath.Join(t.TempDir(), "chunks.db"))
	if err != nil {
		t.Fatalf("NewChunkStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testChunks() []models.DocumentChunk {
	return []models.DocumentChunk{
		{ID: "abc_0", Source: "jadwal.pdf", Content: "Kalkulus Senin 09:00", Tag: models.TagSchedules, ChunkIndex: 0},
		{ID: "abc_1", Source: "jadwal.pdf", Content: "Fisika Selasa 13:00", Tag: models.TagSchedules, ChunkIndex: 1},
		{ID: "def_0", Source: "skripsi.pdf", Content: "Penelitian deep learning", Tag: models.TagStudentThesis, ChunkIndex: 0},
	}
}

func TestBatchCreateAndExistingIDs(t *testing.T) {
	store := newTestChunkStore(t)
	ctx := context.Background()

	if err := store.BatchCreateChunks(ctx, testChunks()); err != nil {
		t.Fatalf("BatchCreateChunks: %v", err)
	}

	existing, err := store.ExistingIDs(ctx, []string{"abc_0", "abc_1", "zzz_0"})
	if err != nil {
		t.Fatalf("ExistingIDs: %v", err)
	}
	if !existing["abc_0"] || !existing["abc_1"] || existing["zzz_0"] {
		t.Errorf("existing = %v", existing)
	}

	count, err := store.CountChunks(ctx)
	if err != nil {
		t.Fatalf("CountChunks: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d", count)
	}
}

func TestBatchCreateDuplicateFailsAtomically(t *testing.T) {
	store := newTestChunkStore(t)
	ctx := context.Background()

	if err := store.BatchCreateChunks(ctx, testChunks()[:1]); err != nil {
		t.Fatalf("BatchCreateChunks: %v", err)
	}

	// Second batch reuses abc_0; the transaction must roll back entirely,
	// leaving abc_1 out too.
	err := store.BatchCreateChunks(ctx, testChunks()[:2])
	if err == nil {
		t.Fatal("expected primary key violation")
	}
	existing, err := store.ExistingIDs(ctx, []string{"abc_1"})
	if err != nil {
		t.Fatalf("ExistingIDs: %v", err)
	}
	if existing["abc_1"] {
		t.Error("partial batch was committed")
	}
}

func TestGetChunksTagFilter(t *testing.T) {
	store := newTestChunkStore(t)
	ctx := context.Background()
	if err := store.BatchCreateChunks(ctx, testChunks()); err != nil {
		t.Fatalf("BatchCreateChunks: %v", err)
	}

	ids := []string{"abc_0", "abc_1", "def_0"}

	all, err := store.GetChunks(ctx, ids, nil)
	if err != nil {
		t.Fatalf("GetChunks: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unfiltered = %d chunks", len(all))
	}

	thesis, err := store.GetChunks(ctx, ids, []string{models.TagStudentThesis})
	if err != nil {
		t.Fatalf("GetChunks: %v", err)
	}
	if len(thesis) != 1 {
		t.Fatalf("filtered = %d chunks", len(thesis))
	}
	if _, ok := thesis["def_0"]; !ok {
		t.Errorf("filtered keys = %v", thesis)
	}
}
