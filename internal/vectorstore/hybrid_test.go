package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/embedding"
	"github.com/hyperjump/tanya/internal/models"
)

func newTestHybridStore(t *testing.T) *HybridStore {
	t.Helper()
	dir := t.TempDir()

	chunks, err := NewChunkStore(filepath.Join(dir, "chunks.db"))
	if err != nil {
		t.Fatalf("NewChunkStore: %v", err)
	}
	keyword, err := NewKeywordIndex(filepath.Join(dir, "keyword.bleve"))
	if err != nil {
		t.Fatalf("NewKeywordIndex: %v", err)
	}
	embedder := embedding.NewMockEmbedder(16)
	vectors, err := NewMemoryIndex(embedder.Dimensions())
	if err != nil {
		t.Fatalf("NewMemoryIndex: %v", err)
	}

	store := NewHybridStore(chunks, keyword, vectors, embedder, config.RetrievalConfig{
		TopK:           5,
		TopKCandidates: 50,
		KeywordWeight:  0.5,
		SemanticWeight: 0.5,
	}, zap.NewNop())
	t.Cleanup(func() { store.Close() })
	return store
}

func TestHybridStoreAddAndSearch(t *testing.T) {
	store := newTestHybridStore(t)
	ctx := context.Background()

	err := store.AddDocuments(ctx, []models.DocumentChunk{
		{ID: "s_0", Source: "jadwal.csv", Content: "Kalkulus diajarkan hari Senin jam 09:00", Tag: models.TagSchedules, ChunkIndex: 0},
		{ID: "s_1", Source: "jadwal.csv", Content: "Fisika diajarkan hari Selasa jam 13:00", Tag: models.TagSchedules, ChunkIndex: 1},
		{ID: "t_0", Source: "skripsi.pdf", Content: "Skripsi tentang pembelajaran mesin", Tag: models.TagStudentThesis, ChunkIndex: 0},
	})
	if err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	results, err := store.SimilaritySearch(ctx, "jadwal Kalkulus Senin", 5, nil)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("no results")
	}
	if results[0].Content != "Kalkulus diajarkan hari Senin jam 09:00" {
		t.Errorf("top result = %q", results[0].Content)
	}
	for i, r := range results {
		if r.Rank != i+1 {
			t.Errorf("result %d has rank %d", i, r.Rank)
		}
		if r.Source == "" || r.Tag == "" {
			t.Errorf("result %d missing source or tag: %+v", i, r)
		}
	}
}

func TestHybridStoreTagFilter(t *testing.T) {
	store := newTestHybridStore(t)
	ctx := context.Background()

	err := store.AddDocuments(ctx, []models.DocumentChunk{
		{ID: "s_0", Source: "jadwal.csv", Content: "jadwal kuliah Kalkulus Senin", Tag: models.TagSchedules, ChunkIndex: 0},
		{ID: "t_0", Source: "skripsi.pdf", Content: "jadwal sidang skripsi mahasiswa", Tag: models.TagStudentThesis, ChunkIndex: 0},
	})
	if err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	results, err := store.SimilaritySearch(ctx, "jadwal", 5, []string{models.TagStudentThesis})
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	for _, r := range results {
		if r.Tag != models.TagStudentThesis {
			t.Errorf("tag filter leaked %q", r.Tag)
		}
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want 1", len(results))
	}
}

func TestHybridStoreExistingIDs(t *testing.T) {
	store := newTestHybridStore(t)
	ctx := context.Background()

	err := store.AddDocuments(ctx, []models.DocumentChunk{
		{ID: "a_0", Source: "a.txt", Content: "isi dokumen", Tag: models.TagOther, ChunkIndex: 0},
	})
	if err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	existing, err := store.ExistingIDs(ctx, []string{"a_0", "b_0"})
	if err != nil {
		t.Fatalf("ExistingIDs: %v", err)
	}
	if !existing["a_0"] || existing["b_0"] {
		t.Errorf("existing = %v", existing)
	}
}

func TestHybridStoreEmptyIndex(t *testing.T) {
	store := newTestHybridStore(t)

	results, err := store.SimilaritySearch(context.Background(), "apa saja", 5, nil)
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
}

func TestFuseScores(t *testing.T) {
	keyword := []ScoredID{{ID: "a", Score: 4}, {ID: "b", Score: 2}}
	semantic := []ScoredID{{ID: "b", Score: 0.9}, {ID: "c", Score: 0.5}}

	fused := fuseScores(keyword, semantic, 0.5, 0.5)
	if len(fused) != 3 {
		t.Fatalf("fused = %v", fused)
	}
	// a: 4/4*0.5 = 0.5, b: 2/4*0.5 + 0.9*0.5 = 0.7, c: 0.5*0.5 = 0.25
	if fused[0].ID != "b" || fused[1].ID != "a" || fused[2].ID != "c" {
		t.Errorf("order = %v", fused)
	}
	if diff := fused[0].Score - 0.7; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("top score = %f", fused[0].Score)
	}
}
