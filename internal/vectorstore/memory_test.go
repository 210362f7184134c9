package vectorstore

import (
	"context"
	"path/filepath"
	"testing"
)

func TestMemoryIndexSearch(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatalf("NewMemoryIndex: %v", err)
	}
	ctx := context.Background()

	err = idx.Add(ctx, []string{"a", "b", "c"}, [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.7071, 0.7071, 0},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "c" {
		t.Errorf("order = %s, %s", results[0].ID, results[1].ID)
	}
}

func TestMemoryIndexDimensionMismatch(t *testing.T) {
	idx, _ := NewMemoryIndex(3)
	ctx := context.Background()
	if err := idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}}); err == nil {
		t.Error("expected add dimension error")
	}
	if _, err := idx.Search(ctx, []float32{1, 0}, 1); err == nil {
		t.Error("expected search dimension error")
	}
}

func TestMemoryIndexSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.bin")
	ctx := context.Background()

	idx, _ := NewMemoryIndex(2)
	if err := idx.Add(ctx, []string{"x", "y"}, [][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored, _ := NewMemoryIndex(2)
	if err := restored.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if restored.Size() != 2 {
		t.Fatalf("size = %d", restored.Size())
	}
	results, err := restored.Search(ctx, []float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results[0].ID != "y" {
		t.Errorf("top result = %s", results[0].ID)
	}
}

func TestMemoryIndexLoadMissingFile(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	if err := idx.Load(filepath.Join(t.TempDir(), "missing.bin")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("size = %d", idx.Size())
	}
}

func TestMemoryIndexLoadDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.bin")
	idx, _ := NewMemoryIndex(2)
	_ = idx.Add(context.Background(), []string{"x"}, [][]float32{{1, 0}})
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	other, _ := NewMemoryIndex(3)
	if err := other.Load(path); err == nil {
		t.Error("expected dimension mismatch error")
	}
}
