// Package integration exercises the full pipeline against real storage
// and indices: ingest a document, then answer a question grounded on it.
package integration

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/tanya/internal/agent"
	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/embedding"
	"github.com/hyperjump/tanya/internal/ingest"
	"github.com/hyperjump/tanya/internal/llm"
	"github.com/hyperjump/tanya/internal/models"
	"github.com/hyperjump/tanya/internal/retrieval"
	"github.com/hyperjump/tanya/internal/vectorstore"
)

func newStore(t *testing.T, cfg config.RetrievalConfig) *vectorstore.HybridStore {
	t.Helper()
	dir := t.TempDir()

	chunks, err := vectorstore.NewChunkStore(filepath.Join(dir, "chunks.db"))
	if err != nil {
		t.Fatal(err)
	}
	keyword, err := vectorstore.NewKeywordIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	embedder := embedding.NewMockEmbedder(16)
	vectors, err := vectorstore.NewMemoryIndex(embedder.Dimensions())
	if err != nil {
		t.Fatal(err)
	}

	store := vectorstore.NewHybridStore(chunks, keyword, vectors, embedder, cfg, zap.NewNop())
	t.Cleanup(func() { store.Close() })
	return store
}

func TestIntegration_IngestThenChat(t *testing.T) {
	retrievalCfg := config.RetrievalConfig{
		TopK: 3, TopKCandidates: 10,
		KeywordWeight: 0.5, SemanticWeight: 0.5,
	}
	store := newStore(t, retrievalCfg)
	ctx := context.Background()

	// The classifier answers with a known tag.
	classifier := &llm.MockChatModel{Responses: []llm.Response{{Content: "schedules"}}}
	pipeline := ingest.NewPipeline(store, classifier, config.IngestConfig{
		ChunkSize: 32, ChunkOverlap: 4,
	}, zap.NewNop())

	res := pipeline.IngestFile(ctx, ingest.File{
		Filename:    "jadwal.txt",
		ContentType: "text/plain",
		Content:     []byte("Jadwal kuliah Algoritma dan Struktur Data: Senin pukul 08.00 di ruang B201."),
	})
	if res.Status != models.StatusSuccess {
		t.Fatalf("ingest failed: %s", res.Error)
	}

	// The chat model first requests retrieval, then answers from the
	// provided context.
	chat := &llm.MockChatModel{Responses: []llm.Response{
		{ToolCalls: []models.ToolCall{{
			ID:   "call_1",
			Name: retrieval.ToolName,
			Args: map[string]any{"query": "jadwal kuliah algoritma", "tags": []any{"schedules"}},
		}}},
		{Content: "Kuliah Algoritma dan Struktur Data diadakan Senin pukul 08.00 di ruang B201. Sumber: jadwal.txt"},
	}}
	tool := retrieval.NewTool(store, retrievalCfg, zap.NewNop())
	orch := agent.NewOrchestrator(chat, tool, zap.NewNop())

	answer, err := orch.Run(ctx, []models.Message{
		{Role: models.RoleUser, Content: "Kapan jadwal kuliah Algoritma dan Struktur Data?"},
	}, llm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(answer, "B201") {
		t.Errorf("answer = %q, want schedule details", answer)
	}

	// The generation call must have seen the ingested document.
	if len(chat.Calls) != 2 {
		t.Fatalf("chat model calls = %d, want 2", len(chat.Calls))
	}
	genMsgs := chat.Calls[1]
	last := genMsgs[len(genMsgs)-1]
	if last.Role != models.RoleSystem {
		t.Errorf("last generation message role = %q, want system", last.Role)
	}
	if !strings.Contains(last.Content, "Source: jadwal.txt") {
		t.Errorf("generation context missing ingested document: %q", last.Content)
	}
	if !strings.Contains(last.Content, "B201") {
		t.Errorf("generation context missing document content: %q", last.Content)
	}
}

func TestIntegration_DuplicateUploadRejected(t *testing.T) {
	store := newStore(t, config.RetrievalConfig{TopK: 3, TopKCandidates: 10, KeywordWeight: 0.5, SemanticWeight: 0.5})
	ctx := context.Background()

	classifier := &llm.MockChatModel{Responses: []llm.Response{
		{Content: "schedules"}, {Content: "schedules"},
	}}
	pipeline := ingest.NewPipeline(store, classifier, config.IngestConfig{
		ChunkSize: 32, ChunkOverlap: 4,
	}, zap.NewNop())

	file := ingest.File{
		Filename:    "jadwal.txt",
		ContentType: "text/plain",
		Content:     []byte("Jadwal ujian akhir semester ganjil."),
	}
	if res := pipeline.IngestFile(ctx, file); res.Status != models.StatusSuccess {
		t.Fatalf("first ingest failed: %s", res.Error)
	}
	res := pipeline.IngestFile(ctx, file)
	if res.Status != models.StatusError {
		t.Fatalf("second ingest status = %q, want error", res.Status)
	}
	if !strings.Contains(res.Error, "already") {
		t.Errorf("second ingest error = %q, want duplicate message", res.Error)
	}
}
