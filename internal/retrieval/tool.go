// Package retrieval exposes the document store to the chat model as a
// callable tool.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/llm"
	"github.com/hyperjump/tanya/internal/models"
	"github.com/hyperjump/tanya/internal/vectorstore"
)

// ToolName is the function name the chat model calls to search documents.
const ToolName = "retrieve_university_data"

// Error wraps failures from the retrieval backend so callers can tell them
// apart from model failures.
type Error struct {
	Query string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("retrieval failed for query %q: %v", e.Query, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Tool searches the document store on behalf of the agent.
type Tool struct {
	store  vectorstore.Store
	cfg    config.RetrievalConfig
	logger *zap.Logger
}

// NewTool builds the retrieval tool over store.
func NewTool(store vectorstore.Store, cfg config.RetrievalConfig, logger *zap.Logger) *Tool {
	return &Tool{store: store, cfg: cfg, logger: logger}
}

// Definition returns the function schema advertised to the chat model.
func Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name: ToolName,
		Description: "Cari informasi dari dokumen universitas (jadwal kuliah, skripsi mahasiswa, " +
			"dan dokumen akademik lainnya) berdasarkan query. Gunakan tags untuk mempersempit kategori dokumen.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Kata kunci pencarian dokumen",
				},
				"tags": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string", "enum": models.AllowedTags},
					"description": "Kategori dokumen yang dicari",
				},
			},
			"required": []string{"query"},
		},
	}
}

// Retrieve searches the store and formats the hits as model context. Tags
// narrow the search to document categories; a tag set containing "other"
// disables the filter entirely, since untagged documents may hold the
// answer.
func (t *Tool) Retrieve(ctx context.Context, query string, tags []string) (string, []models.RetrievedDocument, error) {
	filter := tags
	for _, tag := range tags {
		if tag == models.TagOther {
			filter = nil
			break
		}
	}

	docs, err := t.store.SimilaritySearch(ctx, query, t.cfg.TopK, filter)
	if err != nil {
		return "", nil, &Error{Query: query, Err: err}
	}

	t.logger.Info("retrieved documents",
		zap.String("query", query),
		zap.Strings("tags", tags),
		zap.Int("hits", len(docs)))

	if len(docs) == 0 {
		return "", nil, nil
	}

	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = fmt.Sprintf("Source: %s\nContent: %s", doc.Source, doc.Content)
	}
	return strings.Join(parts, "\n\n"), docs, nil
}
