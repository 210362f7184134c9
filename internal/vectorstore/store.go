// Package vectorstore persists document chunks and serves hybrid
// keyword plus semantic retrieval over them.
package vectorstore

import (
	"context"

	"github.com/hyperjump/tanya/internal/models"
)

// Store is the retrieval backend used by the agent and the ingest pipeline.
type Store interface {
	// SimilaritySearch returns up to k chunks ranked by fused keyword and
	// semantic score. An empty tags slice means no tag filtering.
	SimilaritySearch(ctx context.Context, query string, k int, tags []string) ([]models.RetrievedDocument, error)
	// ExistingIDs reports which of the given chunk IDs are already stored.
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	// AddDocuments stores chunks and indexes them for retrieval.
	AddDocuments(ctx context.Context, chunks []models.DocumentChunk) error
	// Close releases the underlying storage resources.
	Close() error
}
