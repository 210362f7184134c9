// Package embedding turns text into dense vectors via an OpenAI-compatible
// embeddings endpoint.
package embedding

import (
	"context"
	"hash/fnv"
)

// Embedder converts text into normalized dense vectors.
type Embedder interface {
	// Embed returns the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns embeddings for multiple texts in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the embedding dimension.
	Dimensions() int
	// Close releases any resources held by the embedder.
	Close() error
}

// HashString returns a stable non-cryptographic hash of s.
func HashString(s string) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32())
}
