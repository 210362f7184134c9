package vectorstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/embedding"
	"github.com/hyperjump/tanya/internal/models"
)

// HybridStore implements Store over SQLite chunk rows, a Bleve keyword
// index, and an in-memory vector index. SQLite is the source of truth; the
// two indexes are derived from it.
type HybridStore struct {
	chunks   *ChunkStore
	keyword  *KeywordIndex
	vectors  *MemoryIndex
	embedder embedding.Embedder
	cfg      config.RetrievalConfig
	logger   *zap.Logger
}

// NewHybridStore wires the three storage components together.
func NewHybridStore(chunks *ChunkStore, keyword *KeywordIndex, vectors *MemoryIndex,
	embedder embedding.Embedder, cfg config.RetrievalConfig, logger *zap.Logger) *HybridStore {
	return &HybridStore{
		chunks:   chunks,
		keyword:  keyword,
		vectors:  vectors,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
}

// SimilaritySearch implements Store. Both indexes are queried for
// TopKCandidates, scores are fused, and the survivors of the tag filter
// are returned in rank order.
func (s *HybridStore) SimilaritySearch(ctx context.Context, query string, k int, tags []string) ([]models.RetrievedDocument, error) {
	if k <= 0 {
		k = s.cfg.TopK
	}
	candidates := s.cfg.TopKCandidates
	if candidates < k {
		candidates = k
	}

	keywordResults, err := s.keyword.Search(ctx, query, candidates)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	var semanticResults []ScoredID
	if s.vectors.Size() > 0 {
		queryVec, err := s.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embedding query: %w", err)
		}
		semanticResults, err = s.vectors.Search(ctx, queryVec, candidates)
		if err != nil {
			return nil, fmt.Errorf("vector search: %w", err)
		}
	}

	fused := fuseScores(keywordResults, semanticResults, s.cfg.KeywordWeight, s.cfg.SemanticWeight)
	if len(fused) == 0 {
		return nil, nil
	}

	ids := make([]string, len(fused))
	for i, r := range fused {
		ids[i] = r.ID
	}
	rows, err := s.chunks.GetChunks(ctx, ids, tags)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}

	out := make([]models.RetrievedDocument, 0, k)
	for _, r := range fused {
		chunk, ok := rows[r.ID]
		if !ok {
			continue
		}
		out = append(out, models.RetrievedDocument{
			Source:  chunk.Source,
			Content: chunk.Content,
			Tag:     chunk.Tag,
			Score:   r.Score,
			Rank:    len(out) + 1,
		})
		if len(out) == k {
			break
		}
	}

	s.logger.Debug("hybrid search completed",
		zap.String("query", query),
		zap.Int("keyword_hits", len(keywordResults)),
		zap.Int("semantic_hits", len(semanticResults)),
		zap.Int("returned", len(out)))
	return out, nil
}

// ExistingIDs implements Store.
func (s *HybridStore) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	return s.chunks.ExistingIDs(ctx, ids)
}

// AddDocuments implements Store. Chunks are embedded first, then inserted
// into SQLite in one transaction, then indexed. A failure after the commit
// leaves the indexes behind SQLite and is reported for operator attention;
// the indexes catch up on the next rebuild.
func (s *HybridStore) AddDocuments(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, len(chunks))
	contents := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
		contents[i] = c.Content
	}

	vectors, err := s.embedder.EmbedBatch(ctx, contents)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}

	if err := s.chunks.BatchCreateChunks(ctx, chunks); err != nil {
		return fmt.Errorf("storing chunks: %w", err)
	}

	if err := s.keyword.IndexBatch(ctx, ids, contents); err != nil {
		return fmt.Errorf("keyword index out of sync with storage, reindex required: %w", err)
	}
	if err := s.vectors.Add(ctx, ids, vectors); err != nil {
		return fmt.Errorf("vector index out of sync with storage, reindex required: %w", err)
	}
	return nil
}

// SaveVectors persists the in-memory vector index to path.
func (s *HybridStore) SaveVectors(path string) error {
	return s.vectors.Save(path)
}

// LoadVectors restores the in-memory vector index from path.
func (s *HybridStore) LoadVectors(path string) error {
	return s.vectors.Load(path)
}

// Close closes all underlying components.
func (s *HybridStore) Close() error {
	var firstErr error
	for _, c := range []interface{ Close() error }{s.keyword, s.vectors, s.chunks} {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
