package vectorstore

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

// KeywordIndex indexes chunk content in Bleve for lexical matching.
type KeywordIndex struct {
	index bleve.Index
}

type keywordDoc struct {
	Content string `json:"content"`
}

// NewKeywordIndex creates or opens a Bleve index at path. An existing index
// is opened and reused; remove the directory to force a full re-index after
// mapping changes.
func NewKeywordIndex(path string) (*KeywordIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so Indonesian
	// and English terms match exactly as written.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	im.AddDocumentMapping("chunk", docMapping)
	im.DefaultType = "chunk"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &KeywordIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &KeywordIndex{index: index}, nil
}

// IndexBatch indexes chunk content keyed by chunk ID.
func (k *KeywordIndex) IndexBatch(ctx context.Context, ids []string, contents []string) error {
	if len(ids) != len(contents) {
		return fmt.Errorf("ids and contents length mismatch")
	}
	batch := k.index.NewBatch()
	for i, id := range ids {
		if err := batch.Index(id, keywordDoc{Content: contents[i]}); err != nil {
			return fmt.Errorf("failed to add chunk to batch: %w", err)
		}
	}
	return k.index.Batch(batch)
}

// Search runs a match query over chunk content and returns up to limit
// scored IDs.
func (k *KeywordIndex) Search(ctx context.Context, query string, limit int) ([]ScoredID, error) {
	q := bleve.NewMatchQuery(query)
	search := bleve.NewSearchRequest(q)
	search.Size = limit
	results, err := k.index.Search(search)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]ScoredID, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = ScoredID{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Close closes the underlying index.
func (k *KeywordIndex) Close() error {
	return k.index.Close()
}
