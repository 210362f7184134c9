// Package ingest turns uploaded files into deduplicated, classified,
// indexed document chunks.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/extract"
	"github.com/hyperjump/tanya/internal/llm"
	"github.com/hyperjump/tanya/internal/models"
)

// classifyTagPrompt asks the model to label a document with exactly one
// tag from the closed set.
const classifyTagPrompt = "get tag of given document, can be one of the following tags:\n" +
	"- student_thesis\n" +
	"- schedules\n" +
	"- other\n" +
	"only answer with the tag"

// classifySampleChunks caps how many leading chunks feed the classifier.
const classifySampleChunks = 5

// ErrDuplicateContent rejects re-ingestion of byte-identical files.
var ErrDuplicateContent = errors.New("document already ingested")

// Store is the subset of the vector store the pipeline writes through.
type Store interface {
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	AddDocuments(ctx context.Context, chunks []models.DocumentChunk) error
}

// File is one uploaded file to ingest.
type File struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Pipeline processes uploads: validate, hash, extract, dedup, classify,
// and write. Each file is isolated; one failure never aborts the batch.
type Pipeline struct {
	store  Store
	model  llm.ChatModel
	cfg    config.IngestConfig
	logger *zap.Logger
}

// NewPipeline builds an ingestion pipeline over the store and chat model.
func NewPipeline(store Store, model llm.ChatModel, cfg config.IngestConfig, logger *zap.Logger) *Pipeline {
	return &Pipeline{store: store, model: model, cfg: cfg, logger: logger}
}

// IngestBatch processes files sequentially and returns one result per file
// in input order.
func (p *Pipeline) IngestBatch(ctx context.Context, files []File) models.IngestResponse {
	results := make([]models.FileResult, len(files))
	for i, f := range files {
		results[i] = p.IngestFile(ctx, f)
	}
	return models.IngestResponse{
		Status:     "completed",
		TotalFiles: len(files),
		Results:    results,
	}
}

// IngestFile processes one file and reports its outcome. Errors are
// captured in the result, never returned.
func (p *Pipeline) IngestFile(ctx context.Context, f File) models.FileResult {
	if err := p.ingest(ctx, f); err != nil {
		p.logger.Warn("ingestion failed",
			zap.String("filename", f.Filename),
			zap.Error(err))
		return models.FileResult{
			Filename: f.Filename,
			Status:   models.StatusError,
			Error:    err.Error(),
		}
	}
	return models.FileResult{Filename: f.Filename, Status: models.StatusSuccess}
}

func (p *Pipeline) ingest(ctx context.Context, f File) error {
	if !extract.Supported(f.ContentType) {
		return fmt.Errorf("%w: %s", extract.ErrUnsupportedContentType, f.ContentType)
	}

	contentHash := hashContent(f.Content)

	text, err := extract.Extract(f.ContentType, f.Content)
	if err != nil {
		return fmt.Errorf("extracting text: %w", err)
	}
	chunkTexts := extract.ChunkWords(text, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if len(chunkTexts) == 0 {
		return fmt.Errorf("no text extracted from %s", f.Filename)
	}

	ids := make([]string, len(chunkTexts))
	for i := range chunkTexts {
		ids[i] = fmt.Sprintf("%s_%d", contentHash, i)
	}

	// Idempotent rejection: any overlap means the same bytes were already
	// ingested. Two concurrent ingests of identical bytes can both pass
	// this check; the store's batch-write atomicity bounds that race to a
	// clean failure of the second write.
	existing, err := p.store.ExistingIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("checking for duplicates: %w", err)
	}
	if len(existing) > 0 {
		return ErrDuplicateContent
	}

	tag, err := p.classify(ctx, chunkTexts)
	if err != nil {
		return fmt.Errorf("classifying document: %w", err)
	}

	chunks := make([]models.DocumentChunk, len(chunkTexts))
	for i, content := range chunkTexts {
		chunks[i] = models.DocumentChunk{
			ID:         ids[i],
			Source:     f.Filename,
			Content:    content,
			Tag:        tag,
			ChunkIndex: i,
		}
	}
	if err := p.store.AddDocuments(ctx, chunks); err != nil {
		return fmt.Errorf("indexing chunks: %w", err)
	}

	p.logger.Info("ingested document",
		zap.String("filename", f.Filename),
		zap.String("tag", tag),
		zap.Int("chunks", len(chunks)))
	return nil
}

// classify asks the model for one tag based on the leading chunks. An
// answer outside the closed tag set falls back to "other".
func (p *Pipeline) classify(ctx context.Context, chunkTexts []string) (string, error) {
	sample := chunkTexts
	if len(sample) > classifySampleChunks {
		sample = sample[:classifySampleChunks]
	}

	resp, err := p.model.Invoke(ctx, []models.Message{
		{Role: models.RoleSystem, Content: classifyTagPrompt},
		{Role: models.RoleUser, Content: strings.Join(sample, "\n\n")},
	}, llm.Options{})
	if err != nil {
		return "", err
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Content))
	for _, tag := range models.AllowedTags {
		if answer == tag {
			return tag, nil
		}
	}
	p.logger.Warn("classifier returned unknown tag, using fallback",
		zap.String("answer", answer))
	return models.TagOther, nil
}

func hashContent(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
