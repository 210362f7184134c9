package models

// Document tags assigned by classification. Every ingested file gets
// exactly one tag from this closed set, applied uniformly to its chunks.
const (
	TagStudentThesis = "student_thesis"
	TagSchedules     = "schedules"
	TagOther         = "other"
)

// AllowedTags lists the closed classification tag set.
var AllowedTags = []string{TagStudentThesis, TagSchedules, TagOther}

// RetrievedDocument is a single retrieval hit. Read-only; lifetime is
// bounded to the request that produced it.
type RetrievedDocument struct {
	Source  string  `json:"source"`
	Content string  `json:"content"`
	Tag     string  `json:"tag"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
}

// DocumentChunk is one indexed unit of an uploaded file. ID is derived
// from the file's content hash and the chunk position (hash + "_" + index),
// so the ID set for a given file content is globally unique in the index.
type DocumentChunk struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Content    string `json:"content"`
	Tag        string `json:"tag"`
	ChunkIndex int    `json:"chunk_index"`
}

// FileResult is the per-file outcome of an ingestion batch.
type FileResult struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// File result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// IngestResponse is the batch-level ingestion response. Results are in
// input order, one entry per submitted file.
type IngestResponse struct {
	Status     string       `json:"status"`
	TotalFiles int          `json:"total_files"`
	Results    []FileResult `json:"results"`
}
