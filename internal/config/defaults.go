package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.deepinfra.com/v1/openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "meta-llama/Llama-3.3-70B-Instruct-Turbo"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.1
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 512
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 120
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = cfg.LLM.BaseURL
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = cfg.LLM.APIKey
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "BAAI/bge-base-en-v1.5"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = 60
	}
	if cfg.Store.DatabasePath == "" {
		cfg.Store.DatabasePath = "/usr/local/var/tanya/data/db/chunks.db"
	}
	if cfg.Store.BleveIndexPath == "" {
		cfg.Store.BleveIndexPath = "/usr/local/var/tanya/data/indices/bleve"
	}
	if cfg.Store.VectorIndexPath == "" {
		cfg.Store.VectorIndexPath = "/usr/local/var/tanya/data/indices/vectors"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.TopKCandidates == 0 {
		cfg.Retrieval.TopKCandidates = 50
	}
	if cfg.Retrieval.KeywordWeight == 0 && cfg.Retrieval.SemanticWeight == 0 {
		cfg.Retrieval.KeywordWeight = 0.5
		cfg.Retrieval.SemanticWeight = 0.5
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 256
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 32
	}
	if cfg.Ingest.WatchExtensions == nil {
		cfg.Ingest.WatchExtensions = []string{".txt", ".csv", ".pdf", ".docx", ".xlsx"}
	}
}
