// Package main is the Tanya CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tanya/internal/agent"
	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/embedding"
	"github.com/hyperjump/tanya/internal/extract"
	"github.com/hyperjump/tanya/internal/ingest"
	"github.com/hyperjump/tanya/internal/llm"
	"github.com/hyperjump/tanya/internal/models"
	"github.com/hyperjump/tanya/internal/retrieval"
	"github.com/hyperjump/tanya/internal/server"
	"github.com/hyperjump/tanya/internal/vectorstore"
	"github.com/hyperjump/tanya/internal/watcher"
	"github.com/hyperjump/tanya/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/tanya/config.yaml"

// loadConfig loads config from path. When path is the default, a
// config.yaml in the current directory takes precedence so running from
// the project dir picks up the project's config. Returns the config and
// the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "version", "--version", "-v":
		fmt.Printf("tanya version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// Components holds the wired subsystems shared by the subcommands.
type Components struct {
	Store        *vectorstore.HybridStore
	Orchestrator *agent.Orchestrator
	Pipeline     *ingest.Pipeline
}

// Close releases everything in reverse initialization order.
func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	chunks, err := vectorstore.NewChunkStore(cfg.Store.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chunk storage: %w", err)
	}

	keyword, err := vectorstore.NewKeywordIndex(cfg.Store.BleveIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	embedder := embedding.NewOpenAIEmbedder(cfg.Embedding, logger)
	vectors, err := vectorstore.NewMemoryIndex(embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if cfg.Store.VectorIndexPath != "" {
		if loadErr := vectors.Load(cfg.Store.VectorIndexPath); loadErr != nil {
			logger.Warn("vector index load skipped",
				zap.String("path", cfg.Store.VectorIndexPath), zap.Error(loadErr))
		}
	}

	store := vectorstore.NewHybridStore(chunks, keyword, vectors, embedder, cfg.Retrieval, logger)

	model := llm.NewOpenAIClient(cfg.LLM, logger)
	tool := retrieval.NewTool(store, cfg.Retrieval, logger)

	return &Components{
		Store:        store,
		Orchestrator: agent.NewOrchestrator(model, tool, logger),
		Pipeline:     ingest.NewPipeline(store, model, cfg.Ingest, logger),
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if len(cfg.Ingest.WatchDirectories) > 0 {
		pipeline := components.Pipeline
		watchSvc = watcher.NewWatcher(
			cfg.Ingest.WatchDirectories,
			cfg.Ingest.WatchExtensions,
			func(path string) {
				ingestWatchedFile(watchCtx, pipeline, path, logger)
			},
			logger,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExistingFiles()
	}

	srv := server.NewServer(components.Orchestrator, components.Pipeline, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	if cfg.Store.VectorIndexPath != "" {
		if err := components.Store.SaveVectors(cfg.Store.VectorIndexPath); err != nil {
			logger.Warn("vector index save failed",
				zap.String("path", cfg.Store.VectorIndexPath), zap.Error(err))
		}
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// ingestWatchedFile reads a file picked up by the watcher and runs it
// through the pipeline. Duplicates are expected for files the watcher has
// seen before and are logged at debug level only.
func ingestWatchedFile(ctx context.Context, pipeline *ingest.Pipeline, path string, logger *zap.Logger) {
	contentType := extract.TypeForExtension(filepath.Ext(path))
	if contentType == "" {
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read watched file", zap.String("path", path), zap.Error(err))
		return
	}
	result := pipeline.IngestFile(ctx, ingest.File{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Content:     content,
	})
	if result.Status == models.StatusError {
		logger.Debug("watched file not ingested",
			zap.String("path", path), zap.String("reason", result.Error))
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	paths := fs.Args()
	if len(paths) == 0 {
		fmt.Println("Usage: tanya ingest [flags] <file> [<file>...]")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	files := make([]ingest.File, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("Failed to read %s: %v\n", path, err)
			os.Exit(1)
		}
		contentType := extract.TypeForExtension(filepath.Ext(path))
		if contentType == "" {
			fmt.Printf("Unsupported file type: %s\n", path)
			os.Exit(1)
		}
		files = append(files, ingest.File{
			Filename:    filepath.Base(path),
			ContentType: contentType,
			Content:     content,
		})
	}

	resp := components.Pipeline.IngestBatch(context.Background(), files)
	failed := 0
	for _, r := range resp.Results {
		if r.Status == models.StatusSuccess {
			fmt.Printf("  ok    %s\n", r.Filename)
		} else {
			fmt.Printf("  error %s: %s\n", r.Filename, r.Error)
			failed++
		}
	}
	if cfg.Store.VectorIndexPath != "" {
		if err := components.Store.SaveVectors(cfg.Store.VectorIndexPath); err != nil {
			logger.Warn("vector index save failed", zap.Error(err))
		}
	}
	fmt.Printf("Ingested %d of %d files\n", resp.TotalFiles-failed, resp.TotalFiles)
	if failed > 0 {
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tanya - RAG chat gateway for university academic records

Usage:
  tanya server [flags]            Start the OpenAI-compatible HTTP server
  tanya ingest [flags] <file...>  Ingest documents from the command line
  tanya version                   Show version
  tanya help                      Show this help

Flags:
  --config string    Config file path (default: /usr/local/etc/tanya/config.yaml)
  --debug            Enable debug logging`)
}
