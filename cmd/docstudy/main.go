// Command docstudy ingests study documents and answers questions about them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/docstudy/internal/adapters/driven/ai"
	"github.com/custodia-labs/docstudy/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docstudy/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docstudy/internal/adapters/driven/vector/chromemstore"
	"github.com/custodia-labs/docstudy/internal/adapters/driving/cli"
	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
	"github.com/custodia-labs/docstudy/internal/core/services"
	"github.com/custodia-labs/docstudy/internal/extractors"
	"github.com/custodia-labs/docstudy/internal/extractors/doc"
	"github.com/custodia-labs/docstudy/internal/extractors/docx"
	"github.com/custodia-labs/docstudy/internal/extractors/markdown"
	"github.com/custodia-labs/docstudy/internal/extractors/pdf"
	"github.com/custodia-labs/docstudy/internal/extractors/plaintext"
	"github.com/custodia-labs/docstudy/internal/logger"
	"github.com/custodia-labs/docstudy/internal/postprocessors"
)

// version is set at build time.
var version = "dev"

// queueSize bounds jobs waiting for a worker.
const queueSize = 64

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := file.LoadDotEnv(".env"); err != nil {
		logger.Warn("loading .env: %v", err)
	}

	dataDir, err := file.DefaultDir()
	if err != nil {
		return fmt.Errorf("resolve data directory: %w", err)
	}

	configStore, err := file.NewConfigStore(dataDir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	vectorDir := settings.VectorStore.Dir
	if vectorDir == "" {
		vectorDir = filepath.Join(dataDir, "vectors")
	}
	index := chromemstore.NewIndex(vectorDir)
	defer index.Close()

	prompts, err := file.NewPromptStore(filepath.Join(dataDir, "prompts"))
	if err != nil {
		return fmt.Errorf("open prompts: %w", err)
	}

	gateway := ai.NewEmbeddingGateway(settings.Embedding)

	var llm driven.LLMService
	if svc, err := ai.NewLLMService(ctx, &settings.LLM); err != nil {
		logger.Warn("LLM disabled, using rule-based fallbacks: %v", err)
	} else if svc != nil {
		llm = svc
		defer svc.Close()
	}

	extractorRegistry := extractors.NewRegistry(
		plaintext.New(),
		markdown.New(),
		pdf.New(),
		docx.New(),
		doc.New(),
	)

	processorRegistry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(processorRegistry)
	chunker, err := postprocessors.BuildPipeline(processorRegistry, domain.PipelineConfigFor(settings.Ingest))
	if err != nil {
		return fmt.Errorf("build chunking pipeline: %w", err)
	}

	analyzer := services.NewAnalyzer(llm, prompts, services.HeadingStrategyFor(settings.Ingest.HeadingMarkers))
	pipeline := services.NewIngestPipeline(
		extractorRegistry, analyzer, chunker, gateway, index, settings.Ingest.MinTextLength,
	)

	pool := services.NewWorkerPool(pipeline, store, settings.Ingest.Workers, queueSize)
	pool.Start(ctx)
	defer pool.Stop()

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Ingest:    services.NewIngestService(store, extractorRegistry, pool, pipeline),
		Document:  services.NewDocumentService(store, index),
		Retrieval: services.NewRetrievalService(gateway, index, llm, prompts),
		Settings:  settingsService,
	})

	return cli.Execute(ctx)
}
