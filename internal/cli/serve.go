package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"newsrag/config"
	"newsrag/internal/adapter/analyzer"
	"newsrag/internal/adapter/cache"
	"newsrag/internal/adapter/chunker"
	"newsrag/internal/adapter/connector"
	"newsrag/internal/adapter/embedding"
	"newsrag/internal/adapter/index"
	"newsrag/internal/adapter/llm"
	"newsrag/internal/adapter/newsapi"
	"newsrag/internal/port"
	"newsrag/internal/server"
	"newsrag/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll the news feed, index articles, and serve the chat API",
	Long: `Start the full pipeline: a connector polls the news feed on an
interval, fresh articles are chunked and embedded into an in-memory
vector index, and an HTTP API answers questions grounded in the index.

Endpoints:
  POST /v1/chat   Ask a question about recent news
  GET  /health    Liveness probe with index size

The index lives in memory only; restarting the service starts empty and
refills from the next poll cycles.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	logger := log.New(os.Stderr, "", log.LstdFlags)

	// Fail on missing credentials before any loop starts.
	newsKey, err := config.RequireKey(cfg.Connector.APIKeyEnv)
	if err != nil {
		return err
	}
	if _, err := config.RequireKey(cfg.Embedding.APIKeyEnv); err != nil {
		return err
	}
	if cfg.LLM.APIKeyEnv != cfg.Embedding.APIKeyEnv {
		if _, err := config.RequireKey(cfg.LLM.APIKeyEnv); err != nil {
			return err
		}
	}

	embedder, err := embedding.NewGeminiEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	if d := cfg.Embedding.Dimension; d != 0 && d != embedder.Dimension() {
		return fmt.Errorf("configured dimension %d does not match model %s (%d)", d, embedder.ModelName(), embedder.Dimension())
	}

	model, err := llm.NewGeminiLLM(cfg.LLM.APIKeyEnv, cfg.LLM.Model)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	tokenizer := analyzer.NewTokenizer()
	chk := chunker.NewTokenChunker(cfg.Ingest.ChunkTokens, tokenizer)
	idx := index.NewMemoryIndex(embedder.Dimension())

	var queryCache *cache.QueryCache
	if cfg.Retrieve.CacheEnabled {
		queryCache = cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.CacheTTL())
	}

	source := newsapi.NewClient(newsKey,
		newsapi.WithPageSize(cfg.Connector.PageSize),
		newsapi.WithRateLimit(cfg.Connector.RateLimit),
	)
	conn := connector.New(source, cfg.Connector.Categories, cfg.PollInterval(), cfg.Connector.Excludes, cfg.Connector.Buffer, logger)

	ingest := usecase.NewIngestUseCase(chk, embedder, idx, queryCache, logger)
	answer := usecase.NewAnswerUseCase(embedder, idx, model, tokenizer, queryCache, cfg.Retrieve.TopK, cfg.Retrieve.PromptBudgetTokens)

	handlers := server.NewHandlers(answer, ingest.Stats, logger)
	srv := server.New(cfg.Server.Addr, handlers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go conn.Run(ctx)
	go ingest.Run(ctx, conn.Articles())

	if retention := cfg.Retention(); retention > 0 {
		go runRetention(ctx, idx, queryCache, retention, logger)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("serving on %s (model=%s, embedder=%s)", cfg.Server.Addr, model.ModelName(), embedder.ModelName())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// runRetention periodically drops index entries older than the
// retention horizon. The query cache is invalidated whenever the index
// shrinks so cached results never cite pruned articles.
func runRetention(ctx context.Context, idx port.VectorIndex, queryCache *cache.QueryCache, retention time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := idx.Prune(time.Now().Add(-retention))
			if removed > 0 {
				if queryCache != nil {
					queryCache.Invalidate()
				}
				logger.Printf("retention: pruned %d entries older than %s", removed, retention)
			}
		}
	}
}
