package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"newsrag/config"
	"newsrag/internal/adapter/analyzer"
	"newsrag/internal/adapter/chunker"
	"newsrag/internal/adapter/connector"
	"newsrag/internal/adapter/embedding"
	"newsrag/internal/adapter/index"
	"newsrag/internal/adapter/newsapi"
	"newsrag/internal/usecase"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and index current headlines once, then exit",
	Long: `Run one poll cycle of the full ingestion pipeline: fetch current
headlines for every configured category, chunk and embed them, and
report what would have been indexed.

The index is in-memory, so fetch does not leave anything behind; it is
an end-to-end check of credentials, the feed connection, and the
embedding pipeline before starting serve.`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	logger := log.New(os.Stderr, "", log.LstdFlags)

	newsKey, err := config.RequireKey(cfg.Connector.APIKeyEnv)
	if err != nil {
		return err
	}
	if _, err := config.RequireKey(cfg.Embedding.APIKeyEnv); err != nil {
		return err
	}

	embedder, err := embedding.NewGeminiEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	tokenizer := analyzer.NewTokenizer()
	chk := chunker.NewTokenChunker(cfg.Ingest.ChunkTokens, tokenizer)
	idx := index.NewMemoryIndex(embedder.Dimension())
	ingest := usecase.NewIngestUseCase(chk, embedder, idx, nil, logger)

	source := newsapi.NewClient(newsKey,
		newsapi.WithPageSize(cfg.Connector.PageSize),
		newsapi.WithRateLimit(cfg.Connector.RateLimit),
	)
	conn := connector.New(source, cfg.Connector.Categories, cfg.PollInterval(), cfg.Connector.Excludes, 0, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fmt.Printf("Fetching headlines for %v...\n", cfg.Connector.Categories)
	articles := conn.PollOnce(ctx)
	if len(articles) == 0 {
		fmt.Println("No articles fetched.")
		return nil
	}

	bar := progressbar.NewOptions(len(articles),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	for _, article := range articles {
		if err := ingest.Ingest(article); err != nil {
			logger.Printf("fetch: skipping %s: %v", article.URL, err)
		}
		bar.Add(1)
	}

	stats := ingest.Stats()
	fmt.Printf("\nBackfill complete:\n")
	fmt.Printf("  Articles indexed: %d\n", stats.Articles)
	fmt.Printf("  Chunks created:   %d\n", stats.Chunks)
	if stats.Errors > 0 {
		fmt.Printf("  Errors:           %d\n", stats.Errors)
	}
	return nil
}
