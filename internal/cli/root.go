package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"newsrag/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "newsrag",
	Short: "Real-time news RAG service - ingest live headlines and answer questions over them",
	Long: `newsrag continuously polls a news feed, embeds fresh articles into an
in-memory vector index, and answers questions grounded in the indexed
articles through an HTTP API.

Example usage:
  newsrag serve                     # Poll, index, and serve the chat API
  newsrag fetch                     # One-shot backfill of current headlines
  newsrag serve --config prod.yaml  # Use a specific config file`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Credentials live in the environment; .env is a convenience
		// for local runs and its absence is not an error.
		_ = godotenv.Load()

		path := cfgFile
		if path == "" {
			path = "newsrag.yaml"
		}

		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./newsrag.yaml)")
}

func GetConfig() *config.Config {
	return cfg
}
