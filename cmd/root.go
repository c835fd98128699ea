package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yskale/dug/internal/config"
	"github.com/yskale/dug/internal/opensearch"
	"github.com/yskale/dug/internal/search"
)

var rootCmd = &cobra.Command{
	Use:   "dug",
	Short: "dug - semantic search query service",
	Long: `dug compiles high-level search intents (concepts, variables, knowledge
graph, studies, programs) into weighted boolean queries against an
OpenSearch-compatible engine and reshapes the replies into the grouped
result structures consumed by downstream applications.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
}

// newService loads configuration and builds the search service with its
// engine client.
func newService() (*search.Service, *config.Config, error) {
	// A missing .env file is fine, the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	osCfg, err := opensearch.NewConfigFromTypes(cfg)
	if err != nil {
		return nil, nil, err
	}

	client, err := opensearch.NewClient(osCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OpenSearch client: %w", err)
	}

	service, err := search.NewService(client, cfg)
	if err != nil {
		return nil, nil, err
	}

	return service, cfg, nil
}
