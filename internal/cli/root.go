package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/docrank/internal/config"
	"github.com/lazypower/docrank/internal/engine"
	"github.com/lazypower/docrank/internal/logging"
	"github.com/lazypower/docrank/internal/store"
)

var (
	configPath string
	dbPath     string

	// cfg is loaded before every command runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "docrank",
	Short:         "Learned document ranking from search results",
	Long:          "docrank learns which documents matter from ranked search results and recommends the top ones. Single Go binary, SQLite storage.",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			c.Database.Path = dbPath
		}
		cfg = c
		logging.Init(cfg.LoggingOptions())
		return nil
	},
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $DOCRANK_CONFIG or ./docrank.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: ~/.docrank/docrank.db)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(relatedCmd)
	rootCmd.AddCommand(docCmd)
}

// openDB opens the configured database for a command.
func openDB() (*store.DB, error) {
	path := cfg.Database.Path
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	return store.Open(path)
}

// openEngine builds an engine over db using the configured ranking params.
func openEngine(db *store.DB) (*engine.Engine, error) {
	return engine.New(db, engine.StoreDirectory{DB: db}, engine.ParamsFrom(cfg.Ranking))
}
