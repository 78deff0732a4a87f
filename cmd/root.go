package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/listing-signal/signal-web/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "listing-signal",
	Short: "Listing Signal landing page and lead relay",
	Long:  "Serves the Listing Signal landing page, proxies address autocomplete lookups, and relays seller leads to the Listing Signal API.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
