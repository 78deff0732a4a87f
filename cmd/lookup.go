package main

import (
	"encoding/json"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/listing-signal/signal-web/internal/address"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <query>",
	Short: "Resolve an address query through the lookup cascade",
	Long:  "Runs one free-text address query through the configured sources and prints the normalized suggestions as JSON.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("lookup"); err != nil {
			return err
		}

		searcher := buildSearcher(cfg.Geocode, nil)
		results, err := searcher.Search(ctx, strings.Join(args, " "))
		if err != nil {
			return eris.Wrap(err, "lookup")
		}
		return writeSuggestions(cmd.OutOrStdout(), results)
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

func writeSuggestions(w io.Writer, results []address.Suggestion) error {
	if results == nil {
		results = []address.Suggestion{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
