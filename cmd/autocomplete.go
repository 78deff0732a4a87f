package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/listing-signal/signal-web/internal/address"
	"github.com/listing-signal/signal-web/internal/suggest"
	"github.com/listing-signal/signal-web/pkg/geocode"
)

var autocompleteCmd = &cobra.Command{
	Use:   "autocomplete",
	Short: "Interactive address autocomplete session",
	Long: `Reads address text from stdin one line at a time and prints the suggestions
the page would show. Enter "#N" to pick suggestion N and print its normalized
fields, or an empty line to reopen the last list.

With --places the session runs on structured Google results instead of the
debounced text path, as the page does once the Places widget loads.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("lookup"); err != nil {
			return err
		}

		if places, _ := cmd.Flags().GetBool("places"); places {
			if cfg.Geocode.GoogleKey == "" {
				return eris.New("autocomplete: --places requires geocode.google_key")
			}
			google := geocode.NewGoogle(cfg.Geocode.GoogleKey, sourceOptions(cfg.Geocode)...)
			return runPlaces(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), google)
		}

		return runAutocomplete(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), buildSearcher(cfg.Geocode, nil),
			suggest.WithDebounce(cfg.Autocomplete.Debounce()),
			suggest.WithMaxWait(cfg.Autocomplete.MaxWait()),
		)
	},
}

func init() {
	autocompleteCmd.Flags().Bool("places", false, "use structured Google places instead of text lookups")
	rootCmd.AddCommand(autocompleteCmd)
}

// placeFinder returns structured places for a query.
type placeFinder interface {
	Places(ctx context.Context, query string) ([]address.Place, error)
}

// selection is what a picked suggestion prints as.
type selection struct {
	Label   string         `json:"label"`
	Display string         `json:"display"`
	Address address.Record `json:"address"`
}

// runAutocomplete drives one suggest.Session from line input until in is
// exhausted or ctx is done.
func runAutocomplete(ctx context.Context, in io.Reader, out io.Writer, lookup suggest.Lookup, opts ...suggest.Option) error {
	selected := make(chan address.Suggestion, 1)
	opts = append(opts, suggest.WithSelect(func(sg address.Suggestion) {
		selected <- sg
	}))
	session := suggest.New(lookup, nil, opts...)
	defer session.Close()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			session.Focus()
		case strings.HasPrefix(line, "#"):
			n, err := strconv.Atoi(strings.TrimPrefix(line, "#"))
			list := session.State().Suggestions
			if err != nil || n < 1 || n > len(list) {
				fmt.Fprintf(out, "no suggestion %s\n", line)
				continue
			}
			session.Select(list[n-1])
			if err := printSelection(out, <-selected); err != nil {
				return err
			}
			continue
		default:
			session.Update(line)
		}

		if err := waitIdle(ctx, session); err != nil {
			return nil
		}
		printState(out, session.State())
	}
	if err := scanner.Err(); err != nil {
		return eris.Wrap(err, "autocomplete: read input")
	}
	return nil
}

// runPlaces drives a structured session: each text line lists matching
// places and "#N" resolves place N without any debounced lookup.
func runPlaces(ctx context.Context, in io.Reader, out io.Writer, finder placeFinder) error {
	selected := make(chan address.Suggestion, 1)
	session := suggest.New(nil, nil, suggest.WithSelect(func(sg address.Suggestion) {
		selected <- sg
	}))
	defer session.Close()
	session.SetStructured(true)

	var places []address.Place
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
		case strings.HasPrefix(line, "#"):
			n, err := strconv.Atoi(strings.TrimPrefix(line, "#"))
			if err != nil || n < 1 || n > len(places) {
				fmt.Fprintf(out, "no suggestion %s\n", line)
				continue
			}
			if _, ok := session.Resolve(&places[n-1]); !ok {
				fmt.Fprintf(out, "no suggestion %s\n", line)
				continue
			}
			if err := printSelection(out, <-selected); err != nil {
				return err
			}
		default:
			session.Update(line)
			found, err := finder.Places(ctx, line)
			if err != nil {
				zap.L().Warn("autocomplete: places lookup failed", zap.String("query", line), zap.Error(err))
				found = nil
			}
			places = found
			if len(places) == 0 {
				fmt.Fprintln(out, "no matches")
			}
			for i, p := range places {
				fmt.Fprintf(out, "%d. %s\n", i+1, p.FormattedAddress)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return eris.Wrap(err, "autocomplete: read input")
	}
	return nil
}

func waitIdle(ctx context.Context, session *suggest.Session) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for !session.Idle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func printState(out io.Writer, st suggest.State) {
	switch {
	case !st.Open:
		fmt.Fprintf(out, "type at least %d characters\n", suggest.MinQueryLength)
	case st.NoMatches():
		fmt.Fprintln(out, "no matches")
	default:
		for i, sg := range st.Suggestions {
			fmt.Fprintf(out, "%d. %s\n", i+1, address.DisplayLine(sg))
		}
	}
}

func printSelection(out io.Writer, sg address.Suggestion) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(selection{
		Label:   sg.Label,
		Display: address.DisplayLine(sg),
		Address: address.Normalize(sg.Address),
	})
}
