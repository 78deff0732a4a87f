package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/listing-signal/signal-web/internal/lead"
	"github.com/listing-signal/signal-web/internal/suggest"
)

type submitFlags struct {
	fullName string
	email    string
	phone    string
	address  string
	city     string
	state    string
	zip      string
	timeline string
	intent   string
	confirm  bool
	verified bool
	resolve  bool
	dryRun   bool
}

var submitOpts submitFlags

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Validate and relay a seller lead",
	Long:  "Builds a lead from flags, validates it with the page's rules, and posts it to the Listing Signal API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if !submitOpts.dryRun {
			if err := cfg.Validate("submit"); err != nil {
				return err
			}
		}

		var lookup suggest.Lookup
		if submitOpts.resolve {
			lookup = buildSearcher(cfg.Geocode, nil)
		}
		relay := lead.NewSubmitter(cfg.Lead.APIURL, time.Duration(cfg.Lead.TimeoutSecs)*time.Second)
		return runSubmit(ctx, cmd.OutOrStdout(), submitOpts, lookup, relay)
	},
}

func init() {
	f := submitCmd.Flags()
	f.StringVar(&submitOpts.fullName, "name", "", "seller full name")
	f.StringVar(&submitOpts.email, "email", "", "seller email")
	f.StringVar(&submitOpts.phone, "phone", "", "seller phone")
	f.StringVar(&submitOpts.address, "address", "", "property street address")
	f.StringVar(&submitOpts.city, "city", "", "property city")
	f.StringVar(&submitOpts.state, "state", "", "property state")
	f.StringVar(&submitOpts.zip, "zip", "", "property ZIP code")
	f.StringVar(&submitOpts.timeline, "timeline", "", "selling timeline (ASAP, 1-3 Months, 3-6 Months, 6+ Months)")
	f.StringVar(&submitOpts.intent, "intent", "", "considering an agent (Yes, Not Sure, No)")
	f.BoolVar(&submitOpts.confirm, "confirm", false, "confirm the details are accurate")
	f.BoolVar(&submitOpts.verified, "verified", false, "treat the address as verified")
	f.BoolVar(&submitOpts.resolve, "resolve", false, "verify the address through the lookup cascade")
	f.BoolVar(&submitOpts.dryRun, "dry-run", false, "print the payload instead of sending it")
	rootCmd.AddCommand(submitCmd)
}

// leadRelay delivers a built payload.
type leadRelay interface {
	Submit(ctx context.Context, p lead.Payload) error
}

func buildForm(ctx context.Context, opts submitFlags, lookup suggest.Lookup) (lead.Form, error) {
	var form lead.Form
	fields := []struct{ name, value string }{
		{"fullName", opts.fullName},
		{"email", opts.email},
		{"address", opts.address},
		{"phone", opts.phone},
		{"timeline", opts.timeline},
		{"intent", opts.intent},
	}
	for _, f := range fields {
		if err := form.Set(f.name, f.value); err != nil {
			return form, err
		}
	}

	if lookup != nil && opts.address != "" {
		results, err := lookup.Search(ctx, opts.address)
		if err != nil {
			return form, eris.Wrap(err, "submit: resolve address")
		}
		if len(results) == 0 {
			return form, eris.Errorf("submit: no match for address %q", opts.address)
		}
		form.ApplySuggestion(results[0])
	} else {
		form.AddressVerified = opts.verified
	}

	// Explicit flags win over resolved parts.
	for _, f := range []struct{ name, value string }{
		{"city", opts.city},
		{"state", opts.state},
		{"zip", opts.zip},
	} {
		if f.value == "" {
			continue
		}
		if err := form.Set(f.name, f.value); err != nil {
			return form, err
		}
	}
	form.ConfirmDetails = opts.confirm
	return form, nil
}

func runSubmit(ctx context.Context, out io.Writer, opts submitFlags, lookup suggest.Lookup, relay leadRelay) error {
	form, err := buildForm(ctx, opts, lookup)
	if err != nil {
		return err
	}
	if errs := form.Validate(); errs != nil {
		for _, field := range errs.Fields() {
			fmt.Fprintf(out, "%s: %s\n", field, errs[field])
		}
		return errs
	}

	payload := lead.BuildPayload(form)
	if opts.dryRun {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	if err := relay.Submit(ctx, payload); err != nil {
		return err
	}
	zap.L().Info("submit: lead relayed",
		zap.String("zip", payload.Zip),
		zap.String("timeline", payload.Timeline),
	)
	fmt.Fprintln(out, "lead submitted")
	return nil
}
