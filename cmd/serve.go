package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/listing-signal/signal-web/internal/config"
	"github.com/listing-signal/signal-web/internal/flow"
	"github.com/listing-signal/signal-web/internal/lead"
	"github.com/listing-signal/signal-web/internal/server"
	"github.com/listing-signal/signal-web/internal/site"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the landing page and its API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		handler, err := buildHandler(cfg, reg)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		return runServer(ctx, srv, shutdownTimeout(cfg.Server))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// buildHandler wires every collaborator the HTTP server routes to.
func buildHandler(c *config.Config, reg *prometheus.Registry) (http.Handler, error) {
	page, err := site.New(site.Config{
		SiteURL:     c.Site.URL,
		MetaPixelID: c.Site.MetaPixelID,
		MapsKey:     c.Site.MapsKey,
		Debounce:    c.Autocomplete.Debounce(),
	}, nil)
	if err != nil {
		return nil, eris.Wrap(err, "serve: build site")
	}

	flows := flow.NewRegistry(
		flow.WithCapacity(c.Lead.FlowCapacity),
		flow.WithTTL(time.Duration(c.Lead.FlowTTLMins)*time.Minute),
		flow.WithMetrics(flow.NewMetrics(reg)),
		flow.WithFlowOptions(flow.WithSMSDelay(time.Duration(c.Lead.SMSDelayMS)*time.Millisecond)),
	)

	searcher := buildSearcher(c.Geocode, reg)
	relay := lead.NewSubmitter(c.Lead.APIURL, time.Duration(c.Lead.TimeoutSecs)*time.Second)
	if !relay.Configured() {
		zap.L().Warn("serve: lead.api_url not set, submissions will be rejected")
	}

	srv := server.New(server.Deps{
		Site:        page,
		Lookup:      searcher,
		Relay:       relay,
		Flows:       flows,
		Gatherer:    reg,
		CORSOrigins: c.Server.CORSOrigins,
	})
	zap.L().Info("serve: lookup sources", zap.Strings("sources", searcher.Sources()))
	return srv.Handler(), nil
}

func shutdownTimeout(sc config.ServerConfig) time.Duration {
	if sc.ShutdownTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(sc.ShutdownTimeout) * time.Second
}

// runServer serves until ctx is done, then drains in-flight requests.
func runServer(ctx context.Context, srv *http.Server, drain time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drain)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "server shutdown")
		}
		return nil
	})

	return g.Wait()
}
