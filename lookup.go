package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"clinical-lookup/internal/client"
	"clinical-lookup/internal/console"
	"clinical-lookup/internal/lookup"
	"clinical-lookup/internal/metrics"
	"clinical-lookup/internal/report"
)

func lookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Interactive patient lookup against the records API",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			token, _ := cmd.Flags().GetString("token")
			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
			return runLookup(cmd, email, password, token, metricsAddr)
		},
	}
	cmd.Flags().String("email", "", "Log in with this email before starting")
	cmd.Flags().String("password", "", "Password for --email")
	cmd.Flags().String("token", "", "Bearer token (defaults to LOOKUP_TOKEN)")
	cmd.Flags().String("metrics-addr", "", "Serve session metrics on this address, e.g. :9101")
	return cmd
}

func runLookup(cmd *cobra.Command, email, password, token, metricsAddr string) error {
	cfg, logger, err := bootstrap(os.Stderr)
	if err != nil {
		return err
	}
	if token == "" {
		token = cfg.Lookup.Token
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.Lookup.APIURL,
		client.WithToken(token),
		client.WithLogger(logger),
		client.WithBreaker(cfg.Lookup.BreakerFailures, cfg.Lookup.BreakerCooldown),
	)
	if email != "" {
		if _, err := api.Login(ctx, email, password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	m := metrics.NewCollector("clinical_lookup", prometheus.NewRegistry())
	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer srv.Close()
	}

	out := cmd.OutOrStdout()
	loop := lookup.NewEventLoop(64)
	sess := lookup.NewSession(api, loop,
		lookup.WithDebounce(cfg.Lookup.Debounce),
		lookup.WithTimeout(cfg.Lookup.RequestTimeout),
		lookup.WithLogger(logger),
		lookup.WithMetrics(m),
		lookup.WithObserver(func(v lookup.View) { console.Render(out, v) }),
		lookup.WithAuthErrorHandler(func(err error) {
			fmt.Fprintf(out, "! authentication failed, restart with --email or a fresh --token: %v\n", err)
		}),
		lookup.WithReportOptions(report.WithLetterhead(letterhead(cfg))),
	)
	logger.Debug().Str("session_id", sess.ID()).Str("api", cfg.Lookup.APIURL).Msg("lookup session started")

	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()
	go loop.Run(loopCtx)

	return console.NewREPL(loop, sess, out).Run(ctx, cmd.InOrStdin())
}
