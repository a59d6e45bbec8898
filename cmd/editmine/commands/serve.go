package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/editmine/pkg/detector"
	"github.com/Sumatoshi-tech/editmine/pkg/observability"
	"github.com/Sumatoshi-tech/editmine/pkg/server"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP JSON API",
		Long: `Serve the comparison engines over HTTP:

  POST /api/compare   classify the change between two snapshots
  POST /api/abstract  build the edit template of two snapshots
  POST /api/tokenize  tokenize one snapshot
  POST /api/lines     align two snapshots line by line
  GET  /healthz       liveness
  GET  /readyz        readiness
  GET  /metrics       Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}

			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			err = cfg.Validate()
			if err != nil {
				return err
			}

			oc, err := telemetryConfig(cfg, opts, observability.ModeServe)
			if err != nil {
				return err
			}

			oc.Prometheus = true

			ctx := cmd.Context()

			providers, err := observability.Init(ctx, oc)
			if err != nil {
				return err
			}

			defer func() {
				shutdownErr := providers.Shutdown(context.WithoutCancel(ctx))
				if shutdownErr != nil {
					providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
				}
			}()

			red, err := observability.NewREDMetrics(providers.Meter)
			if err != nil {
				return err
			}

			l, err := cfg.ParsedLanguage()
			if err != nil {
				return err
			}

			mode, err := cfg.ParsedMode()
			if err != nil {
				return err
			}

			bodyLimit, err := cfg.BodyLimit()
			if err != nil {
				return err
			}

			srv := server.New(cfg.Server, server.Deps{
				Logger:         observability.Component(providers.Logger, "server"),
				Tracer:         providers.Tracer,
				Metrics:        red,
				MetricsHandler: providers.MetricsHandler,
				Detectors: detector.NewRegistry(
					detector.WithLogger(observability.Component(providers.Logger, "detector")),
					detector.WithTracer(providers.Tracer),
					detector.WithMaxTokens(cfg.Limits.MaxTokens),
					detector.WithMode(mode),
				),
				Language:  l,
				BodyLimit: bodyLimit,
			})

			return srv.ListenAndServe(ctx, nil)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")

	return cmd
}
