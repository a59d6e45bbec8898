package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/editmine/pkg/detector"
	"github.com/Sumatoshi-tech/editmine/pkg/mcp"
	"github.com/Sumatoshi-tech/editmine/pkg/observability"
)

func newMCPCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the editmine engines as tools that AI agents can
discover and invoke:
  - editmine_compare: classify the change between two snapshots
  - editmine_abstract: build the edit template of two snapshots
  - editmine_tokenize: tokenize one snapshot`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			oc, err := telemetryConfig(cfg, opts, observability.ModeMCP)
			if err != nil {
				return err
			}

			// stdout carries the protocol; logs go to stderr as JSON.
			oc.LogJSON = true

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

			mode, err := cfg.ParsedMode()
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:  providers.Logger,
				Metrics: red,
				Tracer:  providers.Tracer,
				Detectors: detector.NewRegistry(
					detector.WithLogger(observability.Component(providers.Logger, "detector")),
					detector.WithTracer(providers.Tracer),
					detector.WithMaxTokens(cfg.Limits.MaxTokens),
					detector.WithMode(mode),
				),
			})

			return srv.Run(ctx)
		},
	}

	return cmd
}
