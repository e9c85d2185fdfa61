package main

import (
	"fmt"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/scholarship-analytics/enrollment-planner/internal/metrics"
	"github.com/scholarship-analytics/enrollment-planner/internal/server"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planner HTTP API",
		Long: `serve loads the model and history, then serves the JSON API and
Prometheus metrics until interrupted. Startup fails when the assets cannot be
loaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			setupLog := ctrl.Log.WithName("setup")

			cfg := opts.cfg.Server
			if cmd.Flags().Changed("address") {
				cfg.Address = address
			}

			m := metrics.New()
			svc, store := opts.newService(m.ObserveAssets, m)

			snap, err := store.Reload(ctrl.LoggerInto(ctx, setupLog))
			if err != nil {
				setupLog.Error(err, "unable to load model and history")
				return fmt.Errorf("failed to load assets: %w", err)
			}
			setupLog.Info("Assets loaded",
				"months", snap.History.Len(),
				"skippedLines", len(snap.Report.SkippedLines),
				"features", snap.Model.Features())

			return server.New(cfg, server.NewHandler(svc, m)).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address (overrides server.address)")
	return cmd
}
