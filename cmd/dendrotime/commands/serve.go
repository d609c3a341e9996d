package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/dendrotime/pkg/dashboard"
	"github.com/Sumatoshi-tech/dendrotime/pkg/observability"
	"github.com/Sumatoshi-tech/dendrotime/pkg/plotpage"
	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
)

// NewServeCommand starts the live dashboard, optionally following a job.
func NewServeCommand() *cobra.Command {
	var (
		addr  string
		jobID int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live dashboard",
		Long: `Serve the live dashboard. With --job the job is polled and every snapshot
is derived into a view and pushed to connected browsers. The dashboard keeps
running after the job finishes until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("job") && jobID <= 0 {
				return fmt.Errorf("%w: %d", ErrInvalidJobID, jobID)
			}

			a, err := newApp(cmd, observability.ModeServe)
			if err != nil {
				return err
			}
			defer a.close()

			if addr == "" {
				addr = a.cfg.Server.Addr()
			}

			return runServe(cmd.Context(), a, addr, jobID)
		},
	}

	cmd.Flags().String(flagBackend, "", backendUsage)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.host:server.port)")
	cmd.Flags().Int64Var(&jobID, "job", 0, "job id to follow")

	return cmd
}

func runServe(ctx context.Context, a *app, addr string, jobID int64) error {
	srv := dashboard.New(dashboard.Config{
		Addr:            addr,
		Theme:           plotpage.ParseTheme(a.cfg.Dashboard.Theme),
		ReadTimeout:     a.cfg.Server.ReadTimeout,
		WriteTimeout:    a.cfg.Server.WriteTimeout,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
		MaxClients:      a.cfg.Dashboard.MaxClients,
	},
		dashboard.WithLogger(a.logger()),
		dashboard.WithTracer(a.providers.Tracer),
		dashboard.WithREDMetrics(a.red),
		dashboard.WithDeriveMetrics(a.derive),
		dashboard.WithMetricsHandler(a.providers.MetricsHandler),
	)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return srv.Run(ctx)
	})

	if jobID > 0 {
		group.Go(func() error {
			return follow(ctx, a, srv, jobID)
		})
	}

	return group.Wait()
}

// follow polls jobID and publishes each derived view. Its end does not stop
// the dashboard unless it failed.
func follow(ctx context.Context, a *app, srv *dashboard.Server, jobID int64) error {
	client, err := a.jobClient()
	if err != nil {
		return err
	}

	rec, err := a.recorder(jobID)
	if err != nil {
		return err
	}

	deriver := a.deriver()
	ctx = observability.ContextWithJob(ctx, jobID)

	pollErr := a.poller(client).Run(ctx, jobID, func(ctx context.Context, snap *progress.Snapshot) error {
		recordErr := record(rec, snap)
		if recordErr != nil {
			return recordErr
		}

		srv.Publish(deriver.Derive(ctx, jobID, snap))

		return nil
	})

	err = errors.Join(pollErr, closeRecorder(rec))
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
