package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/dendrotime/pkg/config"
	"github.com/Sumatoshi-tech/dendrotime/pkg/dendrogram"
	"github.com/Sumatoshi-tech/dendrotime/pkg/jobclient"
	"github.com/Sumatoshi-tech/dendrotime/pkg/observability"
	"github.com/Sumatoshi-tech/dendrotime/pkg/recording"
	"github.com/Sumatoshi-tech/dendrotime/pkg/version"
	"github.com/Sumatoshi-tech/dendrotime/pkg/view"
)

const (
	recordingDirPerm = 0o750
	shutdownTimeout  = 5 * time.Second
)

// ErrInvalidJobID is returned for job ids that are not positive integers.
var ErrInvalidJobID = errors.New("invalid job id")

// app bundles the configuration and telemetry shared by the online commands.
type app struct {
	cfg       *config.Config
	providers observability.Providers
	red       *observability.REDMetrics
	derive    *observability.DeriveMetrics
}

// loadConfig loads the file named by --config and applies --backend.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var path string
	if flag := cmd.Flag(flagConfig); flag != nil {
		path = flag.Value.String()
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if flag := cmd.Flag(flagBackend); flag != nil && flag.Changed {
		cfg.Backend.URL = flag.Value.String()
	}

	return cfg, nil
}

func newApp(cmd *cobra.Command, mode observability.AppMode) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	providers, err := observability.Init(observabilityConfig(cmd, cfg, mode))
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	derive, err := observability.NewDeriveMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	return &app{cfg: cfg, providers: providers, red: red, derive: derive}, nil
}

func observabilityConfig(cmd *cobra.Command, cfg *config.Config, mode observability.AppMode) observability.Config {
	oc := observability.DefaultConfig()
	oc.ServiceVersion = version.Version
	oc.Environment = cfg.Telemetry.Environment
	oc.Mode = mode
	oc.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	oc.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	oc.SampleRatio = cfg.Telemetry.SampleRatio
	oc.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	oc.LogJSON = cfg.Logging.Format == config.LogFormatJSON
	oc.LogOutput = cmd.ErrOrStderr()

	if flagSet(cmd, flagVerbose) {
		oc.LogLevel = slog.LevelDebug
	}

	if flagSet(cmd, flagQuiet) {
		oc.LogLevel = slog.LevelError
	}

	return oc
}

func flagSet(cmd *cobra.Command, name string) bool {
	flag := cmd.Flag(name)

	return flag != nil && flag.Value.String() == "true"
}

func (a *app) logger() *slog.Logger {
	return a.providers.Logger
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := a.providers.Shutdown(ctx)
	if err != nil {
		a.logger().Warn("observability shutdown failed", "error", err)
	}
}

func (a *app) jobClient() (*jobclient.Client, error) {
	return jobclient.New(a.cfg.Backend.URL,
		jobclient.WithHTTPClient(&http.Client{Timeout: a.cfg.Backend.RequestTimeout}),
		jobclient.WithLogger(a.logger()),
		jobclient.WithTracer(a.providers.Tracer),
	)
}

func (a *app) poller(client *jobclient.Client) *jobclient.Poller {
	return jobclient.NewPoller(client,
		jobclient.WithInterval(a.cfg.Backend.PollInterval),
		jobclient.WithFinishGrace(a.cfg.Backend.FinishGrace),
		jobclient.WithPollerLogger(a.logger()),
	)
}

func (a *app) deriver() *view.Deriver {
	return view.NewDeriver(viewOptions(a.cfg),
		view.WithLogger(a.logger()),
		view.WithMetrics(a.derive),
		view.WithTracer(a.providers.Tracer),
	)
}

// recorder opens a recording for jobID, or returns nil when recording is off.
func (a *app) recorder(jobID int64) (*recording.Recorder, error) {
	if !a.cfg.Recording.Enabled {
		return nil, nil //nolint:nilnil // nil recorder means recording is disabled.
	}

	err := os.MkdirAll(a.cfg.Recording.Directory, recordingDirPerm)
	if err != nil {
		return nil, fmt.Errorf("create recording dir: %w", err)
	}

	rec, path, err := recording.Create(a.cfg.Recording.Directory, jobID)
	if err != nil {
		return nil, err
	}

	a.logger().Info("recording job", "job", jobID, "path", path)

	return rec, nil
}

// viewOptions maps the dashboard section onto view derivation options.
func viewOptions(cfg *config.Config) view.Options {
	opts := view.DefaultOptions()
	opts.Layout.Mode = dendrogram.ModeFor(cfg.Dashboard.EqualNodeDistance)
	opts.Layout.Width = cfg.Dashboard.Width
	opts.Layout.NodeSpacing = cfg.Dashboard.NodeSpacing
	opts.Layout.ShowLabelsOnHover = cfg.Dashboard.ShowLabelsOnHover
	opts.MaxLeaves = cfg.Dashboard.MaxLeaves
	opts.UseTimestamps = cfg.Dashboard.UseTimestamps

	return opts
}

func parseJobID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidJobID, arg)
	}

	return id, nil
}
