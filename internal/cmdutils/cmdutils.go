package cmdutils

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/health"
	"github.com/openkcm/common-sdk/pkg/logger"
	"github.com/openkcm/common-sdk/pkg/otlp"
	"github.com/openkcm/common-sdk/pkg/status"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/catalog-client/internal/config"
)

const (
	healthStatusTimeout = 5 * time.Second

	// ConfigDirEnv names a directory searched for config.yaml before the
	// default locations.
	ConfigDirEnv = "CATALOG_CLIENT_CONFIG_DIR"
)

var defaultConfigDirs = []string{"/etc/catalog-client", "$HOME/.catalog-client", "."}

type runMode struct {
	telemetry    bool
	statusServer bool
}

var (
	serviceMode = runMode{telemetry: true, statusServer: true}
	jobMode     = runMode{}
)

func CobraCommand(
	use, short, long, buildInfo string,
	wrapperFunc func(context.Context, func(context.Context, *config.Config) error, *config.Config) error,
	businessFunc func(context.Context, *config.Config) error,
) *cobra.Command {
	return &cobra.Command{
		Use:          use,
		Short:        short,
		Long:         long,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(buildInfo)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			err = wrapperFunc(cmd.Context(), businessFunc, cfg)
			if err != nil {
				return fmt.Errorf("running %s: %w", use, err)
			}

			return nil
		},
	}
}

// RunAsService runs fn with telemetry and the status server, for long
// running commands.
func RunAsService(ctx context.Context, fn func(context.Context, *config.Config) error, cfg *config.Config) error {
	return run(ctx, serviceMode, fn, cfg)
}

// RunAsJob runs fn with logging only, for commands that finish on their own
// such as login or products list.
func RunAsJob(ctx context.Context, fn func(context.Context, *config.Config) error, cfg *config.Config) error {
	return run(ctx, jobMode, fn, cfg)
}

func run(ctx context.Context, mode runMode, fn func(context.Context, *config.Config) error, cfg *config.Config) error {
	// LoggerConfig
	err := logger.InitAsDefault(cfg.Logger, cfg.Application)
	if err != nil {
		return oops.In("main").
			Wrapf(err, "Failed to initialise the logger")
	}
	slogctx.Debug(ctx, "Starting the catalog client",
		slog.String("api", cfg.API.BaseURL),
		slog.String("storage", string(cfg.Storage.Type)),
		slog.Bool("service", mode.statusServer),
	)

	// OpenTelemetry
	if mode.telemetry {
		err = otlp.Init(ctx, &cfg.Application, &cfg.Telemetry, &cfg.Logger)
		if err != nil {
			return oops.In("main").Wrapf(err, "Failed to load the telemetry")
		}
	}

	// Status Server
	if mode.statusServer {
		go func() {
			err := startStatusServer(ctx, cfg)
			if err != nil {
				slogctx.Error(ctx, "Failure on the status server", "error", err)
				_ = syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
			}
		}()
	}

	// Business Logic
	err = fn(ctx, cfg)
	if err != nil {
		return oops.In("main").Wrapf(err, "Failed to run the catalog client")
	}

	return nil
}

func configDirs() []string {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return append([]string{dir}, defaultConfigDirs...)
	}

	return defaultConfigDirs
}

func loadConfig(buildInfo string) (*config.Config, error) {
	defaultValues := map[string]any{}
	cfg := &config.Config{}

	err := commoncfg.LoadConfig(cfg, defaultValues, configDirs()...)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	// Update Version
	err = commoncfg.UpdateConfigVersion(
		&cfg.BaseConfig,
		buildInfo,
	)
	if err != nil {
		return nil, fmt.Errorf("updating the version configuration: %w", err)
	}

	return cfg, nil
}

func startStatusServer(ctx context.Context, cfg *config.Config) error {
	liveness := status.WithLiveness(
		health.NewHandler(
			health.NewChecker(health.WithDisabledAutostart()),
		),
	)

	healthOptions := []health.Option{
		health.WithDisabledAutostart(),
		health.WithTimeout(healthStatusTimeout),
		health.WithStatusListener(statusListener),
	}

	readiness := status.WithReadiness(
		health.NewHandler(
			health.NewChecker(healthOptions...),
		),
	)

	err := status.Start(ctx, &cfg.BaseConfig, liveness, readiness)
	if err != nil {
		return fmt.Errorf("starting status server: %w", err)
	}

	return nil
}

func statusListener(ctx context.Context, state health.State) {
	attrs := make([]any, 0, 2+2*len(state.CheckState))
	attrs = append(attrs, "status", state.Status)
	for name, check := range state.CheckState {
		attrs = append(attrs, name, check.Status)
	}

	slogctx.Info(ctx, "readiness status changed", attrs...)
}
