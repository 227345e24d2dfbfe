package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/nudgebot/nudge/internal/config"
	"github.com/nudgebot/nudge/internal/gateway"
	"github.com/nudgebot/nudge/internal/notify"
	"github.com/nudgebot/nudge/internal/printer"
	"github.com/nudgebot/nudge/internal/quota"
	"github.com/nudgebot/nudge/internal/scheduler"
	"github.com/nudgebot/nudge/internal/timeparse"
	"github.com/nudgebot/nudge/pkg/remindstore"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reminder service",
	Long: `Run the reminder service: the command gateway, the delivery scheduler
and the /healthz endpoint. Blocks until SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "nudge.yml", "Path to the configuration file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		return printer.Error(
			"Cannot connect to Redis",
			fmt.Sprintf("Ping against %s failed: %v", cfg.RedisURL, err),
			[]string{
				"Check that Redis is running and reachable",
				"Set NUDGE_REDIS_URL or redis_url in nudge.yml to the right server",
			},
		)
	}

	loc := cfg.Location()
	publisher := notify.NewPublisher(store)

	parser := timeparse.New(loc)
	parser.MaxInputLength = cfg.Commands.MaxInputLength

	guard := quota.New(store)
	guard.MaxActive = *cfg.Quota.MaxActive
	guard.Windows = quotaWindows(cfg)

	gw := gateway.New(store, publisher, parser, guard, loc, cfg.Commands.ListLimit)
	engine := scheduler.New(store, publisher, loc,
		cfg.Scheduler.PollInterval.Std(), cfg.DeliveryChannel, cfg.OpsChannel)

	health := scheduler.NewHealthServer(store, cfg.Scheduler.HealthAddr)
	if err := health.Start(); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}
	defer health.Shutdown(context.Background())

	printer.Step("Starting Nudge for namespace '%s' (timezone %s)\n", cfg.Namespace, cfg.Timezone)
	printer.Info("  Health endpoint: http://localhost%s/healthz\n", cfg.Scheduler.HealthAddr)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := engine.Start(runCtx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	errCh := make(chan error, 1)
	go func() {
		errCh <- gw.Run(runCtx)
	}()

	select {
	case sig := <-sigCh:
		printer.Info("\nReceived signal %v, shutting down gracefully...\n", sig)
		cancel()
		<-errCh
	case runErr := <-errCh:
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("gateway error: %w", runErr)
		}
	}

	printer.Success("Nudge stopped\n")
	return nil
}

// openStore builds the store client from the loaded configuration.
func openStore(cfg *config.NudgeConfig) (*remindstore.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	keys := remindstore.Keyspace{
		Namespace: cfg.Namespace,
		Future:    cfg.Collections.Future,
		Past:      cfg.Collections.Past,
		Profiles:  cfg.Collections.Profiles,
	}
	return remindstore.NewClient(opts, keys)
}

// quotaWindows converts configured throttle windows into guard windows.
func quotaWindows(cfg *config.NudgeConfig) []quota.Window {
	windows := make([]quota.Window, 0, len(cfg.Quota.Windows))
	for _, w := range cfg.Quota.Windows {
		windows = append(windows, quota.Window{Limit: w.Limit, Span: w.Every.Std()})
	}
	return windows
}
