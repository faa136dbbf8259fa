package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // Zone data for minimal container images.

	"smartbrief/internal/cache"
	"smartbrief/internal/config"
	"smartbrief/internal/domain"
	"smartbrief/internal/report"
	"smartbrief/internal/scheduler"

	"github.com/spf13/cobra"
)

var (
	flagJSON      bool
	flagCachePath string
)

var rootCmd = &cobra.Command{
	Use:           "smartbrief",
	Short:         "Send the SmartBrief morning digest to every subscriber who is due",
	Long:          "smartbrief runs one digest pass: subscribers whose local time is in the morning dispatch window get the digest for their city, built once per city and day.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runOnce,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [YYYY-MM-DD]",
	Short: "Print the cached digests for a date (default: today in UTC)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInspect,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run digest passes on the SCHEDULE cron spec until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runSchedule,
}

func init() {
	inspectCmd.Flags().BoolVar(&flagJSON, "json", false, "print raw entries as JSON")
	inspectCmd.Flags().StringVar(&flagCachePath, "cache", "", "cache file path (default: CACHE_PATH)")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "smartbrief:", err)
		os.Exit(1)
	}
}

func newLogger(level slog.Level) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	return log
}

func loadConfig(ctx context.Context) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		log := newLogger(slog.LevelInfo)
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return config.Config{}, nil, err
	}

	return cfg, newLogger(cfg.SlogLevel()), nil
}

func runOnce(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, log, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize",
			"error", err)

		return err
	}
	defer a.Close(ctx)

	if _, err = a.run(ctx); err != nil {
		if errors.Is(err, cache.ErrLocked) {
			log.ErrorContext(ctx, "Another run is in progress",
				"cachePath", cfg.CachePath)
		} else {
			log.ErrorContext(ctx, "Failed to run digest pass",
				"error", err)
		}

		return err
	}

	return nil
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	start := time.Now()

	cfg, log, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	if err = scheduler.CheckCadence(cfg.Schedule, cfg.DispatchWindow); err != nil {
		log.ErrorContext(ctx, "Schedule cannot serve the dispatch window",
			"error", err,
			"spec", cfg.Schedule,
			"window", cfg.DispatchWindow.String())

		return err
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize",
			"error", err)

		return err
	}
	defer a.Close(ctx)

	sched := scheduler.New(ctx, cfg.Schedule, func(ctx context.Context) {
		if _, runErr := a.run(ctx); runErr != nil {
			if errors.Is(runErr, cache.ErrLocked) {
				log.WarnContext(ctx, "Skipping tick while another run holds the lock",
					"cachePath", cfg.CachePath)
				return
			}

			log.ErrorContext(ctx, "Failed to run digest pass",
				"error", runErr)
		}
	}, cfg.RunTimeout, log)

	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", cfg.Schedule)

		return err
	}
	log.InfoContext(ctx, "Scheduler is started",
		"spec", cfg.Schedule,
		"timezone", scheduler.Timezone,
		"runTimeout", cfg.RunTimeout.String())

	<-ctx.Done()
	log.InfoContext(ctx, "Shutdown signal is received",
		"uptimeSeconds", time.Since(start).Seconds())

	sched.Stop()
	log.InfoContext(ctx, "Scheduler is stopped")

	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadInspect()
	if err != nil {
		return err
	}

	path := cfg.CachePath
	if flagCachePath != "" {
		path = flagCachePath
	}

	date := time.Now().UTC().Format(domain.DateLayout)
	if len(args) == 1 {
		date = args[0]
	}

	day, err := report.Load(path, date)
	if err != nil {
		return err
	}

	if flagJSON {
		return day.WriteJSON(cmd.OutOrStdout())
	}

	return day.WriteText(cmd.OutOrStdout())
}
