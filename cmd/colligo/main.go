package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/app"
	"github.com/ternarybob/colligo/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	runOnce      = flag.Bool("once", false, "Run a single harvest and exit (ignores the schedule)")
	listCount    = flag.Int("list", 0, "Print the N most recently seen archived jobs and exit")
	showKey      = flag.String("show", "", "Print one archived job by identity key and exit")
	deliverOnly  = flag.Bool("deliver", false, "Replay delivery over the last consolidated corpus and exit")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Colligo version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("colligo.toml"); err == nil {
			configFiles = append(configFiles, "colligo.toml")
		} else if _, err := os.Stat("deployments/local/colligo.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/colligo.toml")
		}
	}

	// Startup order: config, logger, banner, application.
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Str("environment", config.Environment).
		Str("data_dir", config.Storage.DataDir).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	// Maintenance modes inspect the archive or replay delivery without
	// starting a harvest.
	if *listCount > 0 || *showKey != "" || *deliverOnly {
		if err := runMaintenance(ctx, config, logger); err != nil {
			logger.Fatal().Err(err).Msg("Command failed")
			os.Exit(1)
		}
		return
	}

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	if *runOnce || !config.Schedule.Enabled {
		if err := application.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info().Msg("Run interrupted")
				return
			}
			logger.Fatal().Err(err).Msg("Harvest run failed")
			os.Exit(1)
		}
		logger.Info().Msg("Run complete")
		return
	}

	// Scheduled mode: run immediately, then on the cron cadence until
	// interrupted. Overlapping runs are prevented by SkipIfStillRunning.
	if err := application.RunOnce(ctx); err != nil {
		logger.Error().Err(err).Msg("Initial harvest run failed")
	}

	scheduler := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	_, err = scheduler.AddFunc(config.Schedule.Cron, func() {
		if err := application.RunOnce(ctx); err != nil {
			logger.Error().Err(err).Msg("Scheduled harvest run failed")
		}
	})
	if err != nil {
		logger.Fatal().Err(err).Str("cron", config.Schedule.Cron).Msg("Failed to register schedule")
		os.Exit(1)
	}

	scheduler.Start()
	logger.Info().Str("cron", config.Schedule.Cron).Msg("Scheduler started - Press Ctrl+C to stop")

	<-ctx.Done()

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info().Msg("Scheduler stopped")
}
