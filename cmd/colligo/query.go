package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/services/delivery"
	"github.com/ternarybob/colligo/internal/services/notify"
	"github.com/ternarybob/colligo/internal/storage"
)

// runMaintenance dispatches the archive and delivery flags. One mode runs
// per invocation: -list wins over -show, -show over -deliver.
func runMaintenance(ctx context.Context, config *common.Config, logger arbor.ILogger) error {
	mgr, err := storage.NewManager(logger, &config.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer mgr.Close()

	switch {
	case *listCount > 0:
		return listJobs(ctx, mgr, *listCount)
	case *showKey != "":
		return showJob(ctx, mgr, *showKey)
	default:
		return replayDelivery(ctx, mgr, config, logger)
	}
}

// listJobs prints the most recently seen archived jobs.
func listJobs(ctx context.Context, mgr interfaces.StorageManager, limit int) error {
	total, err := mgr.Jobs().CountJobs(ctx)
	if err != nil {
		return err
	}
	jobs, err := mgr.Jobs().ListJobs(ctx, limit)
	if err != nil {
		return err
	}

	fmt.Printf("Archive holds %d jobs; showing the %d most recent\n\n", total, len(jobs))
	for _, job := range jobs {
		posted := "-"
		if job.Record.PostedAt != nil {
			posted = job.Record.PostedAt.Format("2006-01-02")
		}
		fmt.Printf("%-10s %-10s %s\n", job.Record.Platform, posted, job.Record.Title)
		if job.Record.Company != "" {
			fmt.Printf("           company: %s\n", job.Record.Company)
		}
		fmt.Printf("           key: %s\n", job.Key)
	}
	return nil
}

// showJob prints one archived job by identity key as indented JSON.
func showJob(ctx context.Context, mgr interfaces.StorageManager, key string) error {
	job, err := mgr.Jobs().GetJob(ctx, key)
	if err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			return fmt.Errorf("no archived job with key %q", key)
		}
		return err
	}

	out, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// replayDelivery runs a delivery pass over the last consolidated corpus
// without crawling, picking up records whose sends failed on earlier runs.
func replayDelivery(ctx context.Context, mgr interfaces.StorageManager, config *common.Config, logger arbor.ILogger) error {
	if !config.Notify.Enabled {
		return fmt.Errorf("notifications are disabled; nothing to deliver")
	}

	records, err := mgr.Corpus().LoadConsolidated(ctx)
	if err != nil {
		return fmt.Errorf("failed to load consolidated corpus: %w", err)
	}
	if len(records) == 0 {
		logger.Info().Msg("No consolidated corpus on disk; run a harvest first")
		return nil
	}

	notifier := notify.NewDiscordNotifier(&config.Notify, logger)
	svc := delivery.NewService(notifier, mgr.Ledger(), config.Notify.MaxPerRun, logger)

	result, err := svc.DeliverPending(ctx, records)
	if err != nil {
		return err
	}

	logger.Info().
		Int("pending", result.Pending).
		Int("delivered", result.Delivered).
		Int("failed", result.Failed).
		Msg("Delivery replay finished")
	return nil
}
