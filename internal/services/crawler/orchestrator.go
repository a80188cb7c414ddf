package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/dedup"
)

// RunOutcome is what one orchestrated harvest produced.
type RunOutcome struct {
	Report *models.RunReport
	// Consolidated is the full cross-source corpus of this run.
	Consolidated []models.JobRecord
	// New is the subset of Consolidated whose identity keys were absent
	// from the checkpoint before this run.
	New []models.JobRecord
}

// Orchestrator runs every enabled source in declared order, consolidates
// the batches, advances the dedupe checkpoint and persists corpus, report
// and archive. Source failures are contained per source; persistence
// failures abort the run.
type Orchestrator struct {
	config   *common.Config
	storage  interfaces.StorageManager
	adapters []interfaces.SourceAdapter
	deduper  *dedup.Engine
	logger   arbor.ILogger
}

// NewOrchestrator creates an orchestrator over the given adapters, which
// must already be filtered to enabled sources in configuration order.
func NewOrchestrator(config *common.Config, storage interfaces.StorageManager, adapters []interfaces.SourceAdapter, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		config:   config,
		storage:  storage,
		adapters: adapters,
		deduper:  dedup.NewEngine(logger),
		logger:   logger,
	}
}

// RunOnce executes one full harvest over all terms and sources.
func (o *Orchestrator) RunOnce(ctx context.Context, terms []string) (*RunOutcome, error) {
	runID := uuid.New().String()
	startedAt := time.Now()
	report := models.NewRunReport(runID, startedAt)

	o.logger.Info().
		Str("run_id", runID).
		Int("terms", len(terms)).
		Int("sources", len(o.adapters)).
		Msg("Harvest run started")

	checkpoint, err := o.storage.Checkpoint().Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	maxAge, _ := o.config.Crawl.MaxAge()
	opts := ControllerOptions{
		MaxPages:      o.config.Crawl.MaxPages,
		MaxAge:        maxAge,
		RequestDelay:  o.config.Crawl.RequestDelayDuration(),
		ExcludeTitles: o.config.Crawl.ExcludeTitles,
	}

	var collected []models.JobRecord
	for _, adapter := range o.adapters {
		platform := adapter.Platform()
		runner := NewRunner(adapter, opts, o.logger)

		records, srcReport := runner.Run(ctx, terms, startedAt)
		report.PerSource[platform] = srcReport
		report.SourceOrder = append(report.SourceOrder, platform)
		collected = append(collected, records...)

		if err := o.storage.Corpus().SaveSourceRecords(ctx, platform, records); err != nil {
			return nil, fmt.Errorf("failed to persist %s records: %w", platform, err)
		}

		if ctx.Err() != nil {
			break
		}
	}

	consolidated := o.deduper.Dedupe(collected)
	fresh := o.deduper.NewSince(consolidated, checkpoint)

	o.deduper.MarkSeen(consolidated, checkpoint, startedAt)
	if err := o.storage.Checkpoint().Save(ctx, checkpoint); err != nil {
		return nil, fmt.Errorf("failed to save checkpoint: %w", err)
	}

	if err := o.storage.Corpus().SaveConsolidated(ctx, consolidated); err != nil {
		return nil, fmt.Errorf("failed to save consolidated corpus: %w", err)
	}

	if err := o.storage.Jobs().UpsertJobs(ctx, consolidated, startedAt); err != nil {
		return nil, fmt.Errorf("failed to update job archive: %w", err)
	}

	report.ConsolidatedCount = len(consolidated)
	report.NewCount = len(fresh)
	report.RunEndedAt = time.Now()

	if err := o.storage.Corpus().SaveRunReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save run report: %w", err)
	}

	o.logger.Info().
		Str("run_id", runID).
		Int("collected", report.TotalCollected()).
		Int("consolidated", report.ConsolidatedCount).
		Int("new", report.NewCount).
		Bool("failures", report.Failed()).
		Msg("Harvest run finished")

	return &RunOutcome{
		Report:       report,
		Consolidated: consolidated,
		New:          fresh,
	}, nil
}
