package crawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/dedup"
	"github.com/ternarybob/colligo/internal/services/normalizer"
)

// Runner harvests one source: every search term through the pagination
// controller, then an intra-source dedupe pass so a record appearing
// under two terms is kept once.
type Runner struct {
	adapter interfaces.SourceAdapter
	opts    ControllerOptions
	deduper *dedup.Engine
	logger  arbor.ILogger
}

// NewRunner creates a runner for the adapter with the shared crawl policy.
func NewRunner(adapter interfaces.SourceAdapter, opts ControllerOptions, logger arbor.ILogger) *Runner {
	return &Runner{
		adapter: adapter,
		opts:    opts,
		deduper: dedup.NewEngine(logger),
		logger:  logger,
	}
}

// Run crawls all terms and returns the deduplicated source batch with its
// report. Term failures are contained: the failing term's partial records
// are kept, the error is noted on the report, and remaining terms still
// run. Context cancellation ends the source immediately.
func (r *Runner) Run(ctx context.Context, terms []string, now time.Time) ([]models.JobRecord, *models.SourceReport) {
	platform := r.adapter.Platform()
	report := &models.SourceReport{
		Platform:  platform,
		StartedAt: now,
	}

	var collected []models.JobRecord
	var termErrs []string
	for _, term := range terms {
		controller := NewController(r.adapter, normalizer.NewWithClock(func() time.Time { return now }), r.opts, now, r.logger)

		result, err := controller.Crawl(ctx, term)
		collected = append(collected, result.Records...)
		report.Rejected += result.Rejected

		if err != nil {
			termErrs = append(termErrs, fmt.Sprintf("%s: %v", term, err))
			r.logger.Warn().
				Err(err).
				Str("platform", string(platform)).
				Str("term", term).
				Int("partial_records", len(result.Records)).
				Msg("Term crawl failed")

			if ctx.Err() != nil {
				break
			}
			continue
		}

		r.logger.Info().
			Str("platform", string(platform)).
			Str("term", term).
			Int("records", len(result.Records)).
			Int("pages", result.PagesVisited).
			Str("stop", string(result.Stop)).
			Msg("Term crawl finished")
	}

	unique := r.deduper.Dedupe(collected)
	report.Count = len(unique)
	report.Error = strings.Join(termErrs, "; ")
	report.EndedAt = time.Now()

	return unique, report
}
