// Package crawler drives source adapters through paginated fetches and
// assembles per-run corpora: a pagination controller per term, a runner
// per source, and an orchestrator across all sources.
package crawler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/normalizer"
)

// StopReason records why pagination for a term ended.
type StopReason string

const (
	// StopCutoff: a record older than the recency cutoff appeared; the rest
	// of that page was still processed, pagination stopped after it.
	StopCutoff StopReason = "cutoff"
	// StopEmptyPage: the page yielded zero raw records.
	StopEmptyPage StopReason = "empty_page"
	// StopPageLimit: the configured page ceiling was reached.
	StopPageLimit StopReason = "page_limit"
	// StopNoNextPage: the adapter signalled there is no further page.
	StopNoNextPage StopReason = "no_next_page"
	// StopCancelled: the context was cancelled between pages.
	StopCancelled StopReason = "cancelled"
)

// TermResult is the outcome of paginating one search term.
type TermResult struct {
	Records      []models.JobRecord
	PagesVisited int
	Rejected     int
	Excluded     int
	Stop         StopReason
}

// ControllerOptions fixes the pagination policy for one run.
type ControllerOptions struct {
	MaxPages int
	// MaxAge is the recency window; zero disables the cutoff stop.
	MaxAge time.Duration
	// RequestDelay is the pause between consecutive page fetches.
	RequestDelay time.Duration
	// ExcludeTitles drops records whose title contains any of these
	// substrings (case-insensitive).
	ExcludeTitles []string
}

// Controller walks an adapter's result pages for one term, normalizing
// raw records and stopping on cutoff, empty page, page ceiling or
// adapter exhaustion. The cutoff instant is fixed at construction so
// every page of a run is judged against the same boundary.
type Controller struct {
	adapter interfaces.SourceAdapter
	norm    *normalizer.Normalizer
	opts    ControllerOptions
	cutoff  time.Time
	logger  arbor.ILogger
}

// NewController creates a controller anchored at now.
func NewController(adapter interfaces.SourceAdapter, norm *normalizer.Normalizer, opts ControllerOptions, now time.Time, logger arbor.ILogger) *Controller {
	if opts.MaxPages < 1 {
		opts.MaxPages = 1
	}

	var cutoff time.Time
	if opts.MaxAge > 0 {
		cutoff = now.Add(-opts.MaxAge)
	}

	return &Controller{
		adapter: adapter,
		norm:    norm,
		opts:    opts,
		cutoff:  cutoff,
		logger:  logger,
	}
}

// Crawl paginates the term from page 1 until a stop condition fires.
// Adapter errors abort the term but the records gathered so far are
// returned alongside the error; a no-results classification is treated
// as an empty page, not a failure.
func (c *Controller) Crawl(ctx context.Context, term string) (*TermResult, error) {
	result := &TermResult{Stop: StopPageLimit}

	for page := 1; page <= c.opts.MaxPages; page++ {
		if page > 1 {
			if err := c.pause(ctx); err != nil {
				result.Stop = StopCancelled
				return result, err
			}
		}

		raw, err := c.adapter.FetchPage(ctx, term, page)
		if err != nil {
			if interfaces.AdapterErrorIs(err, interfaces.AdapterErrNoResults) {
				result.PagesVisited = page
				result.Stop = StopEmptyPage
				return result, nil
			}
			return result, err
		}
		result.PagesVisited = page

		if len(raw.Records) == 0 {
			result.Stop = StopEmptyPage
			return result, nil
		}

		sawStale := false
		parsed := 0
		for _, fields := range raw.Records {
			rec, err := c.norm.Normalize(fields, c.adapter.Platform())
			if err != nil {
				var rejection *normalizer.RejectionError
				if errors.As(err, &rejection) {
					result.Rejected++
					continue
				}
				return result, err
			}
			parsed++

			if !c.cutoff.IsZero() && rec.OlderThan(c.cutoff) {
				// Stale records are dropped but the rest of the page is
				// still harvested; pagination ends after this page.
				if !sawStale {
					c.logger.Debug().
						Str("platform", string(c.adapter.Platform())).
						Str("title", rec.Title).
						Int("page", page).
						Msg("Stale record reached; stopping after this page")
				}
				sawStale = true
				continue
			}

			if c.titleExcluded(rec.Title) {
				result.Excluded++
				continue
			}

			result.Records = append(result.Records, *rec)
		}

		if sawStale {
			result.Stop = StopCutoff
			return result, nil
		}
		// A page where nothing normalized is as terminal as a page with
		// no records at all.
		if parsed == 0 {
			result.Stop = StopEmptyPage
			return result, nil
		}
		if !raw.HasNextPage {
			result.Stop = StopNoNextPage
			return result, nil
		}
	}

	return result, nil
}

// pause waits the configured request delay, bailing out early when the
// context is cancelled.
func (c *Controller) pause(ctx context.Context) error {
	if c.opts.RequestDelay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(c.opts.RequestDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Controller) titleExcluded(title string) bool {
	if len(c.opts.ExcludeTitles) == 0 {
		return false
	}
	lowered := strings.ToLower(title)
	for _, marker := range c.opts.ExcludeTitles {
		if marker == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}
