// Package delivery pushes newly discovered job records through a
// notifier, tracking what was already sent in a durable ledger so
// repeated runs never redeliver. Semantics are at-least-once: a key is
// added to the ledger only after the notifier confirmed the send, so a
// crash between send and ledger write may repeat that one record.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// Result summarizes one delivery pass.
type Result struct {
	Pending   int
	Delivered int
	Failed    int
	Skipped   int
}

// Service filters a record batch against the delivery ledger and sends
// the remainder sequentially.
type Service struct {
	notifier  interfaces.Notifier
	ledger    interfaces.KeySetStore
	maxPerRun int
	logger    arbor.ILogger
}

// NewService creates a delivery service. maxPerRun of zero means
// unlimited.
func NewService(notifier interfaces.Notifier, ledger interfaces.KeySetStore, maxPerRun int, logger arbor.ILogger) *Service {
	return &Service{
		notifier:  notifier,
		ledger:    ledger,
		maxPerRun: maxPerRun,
		logger:    logger,
	}
}

// Pending returns the records whose identity keys are absent from the
// ledger, preserving input order.
func Pending(records []models.JobRecord, ledger *models.KeySet) []models.JobRecord {
	pending := make([]models.JobRecord, 0, len(records))
	for _, rec := range records {
		if ledger != nil && ledger.Contains(models.IdentityKey(&rec)) {
			continue
		}
		pending = append(pending, rec)
	}
	return pending
}

// DeliverPending sends every undelivered record in the batch. The ledger
// is persisted after each successful send, so an interrupted pass never
// loses confirmed deliveries. Send failures are logged and left for the
// next run; ledger persistence failures abort the pass.
func (s *Service) DeliverPending(ctx context.Context, records []models.JobRecord) (*Result, error) {
	ledger, err := s.ledger.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load delivery ledger: %w", err)
	}

	pending := Pending(records, ledger)
	result := &Result{Pending: len(pending)}

	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if s.maxPerRun > 0 && result.Delivered >= s.maxPerRun {
			result.Skipped = len(pending) - result.Delivered - result.Failed
			s.logger.Info().
				Int("skipped", result.Skipped).
				Int("max_per_run", s.maxPerRun).
				Msg("Delivery cap reached; remainder deferred to next run")
			break
		}

		key := models.IdentityKey(&rec)
		if err := s.notifier.Deliver(ctx, &rec); err != nil {
			result.Failed++
			s.logger.Warn().
				Err(err).
				Str("key", key).
				Str("title", rec.Title).
				Msg("Delivery failed; will retry next run")
			continue
		}

		ledger.Add(key, time.Now())
		if err := s.ledger.Save(ctx, ledger); err != nil {
			return result, fmt.Errorf("failed to persist delivery ledger: %w", err)
		}
		result.Delivered++
	}

	s.logger.Info().
		Int("pending", result.Pending).
		Int("delivered", result.Delivered).
		Int("failed", result.Failed).
		Msg("Delivery pass finished")

	return result, nil
}
