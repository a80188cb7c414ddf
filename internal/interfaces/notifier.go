package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// Notifier delivers one job record to the downstream channel. A nil error
// is a delivery acknowledgment; the delivery service records the key in
// the ledger only after that acknowledgment. The notifier owns its own
// pacing between calls.
type Notifier interface {
	Deliver(ctx context.Context, rec *models.JobRecord) error
}
