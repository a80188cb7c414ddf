package delivery

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/storage/filestore"
)

// fakeNotifier records deliveries and fails for configured titles.
type fakeNotifier struct {
	delivered []string
	failFor   map[string]bool
}

func (f *fakeNotifier) Deliver(ctx context.Context, rec *models.JobRecord) error {
	if f.failFor[rec.Title] {
		return errors.New("webhook returned 500")
	}
	f.delivered = append(f.delivered, rec.Title)
	return nil
}

func record(title, url string) models.JobRecord {
	return models.JobRecord{
		Title:     title,
		Platform:  models.PlatformGupy,
		Contract:  models.ContractUnknown,
		SourceURL: url,
	}
}

func newLedgerStore(t *testing.T) interfaces.KeySetStore {
	t.Helper()
	return filestore.NewKeySetStore(filepath.Join(t.TempDir(), "ledger.json"), nil)
}

func TestPending_FiltersDeliveredKeys(t *testing.T) {
	recA := record("Dev A", "https://example.com/a")
	recB := record("Dev B", "https://example.com/b")

	ledger := models.NewKeySet()
	ledger.Add(models.IdentityKey(&recA), time.Now())

	pending := Pending([]models.JobRecord{recA, recB}, ledger)
	require.Len(t, pending, 1)
	assert.Equal(t, "Dev B", pending[0].Title)
}

func TestDeliverPending_RecordsLedgerAfterEachSuccess(t *testing.T) {
	store := newLedgerStore(t)
	notifier := &fakeNotifier{}
	svc := NewService(notifier, store, 0, common.GetLogger())

	batch := []models.JobRecord{record("Dev A", "https://example.com/a"), record("Dev B", "https://example.com/b")}

	result, err := svc.DeliverPending(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Delivered)
	assert.Equal(t, []string{"Dev A", "Dev B"}, notifier.delivered)

	ledger, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.Len())
}

func TestDeliverPending_NeverRedelivers(t *testing.T) {
	store := newLedgerStore(t)
	notifier := &fakeNotifier{}
	svc := NewService(notifier, store, 0, common.GetLogger())

	batch := []models.JobRecord{record("Dev A", "https://example.com/a")}

	_, err := svc.DeliverPending(context.Background(), batch)
	require.NoError(t, err)

	result, err := svc.DeliverPending(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Pending)
	assert.Len(t, notifier.delivered, 1)
}

func TestDeliverPending_FailuresAreRetriedNextRun(t *testing.T) {
	store := newLedgerStore(t)
	notifier := &fakeNotifier{failFor: map[string]bool{"Dev B": true}}
	svc := NewService(notifier, store, 0, common.GetLogger())

	batch := []models.JobRecord{record("Dev A", "https://example.com/a"), record("Dev B", "https://example.com/b")}

	result, err := svc.DeliverPending(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
	assert.Equal(t, 1, result.Failed)

	// Next run: the failed record is pending again, the delivered one is not.
	notifier.failFor = nil
	result, err = svc.DeliverPending(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pending)
	assert.Equal(t, []string{"Dev A", "Dev B"}, notifier.delivered)
}

// brokenLedger loads fine but cannot persist.
type brokenLedger struct {
	interfaces.KeySetStore
}

func (b *brokenLedger) Save(ctx context.Context, set *models.KeySet) error {
	return errors.New("disk full")
}

func TestDeliverPending_LedgerSaveFailureAbortsPass(t *testing.T) {
	store := &brokenLedger{KeySetStore: newLedgerStore(t)}
	notifier := &fakeNotifier{}
	svc := NewService(notifier, store, 0, common.GetLogger())

	batch := []models.JobRecord{record("Dev A", "https://example.com/a"), record("Dev B", "https://example.com/b")}

	result, err := svc.DeliverPending(context.Background(), batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delivery ledger")

	// The send went out, but without a durable ledger entry it does not
	// count as delivered, and the pass stops before the second record.
	assert.Equal(t, 0, result.Delivered)
	assert.Equal(t, []string{"Dev A"}, notifier.delivered)
}

func TestDeliverPending_HonorsPerRunCap(t *testing.T) {
	store := newLedgerStore(t)
	notifier := &fakeNotifier{}
	svc := NewService(notifier, store, 2, common.GetLogger())

	batch := []models.JobRecord{
		record("Dev A", "https://example.com/a"),
		record("Dev B", "https://example.com/b"),
		record("Dev C", "https://example.com/c"),
	}

	result, err := svc.DeliverPending(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Delivered)
	assert.Equal(t, 1, result.Skipped)

	// The capped record goes out on the following run.
	result, err = svc.DeliverPending(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
}
