package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()
	db, err := NewBadgerDB(common.GetLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestJobStorage_UpsertPreservesFirstSeen(t *testing.T) {
	store := NewJobStorage(newTestDB(t), common.GetLogger())
	ctx := context.Background()

	rec := models.JobRecord{
		Title:    "Dev Backend",
		Company:  "Acme",
		Platform: models.PlatformGupy,
		Contract: models.ContractUnknown,
		SourceID: "123",
	}
	key := models.IdentityKey(&rec)

	first := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.UpsertJobs(ctx, []models.JobRecord{rec}, first))
	require.NoError(t, store.UpsertJobs(ctx, []models.JobRecord{rec}, second))

	stored, err := store.GetJob(ctx, key)
	require.NoError(t, err)
	assert.True(t, stored.FirstSeen.Equal(first), "FirstSeen must survive re-upsert")
	assert.True(t, stored.LastSeen.Equal(second), "LastSeen must be refreshed")

	count, err := store.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestJobStorage_GetUnknownKey(t *testing.T) {
	store := NewJobStorage(newTestDB(t), common.GetLogger())

	_, err := store.GetJob(context.Background(), "gupy:id:missing")
	assert.ErrorIs(t, err, interfaces.ErrJobNotFound)
}

func TestJobStorage_ListJobsMostRecentFirst(t *testing.T) {
	store := NewJobStorage(newTestDB(t), common.GetLogger())
	ctx := context.Background()

	older := models.JobRecord{Title: "Older", Platform: models.PlatformGupy, Contract: models.ContractUnknown, SourceID: "1"}
	newer := models.JobRecord{Title: "Newer", Platform: models.PlatformGupy, Contract: models.ContractUnknown, SourceID: "2"}

	require.NoError(t, store.UpsertJobs(ctx, []models.JobRecord{older}, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, store.UpsertJobs(ctx, []models.JobRecord{newer}, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)))

	jobs, err := store.ListJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Newer", jobs[0].Record.Title)
}
