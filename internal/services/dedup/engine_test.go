package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/models"
)

func job(platform models.Platform, title, company string) models.JobRecord {
	return models.JobRecord{
		Title:    title,
		Company:  company,
		Platform: platform,
		Contract: models.ContractUnknown,
	}
}

func TestDedupe_FirstOccurrenceWins(t *testing.T) {
	e := NewEngine(nil)

	first := job(models.PlatformGupy, "Dev Backend", "Acme")
	first.Location = "original"
	duplicate := job(models.PlatformGupy, "dev  backend", "ACME")
	duplicate.Location = "duplicate"
	other := job(models.PlatformGupy, "Dev Frontend", "Acme")

	out := e.Dedupe([]models.JobRecord{first, duplicate, other})

	require.Len(t, out, 2)
	assert.Equal(t, "original", out[0].Location)
	assert.Equal(t, "Dev Frontend", out[1].Title)
}

func TestDedupe_Idempotent(t *testing.T) {
	e := NewEngine(nil)

	batch := []models.JobRecord{
		job(models.PlatformGupy, "A", "X"),
		job(models.PlatformGupy, "A", "X"),
		job(models.PlatformIndeed, "A", "X"),
		job(models.PlatformIndeed, "B", "Y"),
	}

	once := e.Dedupe(batch)
	twice := e.Dedupe(once)

	assert.Equal(t, once, twice)
}

func TestDedupe_SameKeyAcrossSources(t *testing.T) {
	e := NewEngine(nil)

	a := job(models.PlatformGupy, "Dev", "Acme")
	a.SourceURL = "https://empresa.gupy.io/jobs/1"
	b := job(models.PlatformGupy, "Dev (repost)", "Acme")
	b.SourceURL = "https://empresa.gupy.io/jobs/1"

	out := e.Dedupe([]models.JobRecord{a, b})
	assert.Len(t, out, 1)
}

func TestNewSince(t *testing.T) {
	e := NewEngine(nil)
	now := time.Now()

	seen := job(models.PlatformGupy, "Seen", "Acme")
	fresh := job(models.PlatformGupy, "Fresh", "Acme")

	checkpoint := models.NewKeySet()
	checkpoint.Add(models.IdentityKey(&seen), now)

	out := e.NewSince([]models.JobRecord{seen, fresh}, checkpoint)

	require.Len(t, out, 1)
	assert.Equal(t, "Fresh", out[0].Title)
}

func TestNewSince_EmptyCheckpointPassesAll(t *testing.T) {
	e := NewEngine(nil)
	batch := []models.JobRecord{job(models.PlatformGupy, "A", "X")}

	assert.Equal(t, batch, e.NewSince(batch, models.NewKeySet()))
	assert.Equal(t, batch, e.NewSince(batch, nil))
}

func TestMarkSeen_AppendOnly(t *testing.T) {
	e := NewEngine(nil)
	earlier := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	runAt := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	old := job(models.PlatformGupy, "Old", "Acme")
	checkpoint := models.NewKeySet()
	checkpoint.Add(models.IdentityKey(&old), earlier)

	batch := []models.JobRecord{job(models.PlatformGupy, "New", "Acme")}
	e.MarkSeen(batch, checkpoint, runAt)

	assert.Equal(t, 2, checkpoint.Len())
	assert.True(t, checkpoint.Contains(models.IdentityKey(&old)))
}
