package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/normalizer"
)

var testNow = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

// fakeAdapter serves a fixed page sequence per term.
type fakeAdapter struct {
	platform models.Platform
	pages    map[string][]*models.RawPage
	errs     map[string]error
	fetched  int
}

func (f *fakeAdapter) Platform() models.Platform {
	if f.platform == "" {
		return models.PlatformGupy
	}
	return f.platform
}

func (f *fakeAdapter) FetchPage(ctx context.Context, term string, page int) (*models.RawPage, error) {
	f.fetched++
	if err := f.errs[term]; err != nil {
		return nil, err
	}
	seq := f.pages[term]
	if page > len(seq) {
		return &models.RawPage{}, nil
	}
	return seq[page-1], nil
}

func card(title, postedAt string) models.RawFields {
	fields := models.RawFields{models.FieldTitle: title}
	if postedAt != "" {
		fields[models.FieldPostedAt] = postedAt
	}
	return fields
}

func newTestController(adapter interfaces.SourceAdapter, opts ControllerOptions) *Controller {
	norm := normalizer.NewWithClock(func() time.Time { return testNow })
	return NewController(adapter, norm, opts, testNow, common.GetLogger())
}

func TestController_StaleRecordStopsAfterItsPage(t *testing.T) {
	recent := testNow.Add(-24 * time.Hour).Format(time.RFC3339)
	stale := testNow.Add(-10 * 24 * time.Hour).Format(time.RFC3339)

	adapter := &fakeAdapter{pages: map[string][]*models.RawPage{
		"dev": {
			{Records: []models.RawFields{card("Dev A", recent)}, HasNextPage: true},
			{Records: []models.RawFields{card("Dev B", recent), card("Dev C", stale)}, HasNextPage: true},
			{Records: []models.RawFields{card("Dev D", recent)}, HasNextPage: true},
		},
	}}

	controller := newTestController(adapter, ControllerOptions{MaxPages: 10, MaxAge: 3 * 24 * time.Hour})
	result, err := controller.Crawl(context.Background(), "dev")
	require.NoError(t, err)

	// The stale record is dropped, its page-mates survive, and the third
	// page is never fetched.
	require.Len(t, result.Records, 2)
	assert.Equal(t, "Dev A", result.Records[0].Title)
	assert.Equal(t, "Dev B", result.Records[1].Title)
	assert.Equal(t, StopCutoff, result.Stop)
	assert.Equal(t, 2, result.PagesVisited)
	assert.Equal(t, 2, adapter.fetched)
}

func TestController_RecordsWithoutDateAreNeverStale(t *testing.T) {
	adapter := &fakeAdapter{pages: map[string][]*models.RawPage{
		"dev": {{Records: []models.RawFields{card("Undated", "")}, HasNextPage: false}},
	}}

	controller := newTestController(adapter, ControllerOptions{MaxPages: 5, MaxAge: 24 * time.Hour})
	result, err := controller.Crawl(context.Background(), "dev")
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, StopNoNextPage, result.Stop)
}

func TestController_EmptyFirstPage(t *testing.T) {
	adapter := &fakeAdapter{pages: map[string][]*models.RawPage{
		"dev": {{Records: nil, HasNextPage: false}},
	}}

	controller := newTestController(adapter, ControllerOptions{MaxPages: 5})
	result, err := controller.Crawl(context.Background(), "dev")
	require.NoError(t, err)

	assert.Empty(t, result.Records)
	assert.Equal(t, StopEmptyPage, result.Stop)
	assert.Equal(t, 1, result.PagesVisited)
}

func TestController_PageLimit(t *testing.T) {
	page := &models.RawPage{Records: []models.RawFields{card("Dev", "")}, HasNextPage: true}
	adapter := &fakeAdapter{pages: map[string][]*models.RawPage{
		"dev": {page, page, page, page, page},
	}}

	controller := newTestController(adapter, ControllerOptions{MaxPages: 3})
	result, err := controller.Crawl(context.Background(), "dev")
	require.NoError(t, err)

	assert.Equal(t, StopPageLimit, result.Stop)
	assert.Equal(t, 3, result.PagesVisited)
	assert.Len(t, result.Records, 3)
}

func TestController_AdapterNoResultsIsEmptyPage(t *testing.T) {
	adapter := &fakeAdapter{errs: map[string]error{
		"dev": interfaces.NewAdapterError(models.PlatformGupy, interfaces.AdapterErrNoResults, nil),
	}}

	controller := newTestController(adapter, ControllerOptions{MaxPages: 5})
	result, err := controller.Crawl(context.Background(), "dev")
	require.NoError(t, err)
	assert.Equal(t, StopEmptyPage, result.Stop)
}

func TestController_AdapterFailurePropagates(t *testing.T) {
	adapter := &fakeAdapter{errs: map[string]error{
		"dev": interfaces.NewAdapterError(models.PlatformGupy, interfaces.AdapterErrBlocked, errors.New("403")),
	}}

	controller := newTestController(adapter, ControllerOptions{MaxPages: 5})
	_, err := controller.Crawl(context.Background(), "dev")
	require.Error(t, err)
	assert.True(t, interfaces.AdapterErrorIs(err, interfaces.AdapterErrBlocked))
}

func TestController_RejectedRecordsAreCountedNotFatal(t *testing.T) {
	adapter := &fakeAdapter{pages: map[string][]*models.RawPage{
		"dev": {{
			Records:     []models.RawFields{card("", ""), card("Dev", "")},
			HasNextPage: false,
		}},
	}}

	controller := newTestController(adapter, ControllerOptions{MaxPages: 5})
	result, err := controller.Crawl(context.Background(), "dev")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Rejected)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "Dev", result.Records[0].Title)
}

func TestController_AllRecordsRejectedStopsAsEmptyPage(t *testing.T) {
	adapter := &fakeAdapter{pages: map[string][]*models.RawPage{
		"dev": {{
			Records:     []models.RawFields{card("", ""), card("   ", "")},
			HasNextPage: true,
		}},
	}}

	controller := newTestController(adapter, ControllerOptions{MaxPages: 5})
	result, err := controller.Crawl(context.Background(), "dev")
	require.NoError(t, err)

	assert.Equal(t, StopEmptyPage, result.Stop)
	assert.Equal(t, 2, result.Rejected)
	assert.Equal(t, 1, adapter.fetched)
}

func TestController_TitleExclusion(t *testing.T) {
	adapter := &fakeAdapter{pages: map[string][]*models.RawPage{
		"dev": {{
			Records: []models.RawFields{
				card("Desenvolvedor Júnior", ""),
				card("Senior Software Engineer", ""),
				card("Dev Pleno/Sênior", ""),
			},
			HasNextPage: false,
		}},
	}}

	controller := newTestController(adapter, ControllerOptions{
		MaxPages:      5,
		ExcludeTitles: []string{"senior", "sênior"},
	})
	result, err := controller.Crawl(context.Background(), "dev")
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "Desenvolvedor Júnior", result.Records[0].Title)
	assert.Equal(t, 2, result.Excluded)
}

func TestController_CancellationBetweenPages(t *testing.T) {
	page := &models.RawPage{Records: []models.RawFields{card("Dev", "")}, HasNextPage: true}
	adapter := &fakeAdapter{pages: map[string][]*models.RawPage{
		"dev": {page, page, page},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	controller := newTestController(adapter, ControllerOptions{MaxPages: 5, RequestDelay: time.Millisecond})
	result, err := controller.Crawl(ctx, "dev")

	require.Error(t, err)
	assert.Equal(t, StopCancelled, result.Stop)
	assert.Len(t, result.Records, 1)
	assert.Equal(t, 1, adapter.fetched)
}
