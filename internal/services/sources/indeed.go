package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

const (
	indeedDefaultBaseURL = "https://br.indeed.com"
	indeedPageSize       = 10
)

// IndeedAdapter crawls Indeed's server-rendered result pages.
type IndeedAdapter struct {
	fetcher  interfaces.PageFetcher
	baseURL  string
	location string
	// maxAgeDays narrows results server-side via the fromage parameter;
	// zero omits it.
	maxAgeDays int
	logger     arbor.ILogger
}

// NewIndeedAdapter creates the Indeed adapter for the given site locale.
func NewIndeedAdapter(fetcher interfaces.PageFetcher, baseURL, location string, maxAgeDays int, logger arbor.ILogger) *IndeedAdapter {
	if baseURL == "" {
		baseURL = indeedDefaultBaseURL
	}
	return &IndeedAdapter{
		fetcher:    fetcher,
		baseURL:    strings.TrimRight(baseURL, "/"),
		location:   location,
		maxAgeDays: maxAgeDays,
		logger:     logger,
	}
}

// Platform identifies this adapter's source.
func (a *IndeedAdapter) Platform() models.Platform {
	return models.PlatformIndeed
}

// FetchPage fetches one result page, sorted by date so the recency
// cutoff fires as early as possible.
func (a *IndeedAdapter) FetchPage(ctx context.Context, term string, page int) (*models.RawPage, error) {
	html, err := a.fetcher.Fetch(ctx, a.buildURL(term, page))
	if err != nil {
		return nil, classifyFetchError(a.Platform(), err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, interfaces.NewAdapterError(a.Platform(), interfaces.AdapterErrUnknown, err)
	}

	var records []models.RawFields
	doc.Find("div.cardOutline.tapItem").Each(func(_ int, card *goquery.Selection) {
		if fields := a.extractCard(card); fields != nil {
			records = append(records, fields)
		}
	})

	hasNext := doc.Find(`a[data-testid="pagination-page-next"]`).Length() > 0

	a.logger.Debug().
		Str("term", term).
		Int("page", page).
		Int("records", len(records)).
		Bool("has_next", hasNext).
		Msg("Indeed page parsed")

	return &models.RawPage{Records: records, HasNextPage: hasNext}, nil
}

func (a *IndeedAdapter) buildURL(term string, page int) string {
	params := url.Values{}
	params.Set("q", term)
	if a.location != "" {
		params.Set("l", a.location)
	}
	if a.maxAgeDays > 0 {
		params.Set("fromage", fmt.Sprintf("%d", a.maxAgeDays))
	}
	params.Set("sort", "date")
	if start := (page - 1) * indeedPageSize; start > 0 {
		params.Set("start", fmt.Sprintf("%d", start))
	}
	return fmt.Sprintf("%s/jobs?%s", a.baseURL, params.Encode())
}

// extractCard pulls the raw fields from one job card.
func (a *IndeedAdapter) extractCard(card *goquery.Selection) models.RawFields {
	titleLink := card.Find("a.jcs-JobTitle").First()
	title := strings.TrimSpace(titleLink.Text())
	if title == "" {
		return nil
	}

	fields := models.RawFields{
		models.FieldTitle:    title,
		models.FieldCompany:  strings.TrimSpace(card.Find(`[data-testid="company-name"]`).First().Text()),
		models.FieldLocation: strings.TrimSpace(card.Find(`[data-testid="text-location"]`).First().Text()),
	}

	if href, ok := titleLink.Attr("href"); ok {
		fields[models.FieldURL] = a.resolveURL(href)
		if jk := extractQueryParam(fields[models.FieldURL], "jk"); jk != "" {
			fields[models.FieldSourceID] = jk
		}
	}

	snippet := card.Find(`[data-testid="belowJobSnippet"]`).First()
	if snippet.Length() == 0 {
		snippet = card.Find("div.slider_sub_item ul, div.slider_sub_item").First()
	}
	if snippet.Length() > 0 {
		fields[models.FieldSnippet] = strings.TrimSpace(snippet.Text())
	}

	if salary := strings.TrimSpace(card.Find(`[data-testid="attribute_snippet_testid"]`).First().Text()); salary != "" {
		fields[models.FieldSalary] = salary
	}

	if posted := strings.TrimSpace(card.Find(`[data-testid="myJobsStateDate"], span.date`).First().Text()); posted != "" {
		fields[models.FieldPostedAt] = posted
	}

	return fields
}

func (a *IndeedAdapter) resolveURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return a.baseURL + href
}

// extractQueryParam returns the named query parameter of rawURL, or "".
func extractQueryParam(rawURL, name string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Query().Get(name)
}
