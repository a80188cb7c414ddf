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
	linkedinDefaultBaseURL = "https://br.linkedin.com"
	linkedinPageSize       = 25
	// linkedinBrazilGeoID scopes guest search results to Brazil.
	linkedinBrazilGeoID = "106057199"
)

// LinkedInAdapter crawls LinkedIn's guest job search. The guest pages
// are server-rendered but aggressively bot-gated, so production setups
// point it at the rendering fetcher.
type LinkedInAdapter struct {
	fetcher    interfaces.PageFetcher
	baseURL    string
	location   string
	remoteOnly bool
	logger     arbor.ILogger
}

// NewLinkedInAdapter creates the LinkedIn adapter.
func NewLinkedInAdapter(fetcher interfaces.PageFetcher, baseURL, location string, remoteOnly bool, logger arbor.ILogger) *LinkedInAdapter {
	if baseURL == "" {
		baseURL = linkedinDefaultBaseURL
	}
	if location == "" {
		location = "Brasil"
	}
	return &LinkedInAdapter{
		fetcher:    fetcher,
		baseURL:    strings.TrimRight(baseURL, "/"),
		location:   location,
		remoteOnly: remoteOnly,
		logger:     logger,
	}
}

// Platform identifies this adapter's source.
func (a *LinkedInAdapter) Platform() models.Platform {
	return models.PlatformLinkedIn
}

// FetchPage fetches one result page. Multi-word terms are quoted so
// LinkedIn matches the phrase instead of each word.
func (a *LinkedInAdapter) FetchPage(ctx context.Context, term string, page int) (*models.RawPage, error) {
	html, err := a.fetcher.Fetch(ctx, a.buildURL(term, page))
	if err != nil {
		return nil, classifyFetchError(a.Platform(), err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, interfaces.NewAdapterError(a.Platform(), interfaces.AdapterErrUnknown, err)
	}

	cards := doc.Find("div[data-job-id]")
	if cards.Length() == 0 {
		cards = doc.Find("div.base-card")
	}

	var records []models.RawFields
	cards.Each(func(_ int, card *goquery.Selection) {
		if fields := a.extractCard(card); fields != nil {
			records = append(records, fields)
		}
	})

	// Guest search exposes no pagination controls; a full page implies
	// more results behind the next offset.
	hasNext := len(records) >= linkedinPageSize

	a.logger.Debug().
		Str("term", term).
		Int("page", page).
		Int("records", len(records)).
		Bool("has_next", hasNext).
		Msg("LinkedIn page parsed")

	return &models.RawPage{Records: records, HasNextPage: hasNext}, nil
}

func (a *LinkedInAdapter) buildURL(term string, page int) string {
	if strings.Contains(term, " ") && !strings.HasPrefix(term, `"`) {
		term = `"` + term + `"`
	}

	params := url.Values{}
	params.Set("keywords", term)
	params.Set("location", a.location)
	params.Set("geoId", linkedinBrazilGeoID)
	params.Set("f_TPR", "r86400") // posted in the last 24h
	if a.remoteOnly {
		params.Set("f_WT", "2")
	}
	params.Set("position", "1")
	params.Set("pageNum", fmt.Sprintf("%d", page-1))

	return fmt.Sprintf("%s/jobs/search?%s", a.baseURL, params.Encode())
}

// extractCard pulls the raw fields from one job card.
func (a *LinkedInAdapter) extractCard(card *goquery.Selection) models.RawFields {
	titleLink := card.Find(`a[href*="/jobs/view/"]`).First()
	if titleLink.Length() == 0 {
		titleLink = card.Find(`a[href*="/jobs/"]`).First()
	}
	title := strings.TrimSpace(titleLink.Text())
	if title == "" {
		return nil
	}

	fields := models.RawFields{models.FieldTitle: title}

	if href, ok := titleLink.Attr("href"); ok {
		fields[models.FieldURL] = a.resolveURL(href)
	}

	if jobID := a.extractJobID(card); jobID != "" {
		fields[models.FieldSourceID] = jobID
	}

	company := card.Find("h4").First()
	if company.Length() == 0 {
		company = card.Find(".job-card-container__company-name").First()
	}
	fields[models.FieldCompany] = strings.TrimSpace(company.Text())

	location := card.Find(".job-search-card__location, .job-card-container__metadata-item").First()
	fields[models.FieldLocation] = strings.TrimSpace(location.Text())

	if posted := card.Find("time").First(); posted.Length() > 0 {
		if datetime, ok := posted.Attr("datetime"); ok && datetime != "" {
			fields[models.FieldPostedAt] = datetime
		} else {
			fields[models.FieldPostedAt] = strings.TrimSpace(posted.Text())
		}
	}

	if insight := strings.TrimSpace(card.Find(".job-card-container__job-insight-text").First().Text()); insight != "" {
		fields[models.FieldSnippet] = insight
	}

	return fields
}

// extractJobID reads the platform-native identifier from data-job-id or
// the entity URN ("urn:li:jobPosting:<id>").
func (a *LinkedInAdapter) extractJobID(card *goquery.Selection) string {
	if id, ok := card.Attr("data-job-id"); ok && id != "" {
		return id
	}
	if urn, ok := card.Attr("data-entity-urn"); ok {
		if idx := strings.LastIndex(urn, ":"); idx >= 0 && idx < len(urn)-1 {
			return urn[idx+1:]
		}
	}
	return ""
}

func (a *LinkedInAdapter) resolveURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return a.baseURL + href
}
