package sources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

const gupyDefaultBaseURL = "https://portal.gupy.io"

// gupyContractPattern matches the contract-type detail span on a card.
var gupyContractPattern = regexp.MustCompile(`(?i)efetivo|tempor[aá]rio|est[aá]gio|aprendiz|\bpj\b|p\.?j\.?`)

// gupyDateClassPattern matches the class names Gupy uses on the
// publication-date element.
var gupyDateClassPattern = regexp.MustCompile(`(?i)date|time|published`)

// gupyAriaContractPattern pulls the contract type out of the card's
// accessibility label ("... tipo Efetivo.").
var gupyAriaContractPattern = regexp.MustCompile(`(?i)tipo\s+([^.]+)\.`)

// GupyAdapter crawls the Gupy job portal. Gupy renders its result list
// client-side into one continuous page, so the adapter requires a
// rendering fetcher and exposes the list as a single page.
type GupyAdapter struct {
	fetcher    interfaces.PageFetcher
	baseURL    string
	remoteOnly bool
	logger     arbor.ILogger
}

// NewGupyAdapter creates the Gupy adapter. baseURL falls back to the
// public portal when empty.
func NewGupyAdapter(fetcher interfaces.PageFetcher, baseURL string, remoteOnly bool, logger arbor.ILogger) *GupyAdapter {
	if baseURL == "" {
		baseURL = gupyDefaultBaseURL
	}
	return &GupyAdapter{
		fetcher:    fetcher,
		baseURL:    strings.TrimRight(baseURL, "/"),
		remoteOnly: remoteOnly,
		logger:     logger,
	}
}

// Platform identifies this adapter's source.
func (a *GupyAdapter) Platform() models.Platform {
	return models.PlatformGupy
}

// FetchPage fetches and parses the rendered result list for the term.
// Pages past the first are reported as empty.
func (a *GupyAdapter) FetchPage(ctx context.Context, term string, page int) (*models.RawPage, error) {
	if page > 1 {
		return &models.RawPage{}, nil
	}

	searchURL := fmt.Sprintf("%s/job-search/term=%s", a.baseURL, url.QueryEscape(term))
	if a.remoteOnly {
		searchURL += "&workplaceTypes[]=remote"
	}

	html, err := a.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return nil, classifyFetchError(a.Platform(), err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, interfaces.NewAdapterError(a.Platform(), interfaces.AdapterErrUnknown, err)
	}

	var records []models.RawFields
	doc.Find(`a[aria-label^="Ir para vaga"]`).Each(func(_ int, card *goquery.Selection) {
		if fields := a.extractCard(card); fields != nil {
			records = append(records, fields)
		}
	})

	a.logger.Debug().Str("term", term).Int("records", len(records)).Msg("Gupy page parsed")
	return &models.RawPage{Records: records, HasNextPage: false}, nil
}

// extractCard pulls the raw fields from one result card anchor.
func (a *GupyAdapter) extractCard(card *goquery.Selection) models.RawFields {
	title := strings.TrimSpace(card.Find("h3").First().Text())
	if title == "" {
		return nil
	}

	fields := models.RawFields{
		models.FieldTitle:   title,
		models.FieldCompany: strings.TrimSpace(card.Find("p").First().Text()),
	}

	if href, ok := card.Attr("href"); ok {
		fields[models.FieldURL] = a.resolveURL(href)
	}

	var details []string
	card.Find("span").Each(func(_ int, span *goquery.Selection) {
		if text := strings.TrimSpace(span.Text()); text != "" {
			details = append(details, text)
		}
	})
	fields[models.FieldWorkplace] = strings.Join(details, " ")

	for _, detail := range details {
		if gupyContractPattern.MatchString(detail) {
			fields[models.FieldContract] = detail
			break
		}
	}
	// Cards without a detail span fall back to the accessibility label,
	// which spells out "... tipo <contrato>."
	if fields[models.FieldContract] == "" {
		if label, ok := card.Attr("aria-label"); ok {
			if m := gupyAriaContractPattern.FindStringSubmatch(label); m != nil {
				fields[models.FieldContract] = strings.TrimSpace(m[1])
			}
		}
	}

	card.Find("time, span").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		class, _ := el.Attr("class")
		if gupyDateClassPattern.MatchString(class) {
			fields[models.FieldPostedAt] = strings.TrimSpace(el.Text())
			return false
		}
		return true
	})

	return fields
}

func (a *GupyAdapter) resolveURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return a.baseURL + href
}
