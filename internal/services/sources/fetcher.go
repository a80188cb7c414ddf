// Package sources implements the per-platform listing adapters and the
// page fetchers they share. Adapters extract raw fields only; all
// canonicalization happens downstream in the normalizer.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// httpStatusError carries a non-success HTTP status through the fetch
// boundary so adapters can classify blocks vs. transient failures.
type httpStatusError struct {
	status int
	url    string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.status, e.url)
}

// HTTPFetcher retrieves pages over plain HTTP with a browser-like
// identity. Listing sites serve pt-BR markup based on Accept-Language,
// which the date parser depends on.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	logger    arbor.ILogger
}

// NewHTTPFetcher creates an HTTP fetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string, logger arbor.ILogger) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Fetch retrieves the document at pageURL.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", &httpStatusError{status: resp.StatusCode, url: pageURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response from %s: %w", pageURL, err)
	}

	f.logger.Debug().Str("url", pageURL).Int("bytes", len(body)).Msg("Page fetched")
	return string(body), nil
}

// RenderFetcher retrieves pages through a headless browser for sources
// that assemble their result list client-side.
type RenderFetcher struct {
	userAgent  string
	renderWait time.Duration
	timeout    time.Duration
	logger     arbor.ILogger
}

// NewRenderFetcher creates a browser-backed fetcher. renderWait is how
// long to let the page's scripts settle before reading the DOM.
func NewRenderFetcher(timeout, renderWait time.Duration, userAgent string, logger arbor.ILogger) *RenderFetcher {
	return &RenderFetcher{
		userAgent:  userAgent,
		renderWait: renderWait,
		timeout:    timeout,
		logger:     logger,
	}
}

// Fetch navigates to pageURL, waits for rendering and returns the
// resulting document. A fresh browser context per fetch keeps crawl
// state (cookies, localStorage) from leaking between sources.
func (f *RenderFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", "pt-BR"),
		chromedp.UserAgent(f.userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	runCtx, runCancel := context.WithTimeout(browserCtx, f.timeout)
	defer runCancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(f.renderWait),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", pageURL, err)
	}

	f.logger.Debug().Str("url", pageURL).Int("bytes", len(html)).Msg("Page rendered")
	return html, nil
}

// classifyFetchError maps a fetch failure to its adapter error kind.
func classifyFetchError(platform models.Platform, err error) *interfaces.AdapterError {
	var statusErr *httpStatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return interfaces.NewAdapterError(platform, interfaces.AdapterErrTimeout, err)
	case errors.As(err, &statusErr):
		if statusErr.status == http.StatusForbidden || statusErr.status == http.StatusTooManyRequests {
			return interfaces.NewAdapterError(platform, interfaces.AdapterErrBlocked, err)
		}
		return interfaces.NewAdapterError(platform, interfaces.AdapterErrUnknown, err)
	default:
		return interfaces.NewAdapterError(platform, interfaces.AdapterErrUnknown, err)
	}
}
