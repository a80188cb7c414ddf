package interfaces

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/colligo/internal/models"
)

// AdapterErrorKind classifies a source adapter failure.
type AdapterErrorKind string

const (
	AdapterErrTimeout   AdapterErrorKind = "timeout"
	AdapterErrNoResults AdapterErrorKind = "no_results"
	AdapterErrBlocked   AdapterErrorKind = "blocked"
	AdapterErrUnknown   AdapterErrorKind = "unknown"
)

// AdapterError is the typed error adapters propagate for page-level
// failures. Per-page errors are recoverable: the caller skips to the next
// term or source and records the failure in the run report.
type AdapterError struct {
	Kind     AdapterErrorKind
	Platform models.Platform
	Err      error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s adapter: %s: %v", e.Platform, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s adapter: %s", e.Platform, e.Kind)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError wraps err with its failure classification.
func NewAdapterError(platform models.Platform, kind AdapterErrorKind, err error) *AdapterError {
	return &AdapterError{Kind: kind, Platform: platform, Err: err}
}

// AdapterErrorIs reports whether err is an AdapterError of the given kind.
func AdapterErrorIs(err error, kind AdapterErrorKind) bool {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// SourceAdapter is the per-source capability the pagination controller
// drives: fetch one page of raw records for a query term and page number
// (1-based). Fetching, rendering and selector extraction all live behind
// this boundary; the core only sees RawFields.
type SourceAdapter interface {
	// Platform identifies the listing source this adapter crawls.
	Platform() models.Platform

	// FetchPage retrieves one page of raw records for the term. An empty
	// RawPage is a valid result (the controller stops paginating); errors
	// are reserved for fetch/parse failures.
	FetchPage(ctx context.Context, term string, page int) (*models.RawPage, error)
}

// PageFetcher retrieves the rendered HTML document for a URL. Adapters
// compose one of these with their selector logic; implementations decide
// between plain HTTP and a browser-rendered fetch.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}
