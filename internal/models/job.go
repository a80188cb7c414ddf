package models

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies the listing source a record was harvested from.
// The set is open: registering a new adapter introduces a new platform value.
type Platform string

const (
	PlatformGupy     Platform = "gupy"
	PlatformIndeed   Platform = "indeed"
	PlatformLinkedIn Platform = "linkedin"
)

// ContractType is the canonical employment contract classification.
type ContractType string

const (
	ContractPermanent  ContractType = "permanent"
	ContractTemporary  ContractType = "temporary"
	ContractInternship ContractType = "internship"
	ContractApprentice ContractType = "apprentice"
	ContractPJ         ContractType = "pj"
	ContractUnknown    ContractType = "unknown"
)

// RawFields is the untyped field map an adapter extracts from one job card.
// Adapters populate whichever keys the page layout exposes; the normalizer
// decides what survives into a JobRecord.
type RawFields map[string]string

// Well-known RawFields keys shared by all adapters.
const (
	FieldTitle     = "title"
	FieldCompany   = "company"
	FieldLocation  = "location"
	FieldURL       = "url"
	FieldSourceID  = "source_id"
	FieldContract  = "contract_type"
	FieldPostedAt  = "posted_at"
	FieldSnippet   = "snippet"
	FieldSalary    = "salary"
	FieldWorkplace = "workplace"
)

// RawPage is one fetched page of raw records for a search term.
type RawPage struct {
	Records     []RawFields `json:"records"`
	HasNextPage bool        `json:"has_next_page"`
}

// JobRecord is the canonical, immutable representation of one job listing.
type JobRecord struct {
	Title     string       `json:"title"`
	Company   string       `json:"company,omitempty"`
	Location  string       `json:"location,omitempty"`
	Contract  ContractType `json:"contract_type"`
	Remote    bool         `json:"remote"`
	PostedAt  *time.Time   `json:"posted_at,omitempty"`
	Platform  Platform     `json:"platform"`
	SourceURL string       `json:"source_url,omitempty"`
	// SourceID is the platform-native stable identifier when the adapter
	// could extract one (e.g. LinkedIn's data-job-id). Preferred identity
	// component; see IdentityKey.
	SourceID string `json:"source_id,omitempty"`
	// IdentityHints carries additional raw fields usable as fallback
	// identity components, in adapter-declared priority order.
	IdentityHints []string `json:"identity_hints,omitempty"`
	Snippet       string   `json:"snippet,omitempty"`
	Salary        string   `json:"salary,omitempty"`
}

// Validate checks the invariants a normalized record must hold.
func (j *JobRecord) Validate() error {
	if strings.TrimSpace(j.Title) == "" {
		return fmt.Errorf("job record title is required")
	}
	if j.Platform == "" {
		return fmt.Errorf("job record platform is required")
	}
	if j.Contract == "" {
		return fmt.Errorf("job record contract type is required (use %q when unclassified)", ContractUnknown)
	}
	return nil
}

// OlderThan reports whether the record was posted before the cutoff
// instant. Records without a posted-at signal are treated as presumptively
// recent and never report stale.
func (j *JobRecord) OlderThan(cutoff time.Time) bool {
	if j.PostedAt == nil {
		return false
	}
	return j.PostedAt.Before(cutoff)
}
