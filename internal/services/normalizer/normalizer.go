// Package normalizer maps adapter-extracted raw fields into canonical
// job records, deriving contract type, remote flag and posting date.
package normalizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/colligo/internal/models"
)

// RejectionError marks a raw record the normalizer refused to canonicalize.
// The record is dropped and the run continues; rejection is per-record,
// never fatal.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("record rejected: %s", e.Reason)
}

// contractRule maps a case-insensitive substring to a contract type.
// First match wins, so more specific markers come first.
type contractRule struct {
	marker   string
	contract models.ContractType
}

// contractRules is the fixed, ordered classification table. Portuguese
// markers come from the crawled platforms, English markers cover sources
// that localize their cards.
var contractRules = []contractRule{
	{"estág", models.ContractInternship},
	{"estag", models.ContractInternship},
	{"intern", models.ContractInternship},
	{"aprendiz", models.ContractApprentice},
	{"apprentice", models.ContractApprentice},
	{"tempor", models.ContractTemporary},
	{"temporary", models.ContractTemporary},
	{"pessoa jurídica", models.ContractPJ},
	{"pj", models.ContractPJ},
	{"p.j", models.ContractPJ},
	{"contractor", models.ContractPJ},
	{"efetivo", models.ContractPermanent},
	{"permanent", models.ContractPermanent},
	{"full-time", models.ContractPermanent},
	{"clt", models.ContractPermanent},
}

// remoteMarkers is the vocabulary of remote-indicating terms matched
// against location, workplace and snippet text. Language variants must
// all be enumerated; matching is case-insensitive substring.
var remoteMarkers = []string{
	"remoto",
	"remota",
	"remote",
	"home office",
	"home-office",
	"homeoffice",
	"teletrabalho",
	"anywhere",
	"100% remoto",
}

// Normalizer converts RawFields into JobRecords. Pure over its inputs:
// the injected clock only anchors relative posting dates ("há 3 dias").
type Normalizer struct {
	now func() time.Time
}

// New creates a normalizer using the wall clock.
func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewWithClock creates a normalizer with a fixed clock, for tests and for
// controllers that need one consistent instant across a whole page.
func NewWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Normalize maps one raw record into a canonical JobRecord. It rejects
// records without a usable title; malformed optional fields degrade to
// absent values, never to errors.
func (n *Normalizer) Normalize(raw models.RawFields, platform models.Platform) (*models.JobRecord, error) {
	title := strings.TrimSpace(raw[models.FieldTitle])
	if title == "" {
		return nil, &RejectionError{Reason: "empty title"}
	}

	rec := &models.JobRecord{
		Title:     title,
		Company:   strings.TrimSpace(raw[models.FieldCompany]),
		Location:  strings.TrimSpace(raw[models.FieldLocation]),
		Platform:  platform,
		SourceURL: strings.TrimSpace(raw[models.FieldURL]),
		SourceID:  strings.TrimSpace(raw[models.FieldSourceID]),
		Snippet:   strings.TrimSpace(raw[models.FieldSnippet]),
		Salary:    strings.TrimSpace(raw[models.FieldSalary]),
	}

	rec.Contract = classifyContract(raw[models.FieldContract])
	rec.Remote = isRemote(raw)
	rec.PostedAt = ParsePostedAt(raw[models.FieldPostedAt], n.now())

	return rec, nil
}

// classifyContract applies the ordered rule table; unmatched input maps
// to ContractUnknown.
func classifyContract(text string) models.ContractType {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return models.ContractUnknown
	}
	for _, rule := range contractRules {
		if strings.Contains(lowered, rule.marker) {
			return rule.contract
		}
	}
	return models.ContractUnknown
}

// isRemote scans workplace, location and snippet text for the remote
// vocabulary.
func isRemote(raw models.RawFields) bool {
	haystack := strings.ToLower(strings.Join([]string{
		raw[models.FieldWorkplace],
		raw[models.FieldLocation],
		raw[models.FieldSnippet],
	}, " "))

	for _, marker := range remoteMarkers {
		if strings.Contains(haystack, marker) {
			return true
		}
	}
	return false
}
