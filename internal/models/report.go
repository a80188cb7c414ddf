package models

import "time"

// SourceReport captures one source's contribution to a run.
type SourceReport struct {
	Platform  Platform  `json:"platform"`
	Count     int       `json:"count"`
	Rejected  int       `json:"rejected,omitempty"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Error     string    `json:"error,omitempty"`
}

// RunReport is the durable record of one orchestrated harvest run. It
// always reflects exactly what succeeded, partially succeeded, or failed
// per source.
type RunReport struct {
	RunID             string                     `json:"run_id"`
	RunStartedAt      time.Time                  `json:"run_started_at"`
	RunEndedAt        time.Time                  `json:"run_ended_at"`
	PerSource         map[Platform]*SourceReport `json:"per_source"`
	SourceOrder       []Platform                 `json:"source_order"`
	ConsolidatedCount int                        `json:"consolidated_count"`
	NewCount          int                        `json:"new_count"`
}

// NewRunReport initializes a report for the given run ID.
func NewRunReport(runID string, startedAt time.Time) *RunReport {
	return &RunReport{
		RunID:        runID,
		RunStartedAt: startedAt,
		PerSource:    make(map[Platform]*SourceReport),
	}
}

// Failed reports whether any source finished with an error.
func (r *RunReport) Failed() bool {
	for _, src := range r.PerSource {
		if src.Error != "" {
			return true
		}
	}
	return false
}

// TotalCollected sums the per-source record counts before consolidation.
func (r *RunReport) TotalCollected() int {
	total := 0
	for _, src := range r.PerSource {
		total += src.Count
	}
	return total
}

// StoredJob is the archive row badgerhold keeps for every record that has
// ever appeared in a consolidated corpus.
type StoredJob struct {
	Key       string    `badgerhold:"key" json:"key"`
	Record    JobRecord `json:"record"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}
