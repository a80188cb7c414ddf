package models

import (
	"testing"
	"time"
)

func TestJobRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rec     JobRecord
		wantErr bool
	}{
		{
			name: "valid record",
			rec:  JobRecord{Title: "Dev", Platform: PlatformGupy, Contract: ContractUnknown},
		},
		{
			name:    "empty title rejected",
			rec:     JobRecord{Title: "   ", Platform: PlatformGupy, Contract: ContractUnknown},
			wantErr: true,
		},
		{
			name:    "missing platform rejected",
			rec:     JobRecord{Title: "Dev", Contract: ContractUnknown},
			wantErr: true,
		},
		{
			name:    "missing contract rejected",
			rec:     JobRecord{Title: "Dev", Platform: PlatformGupy},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJobRecord_OlderThan(t *testing.T) {
	now := time.Now()
	cutoff := now.Add(-3 * 24 * time.Hour)

	old := now.Add(-5 * 24 * time.Hour)
	recent := now.Add(-time.Hour)

	tests := []struct {
		name     string
		postedAt *time.Time
		want     bool
	}{
		{"older than cutoff", &old, true},
		{"within cutoff", &recent, false},
		{"no posted-at signal is never stale", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := JobRecord{Title: "Dev", Platform: PlatformGupy, PostedAt: tt.postedAt}
			if got := rec.OlderThan(cutoff); got != tt.want {
				t.Errorf("OlderThan() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeySet_AddAndContains(t *testing.T) {
	s := NewKeySet()
	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	second := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)

	s.Add("gupy:id:1", first)
	if !s.Contains("gupy:id:1") {
		t.Fatal("expected key to be present after Add")
	}
	if s.Contains("gupy:id:2") {
		t.Fatal("unexpected key reported present")
	}

	s.Add("gupy:id:1", second)
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
	if got := s.Keys["gupy:id:1"]; !got.Equal(second) {
		t.Errorf("re-add must refresh last-seen timestamp, got %v", got)
	}
	if !s.LastUpdated.Equal(second) {
		t.Errorf("LastUpdated = %v, want %v", s.LastUpdated, second)
	}
}
