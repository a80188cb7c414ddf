package normalizer

import (
	"testing"
	"time"
)

func TestParsePostedAt(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		input string
		want  *time.Time
	}{
		{"", nil},
		{"publicada recentemente em", nil},
		{"2026-08-18", ptr(time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC))},
		{"2026-08-18T09:30:00Z", ptr(time.Date(2026, 8, 18, 9, 30, 0, 0, time.UTC))},
		{"18/08/2026", ptr(time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC))},
		{"05/08", ptr(time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC))},
		{"2 de agosto de 2026", ptr(time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC))},
		{"15 de maio", ptr(time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC))},
		{"há 3 dias", ptr(now.Add(-3 * day))},
		{"3 days ago", ptr(now.Add(-3 * day))},
		{"2 horas atrás", ptr(now.Add(-2 * time.Hour))},
		{"30+ dias atrás", ptr(now.Add(-30 * day))},
		{"há 2 semanas", ptr(now.Add(-14 * day))},
		{"hoje", &now},
		{"today", &now},
		{"just posted", &now},
		{"ontem", ptr(now.Add(-day))},
		{"yesterday", ptr(now.Add(-day))},
		{"32/13/2026", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParsePostedAt(tt.input, now)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ParsePostedAt(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got != nil && !got.Equal(*tt.want) {
				t.Errorf("ParsePostedAt(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}
