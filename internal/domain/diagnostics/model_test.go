package diagnostics

import (
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 6, 14, 8, 0, 0, 0, time.UTC)

func TestClassifyUrgency_ByUploadAge(t *testing.T) {
	tests := []struct {
		name   string
		upload time.Time
		want   Urgency
	}{
		{"earlier today", fixedNow.Add(-time.Hour), UrgencyLow},
		{"exact instant", fixedNow, UrgencyLow},
		{"two calendar days ago", time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC), UrgencyMedium},
		{"four calendar days ago", time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC), UrgencyHigh},
		{"exactly three days", fixedNow.Add(-72 * time.Hour), UrgencyMedium},
		{"just over three days", fixedNow.Add(-72*time.Hour - time.Minute), UrgencyHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyUrgency(DaysSince(tt.upload, fixedNow)); got != tt.want {
				t.Errorf("urgency = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDaysSince(t *testing.T) {
	tests := []struct {
		upload time.Time
		want   int
	}{
		{fixedNow, 0},
		{fixedNow.Add(-time.Second), 1},
		{fixedNow.Add(-24 * time.Hour), 1},
		{fixedNow.Add(-24*time.Hour - time.Second), 2},
		{fixedNow.Add(36 * time.Hour), 2},
	}
	for _, tt := range tests {
		if got := DaysSince(tt.upload, fixedNow); got != tt.want {
			t.Errorf("DaysSince(%s) = %d, want %d", tt.upload, got, tt.want)
		}
	}
}

func TestDaysAgoLabel(t *testing.T) {
	tests := map[int]string{
		0: "Today",
		1: "Today",
		2: "Yesterday",
		3: "2 days ago",
		9: "8 days ago",
	}
	for days, want := range tests {
		if got := DaysAgoLabel(days); got != want {
			t.Errorf("DaysAgoLabel(%d) = %q, want %q", days, got, want)
		}
	}
}

func TestReport_IsPending(t *testing.T) {
	for status, want := range map[string]bool{
		"Pending":  true,
		"pending":  true,
		"PENDING":  true,
		"Reviewed": false,
		"":         false,
	} {
		r := &Report{Status: status}
		if got := r.IsPending(); got != want {
			t.Errorf("IsPending(%q) = %v, want %v", status, got, want)
		}
	}
}
