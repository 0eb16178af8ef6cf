package records

import (
	"testing"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
)

func row(id, name, email, phone, lastVisit string, prescriptions int) *PatientSummary {
	return &PatientSummary{
		Patient: &identity.Patient{ID: id, Name: name, Email: email, Phone: phone, LastVisit: lastVisit},
		Stats:   Stats{PrescriptionCount: prescriptions},
	}
}

func ids(rows []*PatientSummary) string {
	var s string
	for _, r := range rows {
		s += r.ID
	}
	return s
}

func TestApply_RecentFilter(t *testing.T) {
	rows := []*PatientSummary{
		row("A", "Alpha", "", "", "2024-06-06", 0),
		row("B", "Beta", "", "", "2024-06-14", 0),
	}
	if got := ids(Apply(rows, "", FilterRecent, fixedNow, time.UTC)); got != "B" {
		t.Errorf("expected [B], got %s", got)
	}
}

func TestApply_Search(t *testing.T) {
	rows := []*PatientSummary{
		row("1", "John Smith", "john@mail.com", "98765", "", 0),
		row("2", "Asha Rao", "ASHA@MAIL.COM", "91234", "", 0),
		row("3", "Vikram", "v@mail.com", "99999", "", 0),
	}
	tests := []struct {
		query string
		want  string
	}{
		{"john", "1"},
		{"JOHN", "1"},
		{"asha@", "2"},
		{"912", "2"},
		{"mail", "123"},
		{"   ", "123"},
		{"", "123"},
		{"zzz", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := ids(Apply(rows, tt.query, FilterAll, fixedNow, time.UTC)); got != tt.want {
				t.Errorf("Apply(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}
}

func TestApply_ActiveAndCombined(t *testing.T) {
	rows := []*PatientSummary{
		row("1", "John Smith", "", "", "2024-06-13", 2),
		row("2", "John Doe", "", "", "2024-06-13", 0),
		row("3", "Maya", "", "", "2024-06-13", 1),
	}
	if got := ids(Apply(rows, "", FilterActive, fixedNow, time.UTC)); got != "13" {
		t.Errorf("expected 13, got %s", got)
	}
	if got := ids(Apply(rows, "john", FilterActive, fixedNow, time.UTC)); got != "1" {
		t.Errorf("expected 1, got %s", got)
	}
}

func TestActivity(t *testing.T) {
	tests := []struct {
		name      string
		lastVisit string
		rx        int
		want      ActivityStatus
	}{
		{"has prescriptions", "2020-01-01", 1, ActivityActive},
		{"visited this month", "2024-05-20", 0, ActivityRecent},
		{"visited long ago", "2024-04-01", 0, ActivityInactive},
		{"unknown last visit", "", 0, ActivityInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &identity.Patient{LastVisit: tt.lastVisit}
			if got := Activity(p, Stats{PrescriptionCount: tt.rx}, fixedNow, time.UTC); got != tt.want {
				t.Errorf("Activity = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseListFilter(t *testing.T) {
	for in, want := range map[string]ListFilter{"": FilterAll, "all": FilterAll, "recent": FilterRecent, "active": FilterActive} {
		got, err := ParseListFilter(in)
		if err != nil || got != want {
			t.Errorf("ParseListFilter(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseListFilter("vip"); err == nil {
		t.Error("expected error for unknown filter")
	}
}

func TestParseJoinStrategy(t *testing.T) {
	if s, _ := ParseJoinStrategy(""); s != JoinByName {
		t.Errorf("expected default name strategy, got %s", s)
	}
	if s, _ := ParseJoinStrategy("id"); s != JoinByID {
		t.Errorf("expected id strategy, got %s", s)
	}
	if _, err := ParseJoinStrategy("email"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestMergeSorted(t *testing.T) {
	got := mergeSorted([]int{0, 3, 7}, []int{1, 2, 8})
	want := []int{0, 1, 2, 3, 7, 8}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
