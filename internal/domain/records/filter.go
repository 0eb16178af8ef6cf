package records

import (
	"fmt"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/pkg/clinicdate"
)

// ListFilter narrows the patient list.
type ListFilter string

const (
	FilterAll    ListFilter = "all"
	FilterRecent ListFilter = "recent"
	FilterActive ListFilter = "active"
)

const (
	// RecentWindow bounds the "recent" list filter.
	RecentWindow = 7 * 24 * time.Hour
	// ActivityWindow bounds the "recent" activity status.
	ActivityWindow = 30 * 24 * time.Hour
)

func ParseListFilter(s string) (ListFilter, error) {
	switch ListFilter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterRecent, FilterActive:
		return ListFilter(s), nil
	default:
		return "", fmt.Errorf("unknown filter %q (want all, recent or active)", s)
	}
}

// VisitedWithin reports whether p's last visit is no earlier than
// now - window. An unparseable last visit is never within any window.
func VisitedWithin(p *identity.Patient, now time.Time, loc *time.Location, window time.Duration) bool {
	last, err := clinicdate.Parse(p.LastVisit, loc)
	if err != nil {
		return false
	}
	return !last.Before(now.Add(-window))
}

// Activity classifies a patient for the list view: anyone with a
// prescription is active, otherwise a visit in the last 30 days is recent.
func Activity(p *identity.Patient, s Stats, now time.Time, loc *time.Location) ActivityStatus {
	switch {
	case s.PrescriptionCount > 0:
		return ActivityActive
	case VisitedWithin(p, now, loc, ActivityWindow):
		return ActivityRecent
	default:
		return ActivityInactive
	}
}

// Apply keeps the summaries matching both query and filter, preserving
// order. It never fails.
func Apply(rows []*PatientSummary, query string, filter ListFilter, now time.Time, loc *time.Location) []*PatientSummary {
	out := make([]*PatientSummary, 0, len(rows))
	for _, row := range rows {
		if !row.Patient.Matches(query) {
			continue
		}
		switch filter {
		case FilterRecent:
			if !VisitedWithin(row.Patient, now, loc, RecentWindow) {
				continue
			}
		case FilterActive:
			if row.PrescriptionCount == 0 {
				continue
			}
		}
		out = append(out, row)
	}
	return out
}
