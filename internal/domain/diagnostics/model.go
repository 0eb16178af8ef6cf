package diagnostics

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Report is an uploaded lab or imaging document awaiting or past review.
type Report struct {
	ID          string `json:"id"`
	PatientID   string `json:"patient_id,omitempty"`
	PatientName string `json:"patient_name"`
	ReportType  string `json:"report_type"`
	FileName    string `json:"file_name"`
	FileSize    string `json:"file_size"`
	UploadDate  string `json:"upload_date"`
	UploadedBy  string `json:"uploaded_by"`
	Status      string `json:"status"`
}

const (
	StatusPending  = "Pending"
	StatusReviewed = "Reviewed"
	StatusArchived = "Archived"
)

var validReportStatuses = map[string]bool{
	StatusPending: true, StatusReviewed: true, StatusArchived: true,
}

// IsPending compares status case-insensitively.
func (r *Report) IsPending() bool {
	return strings.EqualFold(r.Status, StatusPending)
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// DaysSince is the ceiling of the absolute distance between upload and now
// in whole 24-hour days. Anything uploaded earlier today other than at the
// exact instant counts as 1.
func DaysSince(upload, now time.Time) int {
	d := now.Sub(upload)
	if d < 0 {
		d = -d
	}
	return int(math.Ceil(float64(d) / float64(24*time.Hour)))
}

// ClassifyUrgency maps a day count to an urgency level.
func ClassifyUrgency(days int) Urgency {
	switch {
	case days > 3:
		return UrgencyHigh
	case days > 1:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// DaysAgoLabel renders a day count from DaysSince for display.
func DaysAgoLabel(days int) string {
	switch {
	case days <= 1:
		return "Today"
	case days == 2:
		return "Yesterday"
	default:
		return fmt.Sprintf("%d days ago", days-1)
	}
}
