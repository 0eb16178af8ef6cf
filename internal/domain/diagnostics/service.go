package diagnostics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/platform/apierr"
	"github.com/clinicdesk/clinicdesk/pkg/clinicdate"
)

var ErrReportNotFound = fmt.Errorf("report %w", apierr.ErrNotFound)

// PendingReport is a pending report annotated for the review queue.
type PendingReport struct {
	*Report
	DaysAgo int     `json:"days_ago"`
	Label   string  `json:"days_ago_label"`
	Urgency Urgency `json:"urgency"`
}

// PendingQueue is the review queue, newest upload first.
type PendingQueue struct {
	Count       int              `json:"count"`
	UrgentCount int              `json:"urgent_count"`
	Reports     []*PendingReport `json:"reports"`
}

type Service struct {
	reports ReportRepository
	now     clinicdate.Clock
	loc     *time.Location
}

func NewService(repo ReportRepository, now clinicdate.Clock, loc *time.Location) *Service {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{reports: repo, now: now, loc: loc}
}

// UploadReport records report metadata. The upload timestamp defaults to
// now and the status to Pending.
func (s *Service) UploadReport(ctx context.Context, r *Report) error {
	r.PatientName = strings.TrimSpace(r.PatientName)
	r.PatientID = strings.TrimSpace(r.PatientID)
	r.ReportType = strings.TrimSpace(r.ReportType)
	r.FileName = strings.TrimSpace(r.FileName)
	r.UploadedBy = strings.TrimSpace(r.UploadedBy)
	if r.UploadDate == "" {
		r.UploadDate = s.now().In(s.loc).Format(time.RFC3339)
	}
	if r.Status == "" {
		r.Status = StatusPending
	}

	var v apierr.Validator
	v.Check(r.PatientName != "", "patient_name is required")
	v.Check(r.ReportType != "", "report_type is required")
	v.Check(r.FileName != "", "file_name is required")
	v.Check(r.UploadedBy != "", "uploaded_by is required")
	_, dateErr := clinicdate.Parse(r.UploadDate, s.loc)
	v.Check(dateErr == nil, "upload_date is not a recognised date")
	v.Check(validReportStatuses[r.Status], fmt.Sprintf("invalid report status: %s", r.Status))
	if err := v.Err(); err != nil {
		return err
	}

	r.ID = ""
	return s.reports.Create(ctx, r)
}

func (s *Service) ListReports(ctx context.Context) ([]*Report, error) {
	return s.reports.List(ctx)
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Report, error) {
	if !validReportStatuses[status] {
		return nil, &apierr.ValidationError{Fields: []string{fmt.Sprintf("invalid report status: %s", status)}}
	}
	return s.reports.UpdateStatus(ctx, id, status)
}

// PendingReports builds the review queue. Reports whose upload date cannot
// be parsed sort last and are classified as low urgency.
func (s *Service) PendingReports(ctx context.Context) (*PendingQueue, error) {
	all, err := s.reports.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildPendingQueue(all, s.now(), s.loc), nil
}

// BuildPendingQueue filters reports down to pending ones and annotates each
// with its age and urgency relative to now.
func BuildPendingQueue(reports []*Report, now time.Time, loc *time.Location) *PendingQueue {
	type entry struct {
		item     *PendingReport
		uploaded time.Time
		ok       bool
	}
	var entries []entry
	for _, r := range reports {
		if !r.IsPending() {
			continue
		}
		e := entry{item: &PendingReport{Report: r, Urgency: UrgencyLow, Label: DaysAgoLabel(0)}}
		if t, err := clinicdate.Parse(r.UploadDate, loc); err == nil {
			days := DaysSince(t, now)
			e.item.DaysAgo = days
			e.item.Label = DaysAgoLabel(days)
			e.item.Urgency = ClassifyUrgency(days)
			e.uploaded, e.ok = t, true
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ok != entries[j].ok {
			return entries[i].ok
		}
		return entries[i].uploaded.After(entries[j].uploaded)
	})

	q := &PendingQueue{Reports: make([]*PendingReport, 0, len(entries))}
	for _, e := range entries {
		q.Reports = append(q.Reports, e.item)
		if e.item.Urgency == UrgencyHigh {
			q.UrgentCount++
		}
	}
	q.Count = len(q.Reports)
	return q
}
