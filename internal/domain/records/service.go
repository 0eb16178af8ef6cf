package records

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clinicdesk/clinicdesk/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk/internal/domain/diagnostics"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/domain/medication"
	"github.com/clinicdesk/clinicdesk/pkg/clinicdate"
)

// Sources are the repositories a record is assembled from.
type Sources struct {
	Patients      identity.PatientRepository
	Prescriptions medication.PrescriptionRepository
	Reports       diagnostics.ReportRepository
	MedicineBills billing.MedicineBillRepository
	HospitalBills billing.HospitalBillRepository
}

type Service struct {
	src      Sources
	strategy JoinStrategy
	now      clinicdate.Clock
	loc      *time.Location
}

func NewService(src Sources, strategy JoinStrategy, now clinicdate.Clock, loc *time.Location) *Service {
	if strategy == "" {
		strategy = JoinByName
	}
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{src: src, strategy: strategy, now: now, loc: loc}
}

// loadJoined reads the four joined collections concurrently. The first
// failure cancels the remaining reads.
func (s *Service) loadJoined(ctx context.Context) (*collections, error) {
	var (
		rx      []*medication.Prescription
		reports []*diagnostics.Report
		mb      []*billing.MedicineBill
		hb      []*billing.HospitalBill
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { rx, err = s.src.Prescriptions.List(gctx); return })
	g.Go(func() (err error) { reports, err = s.src.Reports.List(gctx); return })
	g.Go(func() (err error) { mb, err = s.src.MedicineBills.List(gctx); return })
	g.Go(func() (err error) { hb, err = s.src.HospitalBills.List(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newCollections(s.strategy, rx, reports, mb, hb), nil
}

// GetRecord resolves the patient and joins everything filed against them.
// An unknown id yields identity.ErrPatientNotFound.
func (s *Service) GetRecord(ctx context.Context, patientID string) (*PatientRecord, error) {
	p, err := s.src.Patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	cols, err := s.loadJoined(ctx)
	if err != nil {
		return nil, err
	}
	return cols.recordFor(p), nil
}

// Summaries builds the patient list: every patient with its stats and
// activity status, narrowed by query and filter.
func (s *Service) Summaries(ctx context.Context, query string, filter ListFilter) ([]*PatientSummary, error) {
	var (
		patients []*identity.Patient
		cols     *collections
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { patients, err = s.src.Patients.List(gctx); return })
	g.Go(func() (err error) { cols, err = s.loadJoined(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now()
	rows := make([]*PatientSummary, len(patients))
	for i, p := range patients {
		st := cols.recordFor(p).Stats
		rows[i] = &PatientSummary{Patient: p, Stats: st, Activity: Activity(p, st, now, s.loc)}
	}
	return Apply(rows, query, filter, now, s.loc), nil
}
