package records

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk/internal/domain/diagnostics"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/domain/medication"
	"github.com/clinicdesk/clinicdesk/internal/platform/store"
)

var fixedNow = time.Date(2024, 6, 14, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store store.Store
	src   Sources
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	return &fixture{
		store: s,
		src: Sources{
			Patients:      identity.NewPatientRepoStore(s),
			Prescriptions: medication.NewPrescriptionRepoStore(s),
			Reports:       diagnostics.NewReportRepoStore(s),
			MedicineBills: billing.NewMedicineBillRepoStore(s),
			HospitalBills: billing.NewHospitalBillRepoStore(s),
		},
	}
}

func seed[T any](t *testing.T, s store.Store, c store.Collection, items ...T) {
	t.Helper()
	if _, err := store.Save(context.Background(), s, c, items, 0); err != nil {
		t.Fatalf("seed %s: %v", c, err)
	}
}

func (f *fixture) service(strategy JoinStrategy) *Service {
	return NewService(f.src, strategy, func() time.Time { return fixedNow }, time.UTC)
}

func TestGetRecord_ZeroHistory(t *testing.T) {
	f := newFixture(t)
	seed(t, f.store, store.Patients, identity.Patient{ID: "p1", Name: "New Patient", LastVisit: "2024-06-14"})

	rec, err := f.service(JoinByName).GetRecord(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Stats.PrescriptionCount != 0 || rec.Stats.ReportCount != 0 || rec.Stats.TotalBills != 0 {
		t.Errorf("expected zero counts, got %+v", rec.Stats)
	}
	if rec.Stats.LastPrescription != nil {
		t.Errorf("expected no last prescription, got %q", *rec.Stats.LastPrescription)
	}
	if rec.Prescriptions == nil || rec.Reports == nil || rec.MedicineBills == nil || rec.HospitalBills == nil {
		t.Error("expected empty, non-nil slices")
	}
}

func TestGetRecord_JoinsByName(t *testing.T) {
	f := newFixture(t)
	seed(t, f.store, store.Patients,
		identity.Patient{ID: "p1", Name: "John Smith"},
		identity.Patient{ID: "p2", Name: "Jane Doe"},
	)
	seed(t, f.store, store.Prescriptions,
		medication.Prescription{ID: "rx1", PatientName: "John Smith", Date: "2024-05-01"},
		medication.Prescription{ID: "rx2", PatientName: "Jane Doe", Date: "2024-05-02"},
		medication.Prescription{ID: "rx3", PatientName: "John Smith", Date: "2024-03-09"},
		medication.Prescription{ID: "rx4", PatientName: "john smith", Date: "2024-06-01"},
	)
	seed(t, f.store, store.Reports, diagnostics.Report{ID: "r1", PatientName: "John Smith"})
	seed(t, f.store, store.MedicineBills, billing.MedicineBill{ID: "m1", PatientName: "John Smith"})
	seed(t, f.store, store.HospitalBills,
		billing.HospitalBill{ID: "h1", PatientName: "John Smith"},
		billing.HospitalBill{ID: "h2", PatientName: "Jane Doe"},
	)

	rec, err := f.service(JoinByName).GetRecord(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Stats.PrescriptionCount != 2 || rec.Stats.ReportCount != 1 || rec.Stats.TotalBills != 2 {
		t.Errorf("unexpected stats %+v", rec.Stats)
	}
	// Last in stored order, not the latest date.
	if rec.Stats.LastPrescription == nil || *rec.Stats.LastPrescription != "2024-03-09" {
		t.Errorf("expected last prescription 2024-03-09, got %v", rec.Stats.LastPrescription)
	}
	if rec.Prescriptions[0].ID != "rx1" || rec.Prescriptions[1].ID != "rx3" {
		t.Errorf("expected stored order rx1, rx3")
	}
}

func TestGetRecord_JoinByIDFallsBackToName(t *testing.T) {
	f := newFixture(t)
	seed(t, f.store, store.Patients,
		identity.Patient{ID: "p1", Name: "Sam Lee"},
		identity.Patient{ID: "p2", Name: "Sam Lee"},
	)
	seed(t, f.store, store.Prescriptions,
		medication.Prescription{ID: "a", PatientID: "p1", PatientName: "Sam Lee", Date: "2024-01-01"},
		medication.Prescription{ID: "b", PatientName: "Sam Lee", Date: "2024-02-01"},
		medication.Prescription{ID: "c", PatientID: "p2", PatientName: "Sam Lee", Date: "2024-03-01"},
		medication.Prescription{ID: "d", PatientID: "p1", PatientName: "Renamed", Date: "2024-04-01"},
	)

	byID, err := f.service(JoinByID).GetRecord(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids string
	for _, p := range byID.Prescriptions {
		ids += p.ID
	}
	if ids != "abd" {
		t.Errorf("id join: expected abd, got %s", ids)
	}
	if *byID.Stats.LastPrescription != "2024-04-01" {
		t.Errorf("expected last prescription 2024-04-01, got %s", *byID.Stats.LastPrescription)
	}

	byName, _ := f.service(JoinByName).GetRecord(context.Background(), "p1")
	if byName.Stats.PrescriptionCount != 3 {
		t.Errorf("name join: expected 3 prescriptions, got %d", byName.Stats.PrescriptionCount)
	}
}

func TestGetRecord_UnknownPatient(t *testing.T) {
	f := newFixture(t)
	_, err := f.service(JoinByName).GetRecord(context.Background(), "missing")
	if !errors.Is(err, identity.ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

type failingReports struct{ diagnostics.ReportRepository }

var errDisk = errors.New("disk unavailable")

func (failingReports) List(context.Context) ([]*diagnostics.Report, error) { return nil, errDisk }

func TestGetRecord_LoadFailure(t *testing.T) {
	f := newFixture(t)
	seed(t, f.store, store.Patients, identity.Patient{ID: "p1", Name: "A"})
	f.src.Reports = failingReports{}

	if _, err := f.service(JoinByName).GetRecord(context.Background(), "p1"); !errors.Is(err, errDisk) {
		t.Errorf("expected load error to surface, got %v", err)
	}
	if _, err := f.service(JoinByName).Summaries(context.Background(), "", FilterAll); !errors.Is(err, errDisk) {
		t.Errorf("expected load error to surface from summaries, got %v", err)
	}
}

func TestGetRecord_CancelledContext(t *testing.T) {
	f := newFixture(t)
	seed(t, f.store, store.Patients, identity.Patient{ID: "p1", Name: "A"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.service(JoinByName).GetRecord(ctx, "p1"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSummaries(t *testing.T) {
	f := newFixture(t)
	seed(t, f.store, store.Patients,
		identity.Patient{ID: "p1", Name: "John Smith", Email: "js@example.com", Phone: "98200", LastVisit: "2024-06-06"},
		identity.Patient{ID: "p2", Name: "Priya Nair", Email: "priya@example.com", Phone: "98111", LastVisit: "2024-06-14"},
		identity.Patient{ID: "p3", Name: "Old Timer", Email: "old@example.com", Phone: "90000", LastVisit: "2023-01-01"},
	)
	seed(t, f.store, store.Prescriptions, medication.Prescription{ID: "rx", PatientName: "Old Timer", Date: "2023-01-01"})

	svc := f.service(JoinByName)
	all, err := svc.Summaries(context.Background(), "", FilterAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}
	wantActivity := map[string]ActivityStatus{"p1": ActivityRecent, "p2": ActivityRecent, "p3": ActivityActive}
	for _, row := range all {
		if row.Activity != wantActivity[row.ID] {
			t.Errorf("%s: activity %s, want %s", row.ID, row.Activity, wantActivity[row.ID])
		}
	}

	john, _ := svc.Summaries(context.Background(), "john", FilterAll)
	if len(john) != 1 || john[0].Name != "John Smith" {
		t.Errorf("expected search to find John Smith, got %+v", john)
	}

	recent, _ := svc.Summaries(context.Background(), "", FilterRecent)
	if len(recent) != 1 || recent[0].ID != "p2" {
		t.Errorf("expected only p2 within 7 days, got %d rows", len(recent))
	}

	active, _ := svc.Summaries(context.Background(), "", FilterActive)
	if len(active) != 1 || active[0].ID != "p3" {
		t.Errorf("expected only p3 active, got %d rows", len(active))
	}
}
