package billing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/platform/apierr"
	"github.com/clinicdesk/clinicdesk/pkg/clinicdate"
)

type Service struct {
	medicine MedicineBillRepository
	hospital HospitalBillRepository
	now      clinicdate.Clock
	loc      *time.Location
}

func NewService(medicine MedicineBillRepository, hospital HospitalBillRepository, now clinicdate.Clock, loc *time.Location) *Service {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{medicine: medicine, hospital: hospital, now: now, loc: loc}
}

func roundPaise(v float64) float64 {
	return math.Round(v*100) / 100
}

func checkBill(v *apierr.Validator, patientName, date, status string, total float64) {
	v.Check(patientName != "", "patient_name is required")
	v.Check(clinicdate.Valid(date), "date must be a calendar date")
	v.Check(total >= 0, "total_amount must not be negative")
	v.Check(validBillStatuses[status], fmt.Sprintf("invalid bill status: %s", status))
}

// CreateMedicineBill validates b and appends it. A zero total is computed
// from the medicine lines.
func (s *Service) CreateMedicineBill(ctx context.Context, b *MedicineBill) error {
	b.PatientName = strings.TrimSpace(b.PatientName)
	b.PatientID = strings.TrimSpace(b.PatientID)
	b.PharmacyName = strings.TrimSpace(b.PharmacyName)
	if b.Date == "" {
		b.Date = clinicdate.Today(s.now(), s.loc)
	}
	if b.Status == "" {
		b.Status = StatusPending
	}
	for i := range b.Medicines {
		if b.Medicines[i].Total == 0 {
			b.Medicines[i].Total = roundPaise(float64(b.Medicines[i].Quantity) * b.Medicines[i].Price)
		}
	}
	if b.TotalAmount == 0 {
		b.TotalAmount = roundPaise(b.LineTotal())
	}

	var v apierr.Validator
	checkBill(&v, b.PatientName, b.Date, b.Status, b.TotalAmount)
	v.Check(b.PharmacyName != "", "pharmacy_name is required")
	for i, m := range b.Medicines {
		v.Check(strings.TrimSpace(m.Name) != "", fmt.Sprintf("medicines[%d].name is required", i))
		v.Check(m.Quantity > 0, fmt.Sprintf("medicines[%d].quantity must be positive", i))
		v.Check(m.Price >= 0 && m.Total >= 0, fmt.Sprintf("medicines[%d] amounts must not be negative", i))
	}
	if err := v.Err(); err != nil {
		return err
	}

	b.ID = ""
	return s.medicine.Create(ctx, b)
}

// CreateHospitalBill validates b and appends it. A zero total is computed
// from the service lines and doctor fees.
func (s *Service) CreateHospitalBill(ctx context.Context, b *HospitalBill) error {
	b.PatientName = strings.TrimSpace(b.PatientName)
	b.PatientID = strings.TrimSpace(b.PatientID)
	if b.Date == "" {
		b.Date = clinicdate.Today(s.now(), s.loc)
	}
	if b.Status == "" {
		b.Status = StatusPending
	}
	if b.TotalAmount == 0 {
		b.TotalAmount = roundPaise(b.LineTotal())
	}

	var v apierr.Validator
	checkBill(&v, b.PatientName, b.Date, b.Status, b.TotalAmount)
	v.Check(b.DoctorFees >= 0, "doctor_fees must not be negative")
	for i, sl := range b.Services {
		v.Check(strings.TrimSpace(sl.Type) != "", fmt.Sprintf("services[%d].type is required", i))
		v.Check(sl.Amount >= 0, fmt.Sprintf("services[%d].amount must not be negative", i))
	}
	if b.AdmissionDate != nil {
		v.Check(clinicdate.Valid(*b.AdmissionDate), "admission_date must be a calendar date")
	}
	if b.DischargeDate != nil {
		v.Check(clinicdate.Valid(*b.DischargeDate), "discharge_date must be a calendar date")
		v.Check(b.AdmissionDate != nil, "discharge_date requires admission_date")
		if b.AdmissionDate != nil {
			v.Check(*b.DischargeDate >= *b.AdmissionDate, "discharge_date precedes admission_date")
		}
	}
	if err := v.Err(); err != nil {
		return err
	}

	b.ID = ""
	return s.hospital.Create(ctx, b)
}

func (s *Service) ListMedicineBills(ctx context.Context) ([]*MedicineBill, error) {
	return s.medicine.List(ctx)
}

func (s *Service) ListHospitalBills(ctx context.Context) ([]*HospitalBill, error) {
	return s.hospital.List(ctx)
}
