package medication

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/platform/apierr"
	"github.com/clinicdesk/clinicdesk/pkg/clinicdate"
)

type Service struct {
	prescriptions PrescriptionRepository
	now           clinicdate.Clock
	loc           *time.Location
}

func NewService(repo PrescriptionRepository, now clinicdate.Clock, loc *time.Location) *Service {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{prescriptions: repo, now: now, loc: loc}
}

// IssuePrescription validates p and appends it. Date defaults to today and
// status to Active.
func (s *Service) IssuePrescription(ctx context.Context, p *Prescription) error {
	p.PatientName = strings.TrimSpace(p.PatientName)
	p.PatientID = strings.TrimSpace(p.PatientID)
	p.DoctorName = strings.TrimSpace(p.DoctorName)
	if p.Date == "" {
		p.Date = clinicdate.Today(s.now(), s.loc)
	}
	if p.Status == "" {
		p.Status = StatusActive
	}

	var v apierr.Validator
	v.Check(p.PatientName != "", "patient_name is required")
	v.Check(p.DoctorName != "", "doctor_name is required")
	v.Check(clinicdate.Valid(p.Date), "date must be a calendar date")
	v.Check(len(p.Medications) > 0, "at least one medication is required")
	for i, m := range p.Medications {
		v.Check(strings.TrimSpace(m.Name) != "", fmt.Sprintf("medications[%d].name is required", i))
	}
	v.Check(validPrescriptionStatuses[p.Status], fmt.Sprintf("invalid prescription status: %s", p.Status))
	if err := v.Err(); err != nil {
		return err
	}

	p.ID = ""
	return s.prescriptions.Create(ctx, p)
}

// ListPrescriptions returns prescriptions in stored order, optionally
// restricted to one patient name.
func (s *Service) ListPrescriptions(ctx context.Context, patientName string) ([]*Prescription, error) {
	all, err := s.prescriptions.List(ctx)
	if err != nil {
		return nil, err
	}
	if patientName == "" {
		return all, nil
	}
	result := []*Prescription{}
	for _, p := range all {
		if p.PatientName == patientName {
			result = append(result, p)
		}
	}
	return result, nil
}
