package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/platform/apierr"
	"github.com/clinicdesk/clinicdesk/pkg/clinicdate"
)

var ErrPatientNotFound = fmt.Errorf("patient %w", apierr.ErrNotFound)

const (
	DefaultCondition = "General"
	DefaultGender    = "Male"
	DefaultAvatar    = "/static/avatars/default.png"
)

var validGenders = map[string]bool{
	"Male": true, "Female": true, "Other": true,
}

type Service struct {
	patients PatientRepository
	now      clinicdate.Clock
	loc      *time.Location
}

func NewService(repo PatientRepository, now clinicdate.Clock, loc *time.Location) *Service {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{patients: repo, now: now, loc: loc}
}

// RegisterPatient validates and normalises p, stamps today's date as both
// the last visit and the creation date, and appends it to the collection.
func (s *Service) RegisterPatient(ctx context.Context, p *Patient) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Email = strings.TrimSpace(p.Email)
	p.Address = strings.TrimSpace(p.Address)
	p.Condition = strings.TrimSpace(p.Condition)
	if p.Gender == "" {
		p.Gender = DefaultGender
	}

	var v apierr.Validator
	v.Check(p.Name != "", "patient name is required")
	v.Check(p.Age > 0, "please enter a valid age")
	v.Check(p.Phone != "", "phone number is required")
	v.Check(validGenders[p.Gender], fmt.Sprintf("invalid gender: %s", p.Gender))
	if err := v.Err(); err != nil {
		return err
	}

	if p.Condition == "" {
		p.Condition = DefaultCondition
	}
	p.BloodGroup = trimmedOrNil(p.BloodGroup)
	p.EmergencyContact = trimmedOrNil(p.EmergencyContact)
	p.Allergies = CleanAllergies(p.Allergies)
	if p.Avatar == "" {
		p.Avatar = DefaultAvatar
	}

	today := clinicdate.Today(s.now(), s.loc)
	p.LastVisit = today
	p.CreatedAt = &today
	p.ID = ""

	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id string) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.patients.List(ctx)
}

// NewRegistrations returns patients whose registration date is today.
func (s *Service) NewRegistrations(ctx context.Context) ([]*Patient, error) {
	all, err := s.patients.List(ctx)
	if err != nil {
		return nil, err
	}
	today := clinicdate.Today(s.now(), s.loc)
	result := []*Patient{}
	for _, p := range all {
		if p.RegistrationDate() == today {
			result = append(result, p)
		}
	}
	return result, nil
}

// CleanAllergies trims entries and drops blanks.
func CleanAllergies(in []string) []string {
	out := []string{}
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// ParseAllergies splits a comma-separated allergy list.
func ParseAllergies(s string) []string {
	return CleanAllergies(strings.Split(s, ","))
}

func trimmedOrNil(s *string) *string {
	v := strings.TrimSpace(strVal(s))
	if v == "" {
		return nil
	}
	return &v
}
