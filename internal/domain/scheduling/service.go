package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/platform/apierr"
	"github.com/clinicdesk/clinicdesk/pkg/clinicdate"
)

var ErrAppointmentNotFound = fmt.Errorf("appointment %w", apierr.ErrNotFound)

const (
	DefaultAppointmentType = "Consultation"
	DefaultUpcomingLimit   = 5
)

type Service struct {
	appointments AppointmentRepository
	patients     PatientLookup
	now          clinicdate.Clock
	loc          *time.Location
}

func NewService(appts AppointmentRepository, patients PatientLookup, now clinicdate.Clock, loc *time.Location) *Service {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{appointments: appts, patients: patients, now: now, loc: loc}
}

func (s *Service) today() string {
	return clinicdate.Today(s.now(), s.loc)
}

// ScheduleAppointment books a visit for an existing patient, copying the
// patient's current name onto the appointment.
func (s *Service) ScheduleAppointment(ctx context.Context, a *Appointment) error {
	a.PatientID = strings.TrimSpace(a.PatientID)
	a.DoctorName = strings.TrimSpace(a.DoctorName)
	a.Time = strings.TrimSpace(a.Time)
	if a.Type == "" {
		a.Type = DefaultAppointmentType
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}

	var v apierr.Validator
	v.Check(a.PatientID != "", "patient_id is required")
	v.Check(a.DoctorName != "", "doctor_name is required")
	v.Check(clinicdate.Valid(a.Date), "date must be YYYY-MM-DD")
	_, timeErr := To24Hour(a.Time)
	v.Check(timeErr == nil, "time must look like 2:30 PM")
	v.Check(validAppointmentStatuses[a.Status], fmt.Sprintf("invalid appointment status: %s", a.Status))
	if err := v.Err(); err != nil {
		return err
	}

	p, err := s.patients.GetByID(ctx, a.PatientID)
	if err != nil {
		if errors.Is(err, identity.ErrPatientNotFound) {
			return &apierr.ValidationError{Fields: []string{"patient_id does not match a registered patient"}}
		}
		return err
	}
	a.PatientName = p.Name
	a.ID = ""
	return s.appointments.Create(ctx, a)
}

func (s *Service) ListAppointments(ctx context.Context) ([]*Appointment, error) {
	return s.appointments.List(ctx)
}

// TodayAppointments returns today's non-cancelled appointments in time order.
func (s *Service) TodayAppointments(ctx context.Context) ([]*Appointment, error) {
	all, err := s.appointments.List(ctx)
	if err != nil {
		return nil, err
	}
	result := FilterToday(all, s.today())
	SortByTime(result)
	return result, nil
}

// UpcomingAppointments returns non-cancelled appointments after today in
// stored order, capped at limit.
func (s *Service) UpcomingAppointments(ctx context.Context, limit int) ([]*Appointment, error) {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	all, err := s.appointments.List(ctx)
	if err != nil {
		return nil, err
	}
	today := s.today()
	result := []*Appointment{}
	for _, a := range all {
		if a.Date > today && a.Status != StatusCancelled {
			result = append(result, a)
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Appointment, error) {
	if !validAppointmentStatuses[status] {
		return nil, &apierr.ValidationError{Fields: []string{fmt.Sprintf("invalid appointment status: %s", status)}}
	}
	return s.appointments.UpdateStatus(ctx, id, status)
}

// FilterToday keeps appointments dated today that are not cancelled.
func FilterToday(appts []*Appointment, today string) []*Appointment {
	result := []*Appointment{}
	for _, a := range appts {
		if a.Date == today && a.Status != StatusCancelled {
			result = append(result, a)
		}
	}
	return result
}
