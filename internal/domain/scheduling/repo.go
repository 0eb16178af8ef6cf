package scheduling

import (
	"context"

	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
)

type AppointmentRepository interface {
	List(ctx context.Context) ([]*Appointment, error)
	Create(ctx context.Context, a *Appointment) error
	UpdateStatus(ctx context.Context, id, status string) (*Appointment, error)
}

// PatientLookup resolves the patient an appointment is booked for.
type PatientLookup interface {
	GetByID(ctx context.Context, id string) (*identity.Patient, error)
}
