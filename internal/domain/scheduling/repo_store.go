package scheduling

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/store"
)

type appointmentRepoStore struct{ store store.Store }

func NewAppointmentRepoStore(s store.Store) AppointmentRepository {
	return &appointmentRepoStore{store: s}
}

func (r *appointmentRepoStore) List(ctx context.Context) ([]*Appointment, error) {
	items, _, err := store.Load[Appointment](ctx, r.store, store.Appointments)
	if err != nil {
		return nil, err
	}
	out := make([]*Appointment, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

func (r *appointmentRepoStore) Create(ctx context.Context, a *Appointment) error {
	return store.Update(ctx, r.store, store.Appointments, func(items []Appointment) ([]Appointment, error) {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		return append(items, *a), nil
	})
}

func (r *appointmentRepoStore) UpdateStatus(ctx context.Context, id, status string) (*Appointment, error) {
	var updated *Appointment
	err := store.Update(ctx, r.store, store.Appointments, func(items []Appointment) ([]Appointment, error) {
		for i := range items {
			if items[i].ID == id {
				items[i].Status = status
				a := items[i]
				updated = &a
				return items, nil
			}
		}
		return nil, ErrAppointmentNotFound
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
