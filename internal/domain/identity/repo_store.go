package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/store"
)

type patientRepoStore struct{ store store.Store }

// NewPatientRepoStore returns a PatientRepository over the patients collection.
func NewPatientRepoStore(s store.Store) PatientRepository { return &patientRepoStore{store: s} }

func (r *patientRepoStore) List(ctx context.Context) ([]*Patient, error) {
	items, _, err := store.Load[Patient](ctx, r.store, store.Patients)
	if err != nil {
		return nil, err
	}
	out := make([]*Patient, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

func (r *patientRepoStore) GetByID(ctx context.Context, id string) (*Patient, error) {
	items, _, err := store.Load[Patient](ctx, r.store, store.Patients)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, ErrPatientNotFound
}

func (r *patientRepoStore) Create(ctx context.Context, p *Patient) error {
	return store.Update(ctx, r.store, store.Patients, func(items []Patient) ([]Patient, error) {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		return append(items, *p), nil
	})
}
