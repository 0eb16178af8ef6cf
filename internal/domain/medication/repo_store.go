package medication

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/store"
)

type prescriptionRepoStore struct{ store store.Store }

func NewPrescriptionRepoStore(s store.Store) PrescriptionRepository {
	return &prescriptionRepoStore{store: s}
}

func (r *prescriptionRepoStore) List(ctx context.Context) ([]*Prescription, error) {
	items, _, err := store.Load[Prescription](ctx, r.store, store.Prescriptions)
	if err != nil {
		return nil, err
	}
	out := make([]*Prescription, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

func (r *prescriptionRepoStore) Create(ctx context.Context, p *Prescription) error {
	return store.Update(ctx, r.store, store.Prescriptions, func(items []Prescription) ([]Prescription, error) {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		return append(items, *p), nil
	})
}
