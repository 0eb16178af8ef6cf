package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/store"
)

// -- Medicine bills --

type medicineBillRepoStore struct{ store store.Store }

func NewMedicineBillRepoStore(s store.Store) MedicineBillRepository {
	return &medicineBillRepoStore{store: s}
}

func (r *medicineBillRepoStore) List(ctx context.Context) ([]*MedicineBill, error) {
	items, _, err := store.Load[MedicineBill](ctx, r.store, store.MedicineBills)
	if err != nil {
		return nil, err
	}
	out := make([]*MedicineBill, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

func (r *medicineBillRepoStore) Create(ctx context.Context, b *MedicineBill) error {
	return store.Update(ctx, r.store, store.MedicineBills, func(items []MedicineBill) ([]MedicineBill, error) {
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		return append(items, *b), nil
	})
}

// -- Hospital bills --

type hospitalBillRepoStore struct{ store store.Store }

func NewHospitalBillRepoStore(s store.Store) HospitalBillRepository {
	return &hospitalBillRepoStore{store: s}
}

func (r *hospitalBillRepoStore) List(ctx context.Context) ([]*HospitalBill, error) {
	items, _, err := store.Load[HospitalBill](ctx, r.store, store.HospitalBills)
	if err != nil {
		return nil, err
	}
	out := make([]*HospitalBill, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

func (r *hospitalBillRepoStore) Create(ctx context.Context, b *HospitalBill) error {
	return store.Update(ctx, r.store, store.HospitalBills, func(items []HospitalBill) ([]HospitalBill, error) {
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		return append(items, *b), nil
	})
}
