package diagnostics

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/store"
)

type reportRepoStore struct{ store store.Store }

func NewReportRepoStore(s store.Store) ReportRepository {
	return &reportRepoStore{store: s}
}

func (r *reportRepoStore) List(ctx context.Context) ([]*Report, error) {
	items, _, err := store.Load[Report](ctx, r.store, store.Reports)
	if err != nil {
		return nil, err
	}
	out := make([]*Report, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

func (r *reportRepoStore) Create(ctx context.Context, rep *Report) error {
	return store.Update(ctx, r.store, store.Reports, func(items []Report) ([]Report, error) {
		if rep.ID == "" {
			rep.ID = uuid.New().String()
		}
		return append(items, *rep), nil
	})
}

func (r *reportRepoStore) UpdateStatus(ctx context.Context, id, status string) (*Report, error) {
	var updated *Report
	err := store.Update(ctx, r.store, store.Reports, func(items []Report) ([]Report, error) {
		for i := range items {
			if items[i].ID == id {
				items[i].Status = status
				rep := items[i]
				updated = &rep
				return items, nil
			}
		}
		return nil, ErrReportNotFound
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
