package diagnostics

import "context"

type ReportRepository interface {
	List(ctx context.Context) ([]*Report, error)
	Create(ctx context.Context, r *Report) error
	UpdateStatus(ctx context.Context, id, status string) (*Report, error)
}
