package medication

import "context"

type PrescriptionRepository interface {
	List(ctx context.Context) ([]*Prescription, error)
	Create(ctx context.Context, p *Prescription) error
}
