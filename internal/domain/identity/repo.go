package identity

import "context"

type PatientRepository interface {
	List(ctx context.Context) ([]*Patient, error)
	GetByID(ctx context.Context, id string) (*Patient, error)
	Create(ctx context.Context, p *Patient) error
}
