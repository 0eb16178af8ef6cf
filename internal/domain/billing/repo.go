package billing

import "context"

type MedicineBillRepository interface {
	List(ctx context.Context) ([]*MedicineBill, error)
	Create(ctx context.Context, b *MedicineBill) error
}

type HospitalBillRepository interface {
	List(ctx context.Context) ([]*HospitalBill, error)
	Create(ctx context.Context, b *HospitalBill) error
}
