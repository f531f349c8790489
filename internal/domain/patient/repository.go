package patient

import (
	"context"

	"chequedentista/internal/core/id"
	"chequedentista/internal/domain"
)

// Repository defines patient persistence, clinic-scoped via ctx.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, patientID id.ID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, patientID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Patient], error)

	// VoucherSummary computes the derived counts from the patient's
	// voucher rows.
	VoucherSummary(ctx context.Context, patientID id.ID) (VoucherSummary, error)
}
