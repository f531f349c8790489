package doctor

import (
	"context"

	"chequedentista/internal/core/id"
	"chequedentista/internal/domain"
)

// Repository defines doctor persistence, clinic-scoped via ctx.
type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, doctorID id.ID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, doctorID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Doctor], error)

	// FinancialSummary computes the derived cumulative sums from the
	// doctor's voucher rows.
	FinancialSummary(ctx context.Context, doctorID id.ID) (FinancialSummary, error)
}
