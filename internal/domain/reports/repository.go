package reports

import (
	"context"

	"chequedentista/internal/core/id"
	"chequedentista/internal/domain/voucher"
)

// Repository supplies the raw rows the aggregation engine recomputes
// from. Implementations scope to the clinic carried by ctx.
type Repository interface {
	// Vouchers returns the clinic's full non-deleted voucher set.
	Vouchers(ctx context.Context) ([]*voucher.Voucher, error)

	// DoctorNames resolves doctor ids to display names.
	DoctorNames(ctx context.Context) (map[id.ID]string, error)
}
