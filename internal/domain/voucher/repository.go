package voucher

import (
	"context"

	"chequedentista/internal/core/id"
	"chequedentista/internal/domain"
)

// ListFilter narrows voucher list queries. All queries are additionally
// scoped to the caller's clinic by the repository.
type ListFilter struct {
	domain.ListFilter

	PatientID *id.ID
	DoctorID  *id.ID
	Status    *Status
}

// Repository defines voucher persistence. Implementations scope every
// operation to the clinic carried by ctx.
type Repository interface {
	// Create inserts a voucher and its initial history entry in one
	// transaction.
	Create(ctx context.Context, v *Voucher, initial HistoryEntry) error

	// CreateBatch inserts several vouchers with their initial history
	// entries atomically: either all rows are written or none.
	CreateBatch(ctx context.Context, vs []*Voucher, initial []HistoryEntry) error

	// GetByID retrieves a voucher within the caller's clinic.
	GetByID(ctx context.Context, voucherID id.ID) (*Voucher, error)

	// ExistsByNumber checks clinic-scoped number uniqueness.
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// List retrieves vouchers with filtering and pagination.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Voucher], error)

	// UpdateStatus atomically moves a voucher from expectedCurrent to
	// the entry's new status and appends the history entry, in a single
	// transaction. The status write is conditional on the stored status
	// still being expectedCurrent (compare-and-swap); if it no longer
	// matches, no row is written and ErrStatusChanged is reported via
	// apperror.CodeConcurrentModification.
	UpdateStatus(ctx context.Context, voucherID id.ID, expectedCurrent Status, entry HistoryEntry, cancellationReason *string) error

	// History returns the append-only audit log for a voucher, ordered
	// by ChangedAt ascending.
	History(ctx context.Context, voucherID id.ID) ([]HistoryEntry, error)
}
