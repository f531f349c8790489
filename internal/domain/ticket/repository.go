package ticket

import (
	"context"

	"chequedentista/internal/core/id"
	"chequedentista/internal/domain"
)

// ListFilter narrows ticket list queries.
type ListFilter struct {
	domain.ListFilter

	Status   *Status
	Priority *Priority
}

// Repository defines ticket persistence, clinic-scoped via ctx.
type Repository interface {
	Create(ctx context.Context, t *Ticket, initial HistoryEntry) error
	GetByID(ctx context.Context, ticketID id.ID) (*Ticket, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Ticket], error)

	// UpdateStatus performs the conditional status write plus history
	// append in one transaction, mirroring the voucher repository's
	// compare-and-swap contract.
	UpdateStatus(ctx context.Context, ticketID id.ID, expectedCurrent Status, entry HistoryEntry) error

	// History returns the ticket's status log, ordered by ChangedAt.
	History(ctx context.Context, ticketID id.ID) ([]HistoryEntry, error)
}
