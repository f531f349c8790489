package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/core/tenant"
	"chequedentista/internal/domain"
	"chequedentista/internal/domain/ticket"
)

const (
	ticketTable        = "tickets"
	ticketHistoryTable = "ticket_status_history"
)

// Compile-time check.
var _ ticket.Repository = (*TicketRepo)(nil)

// TicketRepo is the PostgreSQL support ticket repository.
type TicketRepo struct {
	*BaseRepo[*ticket.Ticket]
	historyCols []string
}

// NewTicketRepo creates a ticket repository.
func NewTicketRepo(txm *TxManager) *TicketRepo {
	return &TicketRepo{
		BaseRepo: NewBaseRepo[*ticket.Ticket](
			txm,
			ticketTable,
			"ticket",
			[]string{"subject"},
			func() *ticket.Ticket { return &ticket.Ticket{} },
		),
		historyCols: ExtractDBColumns[ticket.HistoryEntry](),
	}
}

// Create inserts the ticket and its initial history entry in one
// transaction.
func (r *TicketRepo) Create(ctx context.Context, t *ticket.Ticket, initial ticket.HistoryEntry) error {
	return r.TxManager().RunInTransaction(ctx, func(ctx context.Context) error {
		if err := r.BaseRepo.Create(ctx, t); err != nil {
			return err
		}
		return r.appendHistory(ctx, initial)
	})
}

// List retrieves tickets with ticket-specific filters.
func (r *TicketRepo) List(ctx context.Context, filter ticket.ListFilter) (domain.ListResult[*ticket.Ticket], error) {
	result := domain.ListResult[*ticket.Ticket]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	cid, err := tenant.ClinicID(ctx)
	if err != nil {
		return result, apperror.NewInternal(err)
	}

	where := squirrel.And{squirrel.Eq{"clinic_id": cid}}
	if !filter.IncludeDeleted {
		where = append(where, squirrel.Eq{"deletion_mark": false})
	}
	if filter.Status != nil {
		where = append(where, squirrel.Eq{"status": *filter.Status})
	}
	if filter.Priority != nil {
		where = append(where, squirrel.Eq{"priority": *filter.Priority})
	}
	if filter.Search != "" {
		where = append(where, squirrel.ILike{"subject": "%" + filter.Search + "%"})
	}

	q := r.Builder().
		Select(ExtractDBColumns[*ticket.Ticket]()...).
		From(ticketTable).
		Where(where)
	q = applyOrder(q, filter.OrderBy)
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build list: %w", err)
	}

	items := make([]*ticket.Ticket, 0, filter.Limit)
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return result, fmt.Errorf("list tickets: %w", err)
	}
	result.Items = items

	countSQL, countArgs, err := r.Builder().
		Select("COUNT(*)").
		From(ticketTable).
		Where(where).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.Querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count tickets: %w", err)
	}

	return result, nil
}

// UpdateStatus performs the conditional status write plus history
// append in one transaction, the same compare-and-swap contract as the
// voucher repository.
func (r *TicketRepo) UpdateStatus(ctx context.Context, ticketID id.ID, expectedCurrent ticket.Status, entry ticket.HistoryEntry) error {
	cid, err := tenant.ClinicID(ctx)
	if err != nil {
		return apperror.NewInternal(err)
	}

	return r.TxManager().RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.Builder().
			Update(ticketTable).
			Set("status", entry.NewStatus).
			Set("version", squirrel.Expr("version + 1")).
			Set("updated_at", time.Now().UTC()).
			Set("updated_by", entry.ChangedBy).
			Where(squirrel.Eq{"id": ticketID}).
			Where(squirrel.Eq{"clinic_id": cid}).
			Where(squirrel.Eq{"status": expectedCurrent})

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build status update: %w", err)
		}

		result, err := r.Querier(ctx).Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("update ticket status: %w", err)
		}

		if result.RowsAffected() == 0 {
			if _, getErr := r.GetByID(ctx, ticketID); getErr != nil {
				return getErr
			}
			return apperror.NewConcurrentModification("ticket", ticketID.String())
		}

		return r.appendHistory(ctx, entry)
	})
}

// History returns the ticket's status log ordered by ChangedAt.
func (r *TicketRepo) History(ctx context.Context, ticketID id.ID) ([]ticket.HistoryEntry, error) {
	if _, err := r.GetByID(ctx, ticketID); err != nil {
		return nil, err
	}

	q := r.Builder().
		Select(r.historyCols...).
		From(ticketHistoryTable).
		Where(squirrel.Eq{"ticket_id": ticketID}).
		OrderBy("changed_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history: %w", err)
	}

	var entries []ticket.HistoryEntry
	if err := pgxscan.Select(ctx, r.Querier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return entries, nil
}

func (r *TicketRepo) appendHistory(ctx context.Context, entry ticket.HistoryEntry) error {
	q := r.Builder().
		Insert(ticketHistoryTable).
		SetMap(StructToMap(entry))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build history insert: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}
