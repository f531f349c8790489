package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/core/tenant"
	"chequedentista/internal/domain"
	"chequedentista/internal/domain/voucher"
)

const (
	voucherTable        = "vouchers"
	voucherHistoryTable = "voucher_status_history"
)

// Compile-time check.
var _ voucher.Repository = (*VoucherRepo)(nil)

// VoucherRepo is the PostgreSQL voucher repository.
type VoucherRepo struct {
	*BaseRepo[*voucher.Voucher]
	historyCols []string
}

// NewVoucherRepo creates a voucher repository.
func NewVoucherRepo(txm *TxManager) *VoucherRepo {
	return &VoucherRepo{
		BaseRepo: NewBaseRepo[*voucher.Voucher](
			txm,
			voucherTable,
			"voucher",
			[]string{"number"},
			func() *voucher.Voucher { return &voucher.Voucher{} },
		),
		historyCols: ExtractDBColumns[voucher.HistoryEntry](),
	}
}

// Create inserts the voucher and its initial history entry in one
// transaction, so no voucher row ever exists without the first audit
// record.
func (r *VoucherRepo) Create(ctx context.Context, v *voucher.Voucher, initial voucher.HistoryEntry) error {
	return r.TxManager().RunInTransaction(ctx, func(ctx context.Context) error {
		if err := r.BaseRepo.Create(ctx, v); err != nil {
			return err
		}
		return r.appendHistory(ctx, initial)
	})
}

// CreateBatch inserts several vouchers atomically.
func (r *VoucherRepo) CreateBatch(ctx context.Context, vs []*voucher.Voucher, initial []voucher.HistoryEntry) error {
	if len(vs) != len(initial) {
		return fmt.Errorf("voucher/history count mismatch: %d vs %d", len(vs), len(initial))
	}
	return r.TxManager().RunInTransaction(ctx, func(ctx context.Context) error {
		for i, v := range vs {
			if err := r.BaseRepo.Create(ctx, v); err != nil {
				return err
			}
			if err := r.appendHistory(ctx, initial[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// ExistsByNumber checks clinic-scoped number uniqueness.
func (r *VoucherRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	cid, err := tenant.ClinicID(ctx)
	if err != nil {
		return false, apperror.NewInternal(err)
	}

	q := r.Builder().
		Select("1").
		From(voucherTable).
		Where(squirrel.Eq{"clinic_id": cid}).
		Where(squirrel.Eq{"number": number}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var one int
	if err := r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("exists by number: %w", err)
	}
	return true, nil
}

// List retrieves vouchers with voucher-specific filters on top of the
// common listing behavior.
func (r *VoucherRepo) List(ctx context.Context, filter voucher.ListFilter) (domain.ListResult[*voucher.Voucher], error) {
	result := domain.ListResult[*voucher.Voucher]{
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
	if filter.PatientID != nil {
		where = append(where, squirrel.Eq{"patient_id": *filter.PatientID})
	}
	if filter.DoctorID != nil {
		where = append(where, squirrel.Eq{"doctor_id": *filter.DoctorID})
	}
	if filter.Status != nil {
		where = append(where, squirrel.Eq{"status": *filter.Status})
	}
	if filter.Search != "" {
		where = append(where, squirrel.ILike{"number": "%" + filter.Search + "%"})
	}

	q := r.Builder().
		Select(ExtractDBColumns[*voucher.Voucher]()...).
		From(voucherTable).
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

	items := make([]*voucher.Voucher, 0, filter.Limit)
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return result, fmt.Errorf("list vouchers: %w", err)
	}
	result.Items = items

	countSQL, countArgs, err := r.Builder().
		Select("COUNT(*)").
		From(voucherTable).
		Where(where).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.Querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count vouchers: %w", err)
	}

	return result, nil
}

// UpdateStatus applies one transition as a compare-and-swap: the status
// column must still hold the expected value or nothing is written. The
// history append rides in the same transaction, so the voucher row and
// its audit log can never diverge.
func (r *VoucherRepo) UpdateStatus(ctx context.Context, voucherID id.ID, expectedCurrent voucher.Status, entry voucher.HistoryEntry, cancellationReason *string) error {
	cid, err := tenant.ClinicID(ctx)
	if err != nil {
		return apperror.NewInternal(err)
	}

	return r.TxManager().RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.Builder().
			Update(voucherTable).
			Set("status", entry.NewStatus).
			Set("version", squirrel.Expr("version + 1")).
			Set("updated_at", time.Now().UTC()).
			Set("updated_by", entry.ChangedBy).
			Where(squirrel.Eq{"id": voucherID}).
			Where(squirrel.Eq{"clinic_id": cid}).
			Where(squirrel.Eq{"status": expectedCurrent})

		if cancellationReason != nil {
			q = q.Set("cancellation_reason", *cancellationReason)
		}

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build status update: %w", err)
		}

		result, err := r.Querier(ctx).Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("update voucher status: %w", err)
		}

		if result.RowsAffected() == 0 {
			// Distinguish a stale expectation from a missing voucher
			if _, getErr := r.GetByID(ctx, voucherID); getErr != nil {
				return getErr
			}
			return apperror.NewConcurrentModification("voucher", voucherID.String())
		}

		return r.appendHistory(ctx, entry)
	})
}

// History returns the append-only audit log ordered by ChangedAt.
func (r *VoucherRepo) History(ctx context.Context, voucherID id.ID) ([]voucher.HistoryEntry, error) {
	// The voucher lookup enforces clinic scope before touching the log
	if _, err := r.GetByID(ctx, voucherID); err != nil {
		return nil, err
	}

	q := r.Builder().
		Select(r.historyCols...).
		From(voucherHistoryTable).
		Where(squirrel.Eq{"voucher_id": voucherID}).
		OrderBy("changed_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history: %w", err)
	}

	var entries []voucher.HistoryEntry
	if err := pgxscan.Select(ctx, r.Querier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return entries, nil
}

func (r *VoucherRepo) appendHistory(ctx context.Context, entry voucher.HistoryEntry) error {
	data := StructToMap(entry)

	q := r.Builder().
		Insert(voucherHistoryTable).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build history insert: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}
