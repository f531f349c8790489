package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/core/tenant"
	"chequedentista/internal/domain/reports"
	"chequedentista/internal/domain/voucher"
)

var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo feeds the aggregation engine. Reports recompute from the
// voucher rows on every request, so this repo only does flat reads.
type ReportRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewReportRepo creates a report repository.
func NewReportRepo(txm *TxManager) *ReportRepo {
	return &ReportRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Vouchers returns the clinic's full non-deleted voucher set.
func (r *ReportRepo) Vouchers(ctx context.Context) ([]*voucher.Voucher, error) {
	cid, err := tenant.ClinicID(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	sql, args, err := r.builder.
		Select(ExtractDBColumns[*voucher.Voucher]()...).
		From(voucherTable).
		Where(squirrel.Eq{"clinic_id": cid}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build voucher select: %w", err)
	}

	var items []*voucher.Voucher
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("load vouchers: %w", err)
	}
	return items, nil
}

// DoctorNames resolves doctor ids to display names.
func (r *ReportRepo) DoctorNames(ctx context.Context) (map[id.ID]string, error) {
	cid, err := tenant.ClinicID(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	sql, args, err := r.builder.
		Select("id", "name").
		From("doctors").
		Where(squirrel.Eq{"clinic_id": cid}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build doctor select: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	defer rows.Close()

	names := make(map[id.ID]string)
	for rows.Next() {
		var doctorID id.ID
		var name string
		if err := rows.Scan(&doctorID, &name); err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		names[doctorID] = name
	}
	return names, rows.Err()
}
