package postgres

import (
	"context"
	"fmt"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/core/tenant"
	"chequedentista/internal/domain/doctor"
	"chequedentista/internal/domain/voucher"
)

// Compile-time check.
var _ doctor.Repository = (*DoctorRepo)(nil)

// DoctorRepo is the PostgreSQL doctor repository.
type DoctorRepo struct {
	*BaseRepo[*doctor.Doctor]
}

// NewDoctorRepo creates a doctor repository.
func NewDoctorRepo(txm *TxManager) *DoctorRepo {
	return &DoctorRepo{
		BaseRepo: NewBaseRepo[*doctor.Doctor](
			txm,
			"doctors",
			"doctor",
			[]string{"name"},
			func() *doctor.Doctor { return &doctor.Doctor{} },
		),
	}
}

// FinancialSummary computes the doctor's cumulative milestone sums from
// the voucher rows. Each sum includes vouchers at or beyond the
// milestone in the forward chain.
func (r *DoctorRepo) FinancialSummary(ctx context.Context, doctorID id.ID) (doctor.FinancialSummary, error) {
	var summary doctor.FinancialSummary

	cid, err := tenant.ClinicID(ctx)
	if err != nil {
		return summary, apperror.NewInternal(err)
	}

	const q = `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE status IN ($3, $4, $5)), 0) AS submitted,
			COALESCE(SUM(amount) FILTER (WHERE status IN ($4, $5)), 0)     AS paid_by_payer,
			COALESCE(SUM(amount) FILTER (WHERE status = $5), 0)            AS paid_to_doctor
		FROM vouchers
		WHERE clinic_id = $1 AND doctor_id = $2 AND deletion_mark = false`

	err = r.Querier(ctx).QueryRow(ctx, q,
		cid, doctorID,
		voucher.StatusSubmitted, voucher.StatusPaidByPayer, voucher.StatusPaidToDoctor,
	).Scan(&summary.SubmittedAmount, &summary.PaidByPayerAmount, &summary.PaidToDoctorAmount)
	if err != nil {
		return summary, fmt.Errorf("doctor financial summary: %w", err)
	}

	return summary, nil
}
