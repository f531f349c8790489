package postgres

import (
	"context"
	"fmt"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/core/tenant"
	"chequedentista/internal/domain/patient"
	"chequedentista/internal/domain/voucher"
)

// Compile-time check.
var _ patient.Repository = (*PatientRepo)(nil)

// PatientRepo is the PostgreSQL patient repository.
type PatientRepo struct {
	*BaseRepo[*patient.Patient]
}

// NewPatientRepo creates a patient repository.
func NewPatientRepo(txm *TxManager) *PatientRepo {
	return &PatientRepo{
		BaseRepo: NewBaseRepo[*patient.Patient](
			txm,
			"patients",
			"patient",
			[]string{"name"},
			func() *patient.Patient { return &patient.Patient{} },
		),
	}
}

// VoucherSummary computes the derived counts from the patient's voucher
// rows in a single conditional aggregation. Counts are cumulative along
// the forward chain; available means received but not yet used.
func (r *PatientRepo) VoucherSummary(ctx context.Context, patientID id.ID) (patient.VoucherSummary, error) {
	var summary patient.VoucherSummary

	cid, err := tenant.ClinicID(ctx)
	if err != nil {
		return summary, apperror.NewInternal(err)
	}

	const q = `
		SELECT
			COUNT(*) FILTER (WHERE status IN ($3, $4, $5, $6, $7)) AS received,
			COUNT(*) FILTER (WHERE status IN ($4, $5, $6, $7))     AS used,
			COUNT(*) FILTER (WHERE status = $3)                    AS available
		FROM vouchers
		WHERE clinic_id = $1 AND patient_id = $2 AND deletion_mark = false`

	err = r.Querier(ctx).QueryRow(ctx, q,
		cid, patientID,
		voucher.StatusReceived, voucher.StatusUsed, voucher.StatusSubmitted,
		voucher.StatusPaidByPayer, voucher.StatusPaidToDoctor,
	).Scan(&summary.Received, &summary.Used, &summary.Available)
	if err != nil {
		return summary, fmt.Errorf("patient voucher summary: %w", err)
	}

	return summary, nil
}
