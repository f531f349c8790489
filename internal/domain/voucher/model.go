package voucher

import (
	"context"
	"fmt"
	"time"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/entity"
	"chequedentista/internal/core/id"
	"chequedentista/internal/core/types"
)

// Voucher represents one government dental subsidy instrument
// ("cheque dentista") tracked from delivery through reimbursement.
type Voucher struct {
	entity.Base

	// Number is the government-assigned voucher number,
	// unique within the clinic (not globally).
	Number string `db:"number" json:"number"`

	PatientID id.ID `db:"patient_id" json:"patientId"`
	DoctorID  id.ID `db:"doctor_id" json:"doctorId"`

	Amount types.Money `db:"amount" json:"amount"`

	Status Status `db:"status" json:"status"`

	// CancellationReason is meaningful only when Status is cancelled.
	CancellationReason *string `db:"cancellation_reason" json:"cancellationReason,omitempty"`

	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
}

// New creates a voucher in the initial pending_delivery status.
func New(clinicID id.ID, number string, patientID, doctorID id.ID, amount types.Money, expiry *time.Time) *Voucher {
	return &Voucher{
		Base:       entity.NewBase(clinicID),
		Number:     number,
		PatientID:  patientID,
		DoctorID:   doctorID,
		Amount:     amount,
		Status:     StatusPendingDelivery,
		ExpiryDate: expiry,
	}
}

// Validate implements entity.Validatable.
func (v *Voucher) Validate(ctx context.Context) error {
	if id.IsNil(v.ClinicID) {
		return apperror.NewValidation("clinic is required").
			WithDetail("field", "clinicId")
	}

	if v.Number == "" {
		return apperror.NewValidation("voucher number is required").
			WithDetail("field", "number")
	}

	if id.IsNil(v.PatientID) {
		return apperror.NewValidation("patient is required").
			WithDetail("field", "patientId")
	}

	if id.IsNil(v.DoctorID) {
		return apperror.NewValidation("doctor is required").
			WithDetail("field", "doctorId")
	}

	if !types.ValidAmount(v.Amount) {
		return apperror.NewValidation("amount must be positive with at most two decimal places").
			WithDetail("field", "amount").
			WithDetail("value", v.Amount.String())
	}

	if !v.Status.Valid() {
		return apperror.NewValidation("unknown voucher status").
			WithDetail("field", "status").
			WithDetail("value", string(v.Status))
	}

	return nil
}

// DaysUntilExpiry returns the signed number of whole days until the
// expiry date relative to now (negative means already expired), and
// false if the voucher has no expiry date.
func (v *Voucher) DaysUntilExpiry(now time.Time) (int, bool) {
	if v.ExpiryDate == nil {
		return 0, false
	}
	day := 24 * time.Hour
	expiry := v.ExpiryDate.Truncate(day)
	today := now.UTC().Truncate(day)
	return int(expiry.Sub(today) / day), true
}

// HistoryEntry is one append-only audit record of a status change.
// Entries are never mutated or deleted.
type HistoryEntry struct {
	ID        id.ID `db:"id" json:"id"`
	VoucherID id.ID `db:"voucher_id" json:"voucherId"`

	// PreviousStatus is nil only for the very first entry of a voucher.
	PreviousStatus *Status `db:"previous_status" json:"previousStatus,omitempty"`
	NewStatus      Status  `db:"new_status" json:"newStatus"`

	// Reason carries the cancellation reason when the entry records a
	// cancellation; empty otherwise.
	Reason string `db:"reason" json:"reason,omitempty"`

	ChangedBy string    `db:"changed_by" json:"changedBy,omitempty"`
	ChangedAt time.Time `db:"changed_at" json:"changedAt"`
}

// NewHistoryEntry builds an audit record for one transition.
func NewHistoryEntry(voucherID id.ID, previous *Status, next Status, reason, changedBy string) HistoryEntry {
	return HistoryEntry{
		ID:             id.New(),
		VoucherID:      voucherID,
		PreviousStatus: previous,
		NewStatus:      next,
		Reason:         reason,
		ChangedBy:      changedBy,
		ChangedAt:      time.Now().UTC(),
	}
}

// VerifyChain checks the audit contiguity invariant: entries ordered by
// ChangedAt must form a chain where each entry's previous status equals
// the prior entry's new status, and only the first entry may have a nil
// previous status.
func VerifyChain(entries []HistoryEntry) error {
	for i, e := range entries {
		if i == 0 {
			continue
		}
		if e.PreviousStatus == nil {
			return fmt.Errorf("entry %d has nil previous status", i)
		}
		if *e.PreviousStatus != entries[i-1].NewStatus {
			return fmt.Errorf("entry %d breaks the chain: previous %q, expected %q",
				i, *e.PreviousStatus, entries[i-1].NewStatus)
		}
	}
	return nil
}
