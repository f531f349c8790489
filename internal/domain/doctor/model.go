// Package doctor provides the clinic's practitioner registry.
package doctor

import (
	"context"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/entity"
	"chequedentista/internal/core/id"
	"chequedentista/internal/core/types"
)

// Doctor is a practitioner associated with a clinic. Read-mostly.
type Doctor struct {
	entity.Base

	Name string `db:"name" json:"name"`
}

// FinancialSummary is derived from the doctor's vouchers on every read;
// it is never stored. Sums are cumulative: a voucher paid to the doctor
// also counts toward the submitted and paid-by-payer milestones it
// necessarily passed through.
type FinancialSummary struct {
	SubmittedAmount    types.Money `json:"submittedAmount"`
	PaidByPayerAmount  types.Money `json:"paidByPayerAmount"`
	PaidToDoctorAmount types.Money `json:"paidToDoctorAmount"`
}

// WithSummary pairs a doctor with its derived financial totals.
type WithSummary struct {
	Doctor
	Financials FinancialSummary `json:"financials"`
}

// New creates a doctor for a clinic.
func New(clinicID id.ID, name string) *Doctor {
	return &Doctor{
		Base: entity.NewBase(clinicID),
		Name: name,
	}
}

// Validate implements entity.Validatable.
func (d *Doctor) Validate(ctx context.Context) error {
	if d.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
