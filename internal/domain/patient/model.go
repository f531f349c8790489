// Package patient provides the clinic's patient registry.
package patient

import (
	"context"
	"time"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/entity"
	"chequedentista/internal/core/id"
)

// Patient is a person the clinic holds vouchers for.
type Patient struct {
	entity.Base

	Name        string `db:"name" json:"name"`
	YearOfBirth int    `db:"year_of_birth" json:"yearOfBirth"`
}

// VoucherSummary is derived from the patient's vouchers on every read;
// it is never stored.
type VoucherSummary struct {
	// Received counts vouchers at or beyond the received milestone.
	Received int `json:"received"`

	// Used counts vouchers at or beyond the used milestone.
	Used int `json:"used"`

	// Available counts vouchers received but not yet used.
	Available int `json:"available"`
}

// WithSummary pairs a patient with its derived voucher counts.
type WithSummary struct {
	Patient
	Vouchers VoucherSummary `json:"vouchers"`
}

// New creates a patient for a clinic.
func New(clinicID id.ID, name string, yearOfBirth int) *Patient {
	return &Patient{
		Base:        entity.NewBase(clinicID),
		Name:        name,
		YearOfBirth: yearOfBirth,
	}
}

// Validate implements entity.Validatable.
func (p *Patient) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	year := time.Now().UTC().Year()
	if p.YearOfBirth < 1900 || p.YearOfBirth > year {
		return apperror.NewValidation("year of birth is out of range").
			WithDetail("field", "yearOfBirth").
			WithDetail("value", p.YearOfBirth)
	}

	return nil
}
