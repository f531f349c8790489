package dto

import (
	"time"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/core/types"
	"chequedentista/internal/domain/voucher"
)

// CreateVoucherRequest creates one voucher.
type CreateVoucherRequest struct {
	Number     string     `json:"number" binding:"required"`
	PatientID  string     `json:"patientId" binding:"required"`
	DoctorID   string     `json:"doctorId" binding:"required"`
	Amount     string     `json:"amount" binding:"required"`
	ExpiryDate *time.Time `json:"expiryDate"`
}

// ToInput converts the request, validating id and amount formats.
func (r CreateVoucherRequest) ToInput() (voucher.CreateInput, error) {
	patientID, err := id.Parse(r.PatientID)
	if err != nil {
		return voucher.CreateInput{}, apperror.NewValidation("invalid patientId format")
	}
	doctorID, err := id.Parse(r.DoctorID)
	if err != nil {
		return voucher.CreateInput{}, apperror.NewValidation("invalid doctorId format")
	}
	amount, err := types.NewMoneyFromString(r.Amount)
	if err != nil {
		return voucher.CreateInput{}, apperror.NewValidation("invalid amount format")
	}

	return voucher.CreateInput{
		Number:     r.Number,
		PatientID:  patientID,
		DoctorID:   doctorID,
		Amount:     amount,
		ExpiryDate: r.ExpiryDate,
	}, nil
}

// CreateVoucherBatchRequest creates up to three vouchers sharing
// patient, doctor, amount and expiry.
type CreateVoucherBatchRequest struct {
	Numbers    []string   `json:"numbers" binding:"required,min=1"`
	PatientID  string     `json:"patientId" binding:"required"`
	DoctorID   string     `json:"doctorId" binding:"required"`
	Amount     string     `json:"amount" binding:"required"`
	ExpiryDate *time.Time `json:"expiryDate"`
}

// ToInput converts the batch request.
func (r CreateVoucherBatchRequest) ToInput() (voucher.BatchInput, error) {
	single := CreateVoucherRequest{
		Number:     "batch",
		PatientID:  r.PatientID,
		DoctorID:   r.DoctorID,
		Amount:     r.Amount,
		ExpiryDate: r.ExpiryDate,
	}
	in, err := single.ToInput()
	if err != nil {
		return voucher.BatchInput{}, err
	}

	return voucher.BatchInput{
		Numbers:    r.Numbers,
		PatientID:  in.PatientID,
		DoctorID:   in.DoctorID,
		Amount:     in.Amount,
		ExpiryDate: in.ExpiryDate,
	}, nil
}

// TransitionRequest names the status the caller believes the voucher is
// in. A stale value is rejected rather than silently re-resolved.
type TransitionRequest struct {
	CurrentStatus string `json:"currentStatus" binding:"required"`
}

// CancelVoucherRequest cancels a voucher. The reason is optional.
type CancelVoucherRequest struct {
	CurrentStatus string `json:"currentStatus" binding:"required"`
	Reason        string `json:"reason"`
}
