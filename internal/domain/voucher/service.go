package voucher

import (
	"context"
	"time"

	"chequedentista/internal/core/appctx"
	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/core/tenant"
	"chequedentista/internal/core/types"
	"chequedentista/internal/domain"
	"chequedentista/pkg/logger"
)

// MaxBatchSize limits how many vouchers one batch request may create.
// Batches share patient, doctor, amount and expiry; only the numbers
// differ.
const MaxBatchSize = 3

// CreateInput describes a single voucher to create.
type CreateInput struct {
	Number     string
	PatientID  id.ID
	DoctorID   id.ID
	Amount     types.Money
	ExpiryDate *time.Time
}

// BatchInput describes a batch creation: shared fields plus one number
// per voucher.
type BatchInput struct {
	Numbers    []string
	PatientID  id.ID
	DoctorID   id.ID
	Amount     types.Money
	ExpiryDate *time.Time
}

// Service is the transition engine: it validates and applies status
// changes, appends the audit record, and owns voucher creation.
type Service struct {
	repo Repository
}

// NewService creates a voucher service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a single voucher in pending_delivery, writing the
// initial history entry (nil previous status) in the same transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Voucher, error) {
	clinicID, err := tenant.ClinicID(ctx)
	if err != nil {
		return nil, apperror.NewUnauthorized("no clinic in session")
	}

	v := New(clinicID, in.Number, in.PatientID, in.DoctorID, in.Amount, in.ExpiryDate)
	v.CreatedBy = appctx.UserID(ctx)

	if err := v.Validate(ctx); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByNumber(ctx, v.Number)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.NewDuplicate("voucher", "number", v.Number)
	}

	initial := NewHistoryEntry(v.ID, nil, v.Status, "", v.CreatedBy)
	if err := s.repo.Create(ctx, v, initial); err != nil {
		return nil, err
	}

	logger.Info(ctx, "voucher created", "id", v.ID, "number", v.Number)
	return v, nil
}

// CreateBatch creates up to MaxBatchSize vouchers sharing patient,
// doctor, amount and expiry. Duplicate numbers within the batch fail
// validation before any row is written; the whole batch is atomic.
func (s *Service) CreateBatch(ctx context.Context, in BatchInput) ([]*Voucher, error) {
	clinicID, err := tenant.ClinicID(ctx)
	if err != nil {
		return nil, apperror.NewUnauthorized("no clinic in session")
	}

	if len(in.Numbers) == 0 {
		return nil, apperror.NewValidation("at least one voucher number is required").
			WithDetail("field", "numbers")
	}
	if len(in.Numbers) > MaxBatchSize {
		return nil, apperror.NewValidation("too many vouchers in one batch").
			WithDetail("field", "numbers").
			WithDetail("max", MaxBatchSize)
	}

	seen := make(map[string]struct{}, len(in.Numbers))
	for _, n := range in.Numbers {
		if n == "" {
			return nil, apperror.NewValidation("voucher number is required").
				WithDetail("field", "numbers")
		}
		if _, dup := seen[n]; dup {
			return nil, apperror.NewValidation("duplicate voucher number in batch").
				WithDetail("field", "numbers").
				WithDetail("number", n)
		}
		seen[n] = struct{}{}
	}

	userID := appctx.UserID(ctx)
	vouchers := make([]*Voucher, 0, len(in.Numbers))
	entries := make([]HistoryEntry, 0, len(in.Numbers))

	for _, n := range in.Numbers {
		v := New(clinicID, n, in.PatientID, in.DoctorID, in.Amount, in.ExpiryDate)
		v.CreatedBy = userID

		if err := v.Validate(ctx); err != nil {
			return nil, err
		}

		exists, err := s.repo.ExistsByNumber(ctx, n)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperror.NewDuplicate("voucher", "number", n)
		}

		vouchers = append(vouchers, v)
		entries = append(entries, NewHistoryEntry(v.ID, nil, v.Status, "", userID))
	}

	if err := s.repo.CreateBatch(ctx, vouchers, entries); err != nil {
		return nil, err
	}

	logger.Info(ctx, "voucher batch created", "count", len(vouchers))
	return vouchers, nil
}

// GetByID retrieves a voucher within the caller's clinic.
func (s *Service) GetByID(ctx context.Context, voucherID id.ID) (*Voucher, error) {
	return s.repo.GetByID(ctx, voucherID)
}

// List retrieves vouchers with filtering and pagination.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Voucher], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// Advance moves a voucher one step along the forward chain.
//
// The caller passes the status it last observed; the target is always
// the registry's single legal next status, never caller-chosen. The
// status write and the audit append happen in one transaction, and the
// write is conditional on the stored status still matching
// expectedCurrent. A stale expectation fails with
// CONCURRENT_MODIFICATION instead of silently overwriting.
func (s *Service) Advance(ctx context.Context, voucherID id.ID, expectedCurrent Status) (*Voucher, error) {
	if !expectedCurrent.Valid() {
		return nil, apperror.NewValidation("unknown voucher status").
			WithDetail("field", "expectedCurrentStatus").
			WithDetail("value", string(expectedCurrent))
	}

	meta := expectedCurrent.Meta()
	if !meta.HasNext {
		return nil, apperror.NewTerminalState("voucher", string(expectedCurrent)).
			WithDetail("voucher_id", voucherID.String())
	}

	entry := NewHistoryEntry(voucherID, &expectedCurrent, meta.Next, "", appctx.UserID(ctx))
	if err := s.repo.UpdateStatus(ctx, voucherID, expectedCurrent, entry, nil); err != nil {
		return nil, err
	}

	logger.Info(ctx, "voucher advanced",
		"id", voucherID,
		"from", expectedCurrent,
		"to", meta.Next)

	return s.repo.GetByID(ctx, voucherID)
}

// Cancel moves a voucher to the cancelled side exit.
//
// Cancellation is permitted from any non-terminal status; cancelled and
// paid_to_doctor refuse it. The cancellation is recorded in the audit
// log like any other transition, with the reason on the entry, so the
// chain contiguity invariant holds across cancellations too.
func (s *Service) Cancel(ctx context.Context, voucherID id.ID, expectedCurrent Status, reason string) (*Voucher, error) {
	if !expectedCurrent.Valid() {
		return nil, apperror.NewValidation("unknown voucher status").
			WithDetail("field", "expectedCurrentStatus").
			WithDetail("value", string(expectedCurrent))
	}

	if !expectedCurrent.Cancellable() {
		return nil, apperror.NewTerminalState("voucher", string(expectedCurrent)).
			WithDetail("voucher_id", voucherID.String())
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	entry := NewHistoryEntry(voucherID, &expectedCurrent, StatusCancelled, reason, appctx.UserID(ctx))
	if err := s.repo.UpdateStatus(ctx, voucherID, expectedCurrent, entry, reasonPtr); err != nil {
		return nil, err
	}

	logger.Info(ctx, "voucher cancelled",
		"id", voucherID,
		"from", expectedCurrent)

	return s.repo.GetByID(ctx, voucherID)
}

// Timeline reconstructs the per-voucher status timeline from the
// append-only history log.
func (s *Service) Timeline(ctx context.Context, voucherID id.ID) ([]TimelineStep, error) {
	v, err := s.repo.GetByID(ctx, voucherID)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.History(ctx, voucherID)
	if err != nil {
		return nil, err
	}

	return BuildTimeline(v, entries), nil
}
