package patient

import (
	"context"

	"chequedentista/internal/core/appctx"
	"chequedentista/internal/core/id"
	"chequedentista/internal/domain"
	"chequedentista/pkg/logger"
)

// Service provides patient operations.
type Service struct {
	repo Repository
}

// NewService creates a patient service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new patient.
func (s *Service) Create(ctx context.Context, p *Patient) error {
	p.CreatedBy = appctx.UserID(ctx)

	if err := p.Validate(ctx); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}

	logger.Info(ctx, "patient created", "id", p.ID)
	return nil
}

// GetByID retrieves a patient with derived voucher counts.
func (s *Service) GetByID(ctx context.Context, patientID id.ID) (*WithSummary, error) {
	p, err := s.repo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	summary, err := s.repo.VoucherSummary(ctx, patientID)
	if err != nil {
		return nil, err
	}

	return &WithSummary{Patient: *p, Vouchers: summary}, nil
}

// Update modifies a patient with optimistic locking.
func (s *Service) Update(ctx context.Context, p *Patient) error {
	p.UpdatedBy = appctx.UserID(ctx)

	if err := p.Validate(ctx); err != nil {
		return err
	}

	return s.repo.Update(ctx, p)
}

// Delete soft-deletes a patient.
func (s *Service) Delete(ctx context.Context, patientID id.ID) error {
	return s.repo.Delete(ctx, patientID)
}

// List retrieves patients with filtering and pagination.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Patient], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}
