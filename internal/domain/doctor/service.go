package doctor

import (
	"context"

	"chequedentista/internal/core/appctx"
	"chequedentista/internal/core/id"
	"chequedentista/internal/domain"
	"chequedentista/pkg/logger"
)

// Service provides doctor operations.
type Service struct {
	repo Repository
}

// NewService creates a doctor service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new doctor.
func (s *Service) Create(ctx context.Context, d *Doctor) error {
	d.CreatedBy = appctx.UserID(ctx)

	if err := d.Validate(ctx); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return err
	}

	logger.Info(ctx, "doctor created", "id", d.ID)
	return nil
}

// GetByID retrieves a doctor with derived financial totals.
func (s *Service) GetByID(ctx context.Context, doctorID id.ID) (*WithSummary, error) {
	d, err := s.repo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	summary, err := s.repo.FinancialSummary(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	return &WithSummary{Doctor: *d, Financials: summary}, nil
}

// Update modifies a doctor with optimistic locking.
func (s *Service) Update(ctx context.Context, d *Doctor) error {
	d.UpdatedBy = appctx.UserID(ctx)

	if err := d.Validate(ctx); err != nil {
		return err
	}

	return s.repo.Update(ctx, d)
}

// Delete soft-deletes a doctor.
func (s *Service) Delete(ctx context.Context, doctorID id.ID) error {
	return s.repo.Delete(ctx, doctorID)
}

// List retrieves doctors with filtering and pagination.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Doctor], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}
