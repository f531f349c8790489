package ticket

import (
	"context"
	"time"

	"chequedentista/internal/core/appctx"
	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/core/tenant"
	"chequedentista/internal/domain"
	"chequedentista/pkg/logger"
)

// Service provides support ticket operations.
type Service struct {
	repo Repository
}

// NewService creates a ticket service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create opens a new ticket with its initial history entry.
func (s *Service) Create(ctx context.Context, subject, body string, priority Priority) (*Ticket, error) {
	clinicID, err := tenant.ClinicID(ctx)
	if err != nil {
		return nil, apperror.NewUnauthorized("no clinic in session")
	}

	t := New(clinicID, subject, body, priority)
	t.CreatedBy = appctx.UserID(ctx)

	if err := t.Validate(ctx); err != nil {
		return nil, err
	}

	initial := HistoryEntry{
		ID:        id.New(),
		TicketID:  t.ID,
		NewStatus: t.Status,
		ChangedBy: t.CreatedBy,
		ChangedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, t, initial); err != nil {
		return nil, err
	}

	logger.Info(ctx, "ticket created", "id", t.ID, "priority", t.Priority)
	return t, nil
}

// GetByID retrieves a ticket within the caller's clinic.
func (s *Service) GetByID(ctx context.Context, ticketID id.ID) (*Ticket, error) {
	return s.repo.GetByID(ctx, ticketID)
}

// List retrieves tickets with filtering and pagination.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Ticket], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// History returns the ticket's status log.
func (s *Service) History(ctx context.Context, ticketID id.ID) ([]HistoryEntry, error) {
	return s.repo.History(ctx, ticketID)
}

// Transition moves a ticket to a new status. Unlike vouchers, the
// caller names the target, because several moves can be legal from one
// state; the transition table decides legality. The write is
// conditional on the status the caller last observed.
func (s *Service) Transition(ctx context.Context, ticketID id.ID, expectedCurrent, to Status) (*Ticket, error) {
	if !expectedCurrent.Valid() || !to.Valid() {
		return nil, apperror.NewValidation("unknown ticket status").
			WithDetail("from", string(expectedCurrent)).
			WithDetail("to", string(to))
	}

	if !CanTransition(expectedCurrent, to) {
		return nil, apperror.NewInvalidTransition("ticket", string(expectedCurrent), string(to)).
			WithDetail("ticket_id", ticketID.String())
	}

	entry := HistoryEntry{
		ID:             id.New(),
		TicketID:       ticketID,
		PreviousStatus: &expectedCurrent,
		NewStatus:      to,
		ChangedBy:      appctx.UserID(ctx),
		ChangedAt:      time.Now().UTC(),
	}

	if err := s.repo.UpdateStatus(ctx, ticketID, expectedCurrent, entry); err != nil {
		return nil, err
	}

	logger.Info(ctx, "ticket transitioned",
		"id", ticketID,
		"from", expectedCurrent,
		"to", to)

	return s.repo.GetByID(ctx, ticketID)
}

// Reopen moves a resolved ticket back to open.
func (s *Service) Reopen(ctx context.Context, ticketID id.ID) (*Ticket, error) {
	return s.Transition(ctx, ticketID, StatusResolved, StatusOpen)
}
