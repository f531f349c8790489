package billing

import (
	"context"
	"time"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/core/tenant"
	"chequedentista/internal/core/tx"
	"chequedentista/pkg/logger"
)

// Event types the service understands. They are normalized names the
// webhook handler maps the processor's own types onto.
const (
	EventCheckoutCompleted   = "checkout.completed"
	EventSubscriptionCreated = "subscription.created"
	EventSubscriptionUpdated = "subscription.updated"
	EventSubscriptionDeleted = "subscription.deleted"
	EventPaymentFailed       = "payment.failed"
)

// Service applies processor events to the subscription store and
// creates hosted checkout/portal sessions.
type Service struct {
	repo    Repository
	gateway Gateway
	txm     tx.Manager
}

// NewService creates a billing service.
func NewService(repo Repository, gateway Gateway, txm tx.Manager) *Service {
	return &Service{repo: repo, gateway: gateway, txm: txm}
}

// ApplyEvent persists one processor event. It is idempotent on two
// levels: the event log refuses a second insert of the same external
// event id, and subscription creation refuses a second row for the same
// external subscription id. Redelivered events are recorded no-ops, so
// the processor may retry safely after a non-2xx response.
func (s *Service) ApplyEvent(ctx context.Context, ev Event) error {
	if ev.ExternalEventID == "" || ev.ExternalSubscriptionID == "" {
		return apperror.NewValidation("event is missing external identifiers").
			WithDetail("event_id", ev.ExternalEventID).
			WithDetail("subscription_id", ev.ExternalSubscriptionID)
	}
	if !ev.Status.Valid() {
		return apperror.NewValidation("unknown subscription status").
			WithDetail("value", string(ev.Status))
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByExternalID(ctx, ev.ExternalSubscriptionID)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}

		row := SubscriptionEvent{
			ID:                     id.New(),
			ExternalEventID:        ev.ExternalEventID,
			ExternalSubscriptionID: ev.ExternalSubscriptionID,
			NewStatus:              ev.Status,
			Reason:                 ev.Type,
			Payload:                ev.RawPayload,
			CreatedAt:              time.Now().UTC(),
		}
		if existing != nil {
			prev := existing.Status
			row.PreviousStatus = &prev
		}

		recorded, err := s.repo.RecordEvent(ctx, row)
		if err != nil {
			return err
		}
		if !recorded {
			logger.Info(ctx, "duplicate billing event ignored",
				"event_id", ev.ExternalEventID,
				"type", ev.Type)
			return nil
		}

		if existing == nil {
			if id.IsNil(ev.ClinicID) {
				return apperror.NewValidation("event for unknown subscription carries no clinic").
					WithDetail("event_id", ev.ExternalEventID)
			}
			sub := &Subscription{
				ID:                 id.New(),
				ClinicID:           ev.ClinicID,
				ExternalID:         ev.ExternalSubscriptionID,
				ExternalCustomerID: ev.ExternalCustomerID,
				Plan:               ev.Plan,
				Status:             ev.Status,
				CurrentPeriodEnd:   ev.CurrentPeriodEnd,
				Version:            1,
				CreatedAt:          time.Now().UTC(),
				UpdatedAt:          time.Now().UTC(),
			}
			if err := s.repo.Create(ctx, sub); err != nil {
				return err
			}
			logger.Info(ctx, "subscription created",
				"clinic_id", sub.ClinicID,
				"external_id", sub.ExternalID,
				"status", sub.Status)
			return nil
		}

		existing.Status = ev.Status
		if ev.CurrentPeriodEnd != nil {
			existing.CurrentPeriodEnd = ev.CurrentPeriodEnd
		}
		if ev.Plan != "" {
			existing.Plan = ev.Plan
		}
		existing.UpdatedAt = time.Now().UTC()

		if err := s.repo.UpdateStatus(ctx, existing); err != nil {
			return err
		}

		logger.Info(ctx, "subscription updated",
			"external_id", existing.ExternalID,
			"status", existing.Status,
			"event_type", ev.Type)
		return nil
	})
}

// GetForClinic returns the caller's subscription.
func (s *Service) GetForClinic(ctx context.Context) (*Subscription, error) {
	clinicID, err := tenant.ClinicID(ctx)
	if err != nil {
		return nil, apperror.NewUnauthorized("no clinic in session")
	}
	return s.repo.GetByClinic(ctx, clinicID)
}

// CreateCheckoutSession starts a hosted checkout for the caller's
// clinic and returns the redirect URL.
func (s *Service) CreateCheckoutSession(ctx context.Context, plan string) (string, error) {
	clinicID, err := tenant.ClinicID(ctx)
	if err != nil {
		return "", apperror.NewUnauthorized("no clinic in session")
	}

	if plan == "" {
		return "", apperror.NewValidation("plan is required").
			WithDetail("field", "plan")
	}

	url, err := s.gateway.CreateCheckoutSession(ctx, clinicID, plan)
	if err != nil {
		return "", apperror.NewExternalService("payments", err)
	}
	return url, nil
}

// CreatePortalSession starts a hosted billing portal session for the
// caller's clinic and returns the redirect URL.
func (s *Service) CreatePortalSession(ctx context.Context) (string, error) {
	sub, err := s.GetForClinic(ctx)
	if err != nil {
		return "", err
	}

	url, err := s.gateway.CreatePortalSession(ctx, sub.ExternalCustomerID)
	if err != nil {
		return "", apperror.NewExternalService("payments", err)
	}
	return url, nil
}

// Events returns the event log for the caller's subscription.
func (s *Service) Events(ctx context.Context) ([]SubscriptionEvent, error) {
	sub, err := s.GetForClinic(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.Events(ctx, sub.ExternalID)
}
