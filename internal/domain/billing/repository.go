package billing

import (
	"context"

	"chequedentista/internal/core/id"
)

// Repository defines billing persistence.
//
// Unlike the rest of the store, webhook-driven operations are keyed by
// the processor's external ids rather than the request clinic: webhook
// requests carry no user session. Clinic-facing reads stay clinic-keyed.
type Repository interface {
	// RecordEvent appends the event exactly once, keyed by its external
	// event id. Returns false (and no error) when the event was already
	// recorded, which makes redelivery a no-op.
	RecordEvent(ctx context.Context, ev SubscriptionEvent) (bool, error)

	// GetByExternalID retrieves a subscription by the processor's
	// subscription id.
	GetByExternalID(ctx context.Context, externalID string) (*Subscription, error)

	// GetByClinic retrieves the clinic's subscription.
	GetByClinic(ctx context.Context, clinicID id.ID) (*Subscription, error)

	// Create inserts a subscription row.
	Create(ctx context.Context, sub *Subscription) error

	// UpdateStatus writes the new status and period end.
	UpdateStatus(ctx context.Context, sub *Subscription) error

	// Events returns the event log for a subscription, ordered by
	// CreatedAt ascending.
	Events(ctx context.Context, externalSubscriptionID string) ([]SubscriptionEvent, error)
}

// Gateway abstracts the hosted payment processor. The concrete
// implementation lives in infrastructure/payments.
type Gateway interface {
	// CreateCheckoutSession starts a hosted checkout for a plan and
	// returns the redirect URL. The clinic id travels in the session
	// metadata and comes back on the completion event.
	CreateCheckoutSession(ctx context.Context, clinicID id.ID, plan string) (string, error)

	// CreatePortalSession starts a hosted billing portal session for an
	// existing customer and returns the redirect URL.
	CreatePortalSession(ctx context.Context, customerID string) (string, error)
}
