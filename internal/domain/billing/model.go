// Package billing tracks clinic subscriptions driven by the payment
// processor. The processor is the source of truth; this package
// persists its asynchronous events into a Subscription row plus an
// append-only event log, mirroring the voucher audit trail.
package billing

import (
	"time"

	"chequedentista/internal/core/id"
)

// SubscriptionStatus mirrors the processor's subscription states.
type SubscriptionStatus string

const (
	StatusTrialing SubscriptionStatus = "trialing"
	StatusActive   SubscriptionStatus = "active"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
)

// Valid reports whether s is a known subscription status.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusTrialing, StatusActive, StatusPastDue, StatusCanceled:
		return true
	}
	return false
}

// Subscription is one clinic's billing state.
type Subscription struct {
	ID       id.ID `db:"id" json:"id"`
	ClinicID id.ID `db:"clinic_id" json:"clinicId"`

	// ExternalID is the processor's subscription id; the unique key
	// that makes event delivery idempotent.
	ExternalID string `db:"external_id" json:"externalId"`

	// ExternalCustomerID is the processor's customer id for the clinic.
	ExternalCustomerID string `db:"external_customer_id" json:"externalCustomerId"`

	Plan   string             `db:"plan" json:"plan"`
	Status SubscriptionStatus `db:"status" json:"status"`

	CurrentPeriodEnd *time.Time `db:"current_period_end" json:"currentPeriodEnd,omitempty"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// SubscriptionEvent is one append-only record of a processor event.
// ExternalEventID is unique: a redelivered event inserts nothing.
type SubscriptionEvent struct {
	ID id.ID `db:"id" json:"id"`

	// ExternalEventID is the processor's event id (idempotency key).
	ExternalEventID string `db:"external_event_id" json:"externalEventId"`

	// ExternalSubscriptionID ties the event to a subscription without
	// requiring the subscription row to exist first.
	ExternalSubscriptionID string `db:"external_subscription_id" json:"externalSubscriptionId"`

	PreviousStatus *SubscriptionStatus `db:"previous_status" json:"previousStatus,omitempty"`
	NewStatus      SubscriptionStatus  `db:"new_status" json:"newStatus"`

	Reason string `db:"reason" json:"reason,omitempty"`

	// Payload is the raw processor event body, zstd-compressed at rest.
	Payload []byte `db:"payload" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Event is a processor event normalized by the webhook handler, decoupled
// from the processor SDK's types.
type Event struct {
	ExternalEventID        string
	Type                   string
	ExternalSubscriptionID string
	ExternalCustomerID     string

	// ClinicID comes from the checkout session metadata set when the
	// session was created.
	ClinicID id.ID

	Plan             string
	Status           SubscriptionStatus
	CurrentPeriodEnd *time.Time

	RawPayload []byte
}
