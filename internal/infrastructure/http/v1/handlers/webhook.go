package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"chequedentista/internal/core/id"
	"chequedentista/internal/domain/billing"
	"chequedentista/internal/infrastructure/payments"
	"chequedentista/pkg/logger"
)

// Stripe guarantees signed payloads stay below this.
const maxWebhookBody = 65536

// WebhookHandler consumes Stripe events. The route carries no auth
// middleware; authenticity comes from the payload signature.
type WebhookHandler struct {
	*BaseHandler
	service       *billing.Service
	webhookSecret string
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(base *BaseHandler, service *billing.Service, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{BaseHandler: base, service: service, webhookSecret: webhookSecret}
}

// Handle processes POST /billing/webhook. Unhandled event types get a
// 200 so Stripe stops redelivering them; processing failures get a 500
// so it retries. Idempotent recording makes the retries safe.
func (h *WebhookHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		logger.Warn(ctx, "webhook signature verification failed", "error", err)
		c.Status(http.StatusBadRequest)
		return
	}

	ev, ok, err := h.normalize(event)
	if err != nil {
		logger.Error(ctx, "webhook payload malformed",
			"event_id", event.ID,
			"type", string(event.Type),
			"error", err)
		c.Status(http.StatusBadRequest)
		return
	}
	if !ok {
		c.Status(http.StatusOK)
		return
	}
	ev.RawPayload = payload

	if err := h.service.ApplyEvent(ctx, ev); err != nil {
		logger.Error(ctx, "webhook processing failed",
			"event_id", event.ID,
			"type", string(event.Type),
			"error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusOK)
}

// normalize maps a Stripe event onto the billing domain event. Returns
// ok=false for event types this service does not track.
func (h *WebhookHandler) normalize(event stripe.Event) (billing.Event, bool, error) {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return billing.Event{}, false, err
		}
		if session.Subscription == nil {
			// One-time payment checkout, not a subscription.
			return billing.Event{}, false, nil
		}

		ev := billing.Event{
			ExternalEventID:        event.ID,
			Type:                   billing.EventCheckoutCompleted,
			ExternalSubscriptionID: session.Subscription.ID,
			Status:                 billing.StatusActive,
		}
		if session.Customer != nil {
			ev.ExternalCustomerID = session.Customer.ID
		}
		if raw, ok := session.Metadata[payments.MetadataClinicID]; ok {
			clinicID, err := id.Parse(raw)
			if err != nil {
				return billing.Event{}, false, err
			}
			ev.ClinicID = clinicID
		}
		return ev, true, nil

	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return billing.Event{}, false, err
		}

		evType := billing.EventSubscriptionUpdated
		status := mapSubscriptionStatus(sub.Status)
		switch event.Type {
		case "customer.subscription.created":
			evType = billing.EventSubscriptionCreated
		case "customer.subscription.deleted":
			evType = billing.EventSubscriptionDeleted
			status = billing.StatusCanceled
		}

		ev := billing.Event{
			ExternalEventID:        event.ID,
			Type:                   evType,
			ExternalSubscriptionID: sub.ID,
			Status:                 status,
		}
		if sub.Customer != nil {
			ev.ExternalCustomerID = sub.Customer.ID
		}
		if sub.CurrentPeriodEnd > 0 {
			end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
			ev.CurrentPeriodEnd = &end
		}
		if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			ev.Plan = sub.Items.Data[0].Price.ID
		}
		if raw, ok := sub.Metadata[payments.MetadataClinicID]; ok {
			if clinicID, err := id.Parse(raw); err == nil {
				ev.ClinicID = clinicID
			}
		}
		return ev, true, nil

	case "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return billing.Event{}, false, err
		}
		if invoice.Subscription == nil {
			return billing.Event{}, false, nil
		}

		return billing.Event{
			ExternalEventID:        event.ID,
			Type:                   billing.EventPaymentFailed,
			ExternalSubscriptionID: invoice.Subscription.ID,
			Status:                 billing.StatusPastDue,
		}, true, nil

	default:
		return billing.Event{}, false, nil
	}
}

func mapSubscriptionStatus(s stripe.SubscriptionStatus) billing.SubscriptionStatus {
	switch s {
	case stripe.SubscriptionStatusTrialing:
		return billing.StatusTrialing
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return billing.StatusPastDue
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return billing.StatusCanceled
	default:
		return billing.StatusActive
	}
}
