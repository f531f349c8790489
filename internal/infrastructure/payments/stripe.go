// Package payments implements the billing gateway against Stripe's
// hosted surfaces. The service never sees card data; it only creates
// redirect sessions and consumes webhooks.
package payments

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	portalsession "github.com/stripe/stripe-go/v76/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"

	"chequedentista/internal/config"
	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/domain/billing"
	"chequedentista/pkg/logger"
)

// Metadata key carrying the clinic id through checkout. It comes back
// on checkout.session.completed and ties the subscription to a tenant.
const MetadataClinicID = "clinic_id"

var _ billing.Gateway = (*StripeGateway)(nil)

// StripeGateway creates hosted checkout and portal sessions.
type StripeGateway struct {
	cfg config.StripeConfig
}

// NewStripeGateway configures the Stripe client.
func NewStripeGateway(cfg config.StripeConfig) *StripeGateway {
	stripe.Key = cfg.APIKey
	return &StripeGateway{cfg: cfg}
}

// CreateCheckoutSession starts a subscription checkout. The plan names
// a Stripe price id.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, clinicID id.ID, plan string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(plan),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(g.cfg.SuccessURL),
		CancelURL:  stripe.String(g.cfg.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{MetadataClinicID: clinicID.String()},
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataClinicID, clinicID.String())

	sess, err := checkoutsession.New(params)
	if err != nil {
		logger.Error(ctx, "stripe checkout session failed", "error", err)
		return "", apperror.NewExternalService("stripe", err)
	}
	return sess.URL, nil
}

// CreatePortalSession starts a billing portal session for an existing
// customer.
func (g *StripeGateway) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(g.cfg.PortalURL),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		logger.Error(ctx, "stripe portal session failed", "error", err)
		return "", apperror.NewExternalService("stripe", err)
	}
	return sess.URL, nil
}
