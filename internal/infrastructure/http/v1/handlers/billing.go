package handlers

import (
	"github.com/gin-gonic/gin"

	"chequedentista/internal/domain/billing"
	"chequedentista/internal/infrastructure/http/v1/dto"
)

// BillingHandler handles subscription endpoints for clinic users.
type BillingHandler struct {
	*BaseHandler
	service *billing.Service
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(base *BaseHandler, service *billing.Service) *BillingHandler {
	return &BillingHandler{BaseHandler: base, service: service}
}

// Get handles GET /billing/subscription.
func (h *BillingHandler) Get(c *gin.Context) {
	sub, err := h.service.GetForClinic(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, sub)
}

// Checkout handles POST /billing/checkout.
func (h *BillingHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}

	url, err := h.service.CreateCheckoutSession(c.Request.Context(), req.Plan)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.RedirectResponse{URL: url})
}

// Portal handles POST /billing/portal.
func (h *BillingHandler) Portal(c *gin.Context) {
	url, err := h.service.CreatePortalSession(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.RedirectResponse{URL: url})
}

// Events handles GET /billing/events.
func (h *BillingHandler) Events(c *gin.Context) {
	events, err := h.service.Events(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"events": events})
}
