package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chequedentista/internal/domain/clinic"
	"chequedentista/internal/infrastructure/http/v1/dto"
)

// OnboardingHandler handles clinic self-service registration.
type OnboardingHandler struct {
	*BaseHandler
	service *clinic.Service
}

// NewOnboardingHandler creates a new onboarding handler.
func NewOnboardingHandler(base *BaseHandler, service *clinic.Service) *OnboardingHandler {
	return &OnboardingHandler{BaseHandler: base, service: service}
}

// Onboard handles POST /onboarding/clinics. Runs after Auth but before
// ClinicScope: the caller has an identity and no clinic yet.
func (h *OnboardingHandler) Onboard(c *gin.Context) {
	var req dto.OnboardClinicRequest
	if !h.BindJSON(c, &req) {
		return
	}

	created, err := h.service.Onboard(c.Request.Context(), h.GetUserID(c), clinic.OnboardInput{
		ClinicName: req.ClinicName,
		Email:      req.Email,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}
