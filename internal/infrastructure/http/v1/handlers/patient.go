package handlers

import (
	"github.com/gin-gonic/gin"

	"chequedentista/internal/core/tenant"
	"chequedentista/internal/domain"
	"chequedentista/internal/domain/patient"
	"chequedentista/internal/infrastructure/http/v1/dto"
)

// PatientHandler handles HTTP requests for patients.
type PatientHandler struct {
	*BaseHandler
	service *patient.Service
}

// NewPatientHandler creates a new patient handler.
func NewPatientHandler(base *BaseHandler, service *patient.Service) *PatientHandler {
	return &PatientHandler{BaseHandler: base, service: service}
}

// Create handles POST /patients.
func (h *PatientHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreatePatientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := patient.New(tenant.MustClinicID(ctx), req.Name, req.YearOfBirth)
	p.CreatedBy = h.GetUserID(c)

	if err := h.service.Create(ctx, p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p.ID)
}

// List handles GET /patients.
func (h *PatientHandler) List(c *gin.Context) {
	filter := domain.ListFilter{
		Search:         c.Query("search"),
		OrderBy:        c.DefaultQuery("orderBy", "name"),
		Limit:          h.ParseIntQuery(c, "limit", 50),
		Offset:         h.ParseIntQuery(c, "offset", 0),
		IncludeDeleted: c.Query("includeDeleted") == "true",
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromListResult(result))
}

// Get handles GET /patients/:id. The response carries derived voucher
// counts alongside the patient.
func (h *PatientHandler) Get(c *gin.Context) {
	patientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), patientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// Update handles PUT /patients/:id.
func (h *PatientHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	patientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePatientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, patientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	p := &existing.Patient
	p.Version = req.Version
	p.UpdatedBy = h.GetUserID(c)
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.YearOfBirth != nil {
		p.YearOfBirth = *req.YearOfBirth
	}

	if err := h.service.Update(ctx, p); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// Delete handles DELETE /patients/:id (soft delete).
func (h *PatientHandler) Delete(c *gin.Context) {
	patientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), patientID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
