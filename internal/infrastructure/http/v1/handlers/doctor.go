package handlers

import (
	"github.com/gin-gonic/gin"

	"chequedentista/internal/core/tenant"
	"chequedentista/internal/domain"
	"chequedentista/internal/domain/doctor"
	"chequedentista/internal/infrastructure/http/v1/dto"
)

// DoctorHandler handles HTTP requests for doctors.
type DoctorHandler struct {
	*BaseHandler
	service *doctor.Service
}

// NewDoctorHandler creates a new doctor handler.
func NewDoctorHandler(base *BaseHandler, service *doctor.Service) *DoctorHandler {
	return &DoctorHandler{BaseHandler: base, service: service}
}

// Create handles POST /doctors.
func (h *DoctorHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateDoctorRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d := doctor.New(tenant.MustClinicID(ctx), req.Name)
	d.CreatedBy = h.GetUserID(c)

	if err := h.service.Create(ctx, d); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, d.ID)
}

// List handles GET /doctors.
func (h *DoctorHandler) List(c *gin.Context) {
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

// Get handles GET /doctors/:id. The response carries cumulative
// financial totals alongside the doctor.
func (h *DoctorHandler) Get(c *gin.Context) {
	doctorID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	d, err := h.service.GetByID(c.Request.Context(), doctorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, d)
}

// Update handles PUT /doctors/:id.
func (h *DoctorHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	doctorID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateDoctorRequest
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, doctorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	d := &existing.Doctor
	d.Version = req.Version
	d.UpdatedBy = h.GetUserID(c)
	if req.Name != nil {
		d.Name = *req.Name
	}

	if err := h.service.Update(ctx, d); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, d)
}

// Delete handles DELETE /doctors/:id (soft delete).
func (h *DoctorHandler) Delete(c *gin.Context) {
	doctorID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), doctorID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
