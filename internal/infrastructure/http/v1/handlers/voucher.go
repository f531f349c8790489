package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/domain"
	"chequedentista/internal/domain/voucher"
	"chequedentista/internal/infrastructure/http/v1/dto"
)

// VoucherHandler handles HTTP requests for vouchers.
type VoucherHandler struct {
	*BaseHandler
	service *voucher.Service
}

// NewVoucherHandler creates a new voucher handler.
func NewVoucherHandler(base *BaseHandler, service *voucher.Service) *VoucherHandler {
	return &VoucherHandler{BaseHandler: base, service: service}
}

// Create handles POST /vouchers.
func (h *VoucherHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateVoucherRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	v, err := h.service.Create(ctx, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, v)
}

// CreateBatch handles POST /vouchers/batch.
func (h *VoucherHandler) CreateBatch(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateVoucherBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	vouchers, err := h.service.CreateBatch(ctx, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"items": vouchers})
}

// List handles GET /vouchers.
func (h *VoucherHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := voucher.ListFilter{
		ListFilter: domain.ListFilter{
			Search:         c.Query("search"),
			OrderBy:        c.DefaultQuery("orderBy", "-created_at"),
			Limit:          h.ParseIntQuery(c, "limit", 50),
			Offset:         h.ParseIntQuery(c, "offset", 0),
			IncludeDeleted: c.Query("includeDeleted") == "true",
		},
	}

	if s := c.Query("patientId"); s != "" {
		patientID, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid patientId format"))
			return
		}
		filter.PatientID = &patientID
	}
	if s := c.Query("doctorId"); s != "" {
		doctorID, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid doctorId format"))
			return
		}
		filter.DoctorID = &doctorID
	}
	if s := c.Query("status"); s != "" {
		status, err := voucher.ParseStatus(s)
		if err != nil {
			h.Error(c, err)
			return
		}
		filter.Status = &status
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromListResult(result))
}

// Get handles GET /vouchers/:id.
func (h *VoucherHandler) Get(c *gin.Context) {
	voucherID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	v, err := h.service.GetByID(c.Request.Context(), voucherID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, v)
}

// Advance handles POST /vouchers/:id/advance. The request names the
// status the caller believes is current; the next stage comes from the
// chain, never from the client.
func (h *VoucherHandler) Advance(c *gin.Context) {
	voucherID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	current, err := voucher.ParseStatus(req.CurrentStatus)
	if err != nil {
		h.Error(c, err)
		return
	}

	v, err := h.service.Advance(c.Request.Context(), voucherID, current)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, v)
}

// Cancel handles POST /vouchers/:id/cancel.
func (h *VoucherHandler) Cancel(c *gin.Context) {
	voucherID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CancelVoucherRequest
	if !h.BindJSON(c, &req) {
		return
	}

	current, err := voucher.ParseStatus(req.CurrentStatus)
	if err != nil {
		h.Error(c, err)
		return
	}

	v, err := h.service.Cancel(c.Request.Context(), voucherID, current, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, v)
}

// Timeline handles GET /vouchers/:id/timeline.
func (h *VoucherHandler) Timeline(c *gin.Context) {
	voucherID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	steps, err := h.service.Timeline(c.Request.Context(), voucherID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"steps": steps})
}
