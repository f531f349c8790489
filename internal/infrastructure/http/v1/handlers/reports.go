package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/domain/reports"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

// DoctorMetrics handles GET /reports/doctor-metrics.
func (h *ReportsHandler) DoctorMetrics(c *gin.Context) {
	var filter reports.DoctorMetricsFilter

	if s := c.Query("doctorId"); s != "" {
		doctorID, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid doctorId format"))
			return
		}
		filter.DoctorID = &doctorID
	}
	if s := c.Query("from"); s != "" {
		from, err := time.Parse(time.RFC3339, s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid from date, expected RFC3339"))
			return
		}
		filter.From = &from
	}
	if s := c.Query("to"); s != "" {
		to, err := time.Parse(time.RFC3339, s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid to date, expected RFC3339"))
			return
		}
		filter.To = &to
	}

	report, err := h.service.DoctorMetrics(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// StatusDistribution handles GET /reports/status-distribution.
func (h *ReportsHandler) StatusDistribution(c *gin.Context) {
	report, err := h.service.StatusDistribution(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// ExpiringVouchers handles GET /reports/expiring.
func (h *ReportsHandler) ExpiringVouchers(c *gin.Context) {
	horizonDays := h.ParseIntQuery(c, "horizonDays", 30)
	if horizonDays <= 0 {
		h.Error(c, apperror.NewValidation("horizonDays must be positive"))
		return
	}

	report, err := h.service.ExpiringVouchers(c.Request.Context(), horizonDays)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// ExportVouchers handles GET /reports/vouchers/export. Streams an xlsx
// workbook with the clinic's full voucher set.
func (h *ReportsHandler) ExportVouchers(c *gin.Context) {
	data, err := h.service.ExportVouchers(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	filename := fmt.Sprintf("cheques-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
