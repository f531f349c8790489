package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/domain"
	"chequedentista/internal/domain/ticket"
	"chequedentista/internal/infrastructure/http/v1/dto"
)

// TicketHandler handles HTTP requests for support tickets.
type TicketHandler struct {
	*BaseHandler
	service *ticket.Service
}

// NewTicketHandler creates a new ticket handler.
func NewTicketHandler(base *BaseHandler, service *ticket.Service) *TicketHandler {
	return &TicketHandler{BaseHandler: base, service: service}
}

// Create handles POST /tickets.
func (h *TicketHandler) Create(c *gin.Context) {
	var req dto.CreateTicketRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.service.Create(c.Request.Context(), req.Subject, req.Body, ticket.Priority(req.Priority))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, t)
}

// List handles GET /tickets.
func (h *TicketHandler) List(c *gin.Context) {
	filter := ticket.ListFilter{
		ListFilter: domain.ListFilter{
			Search:         c.Query("search"),
			OrderBy:        c.DefaultQuery("orderBy", "-created_at"),
			Limit:          h.ParseIntQuery(c, "limit", 50),
			Offset:         h.ParseIntQuery(c, "offset", 0),
			IncludeDeleted: c.Query("includeDeleted") == "true",
		},
	}

	if s := c.Query("status"); s != "" {
		status := ticket.Status(s)
		if !status.Valid() {
			h.Error(c, apperror.NewValidation("unknown ticket status").WithDetail("status", s))
			return
		}
		filter.Status = &status
	}
	if s := c.Query("priority"); s != "" {
		priority := ticket.Priority(s)
		filter.Priority = &priority
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromListResult(result))
}

// Get handles GET /tickets/:id.
func (h *TicketHandler) Get(c *gin.Context) {
	ticketID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	t, err := h.service.GetByID(c.Request.Context(), ticketID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, t)
}

// History handles GET /tickets/:id/history.
func (h *TicketHandler) History(c *gin.Context) {
	ticketID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	entries, err := h.service.History(c.Request.Context(), ticketID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"entries": entries})
}

// Transition handles POST /tickets/:id/transition.
func (h *TicketHandler) Transition(c *gin.Context) {
	ticketID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.TicketTransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	current := ticket.Status(req.CurrentStatus)
	to := ticket.Status(req.To)
	if !current.Valid() || !to.Valid() {
		h.Error(c, apperror.NewValidation("unknown ticket status"))
		return
	}

	t, err := h.service.Transition(c.Request.Context(), ticketID, current, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, t)
}

// Reopen handles POST /tickets/:id/reopen.
func (h *TicketHandler) Reopen(c *gin.Context) {
	ticketID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	t, err := h.service.Reopen(c.Request.Context(), ticketID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, t)
}
