// Package ticket provides the support ticket system. Tickets share the
// clinic scope with the rest of the application but their lifecycle is
// an independent state machine, not coupled to vouchers.
package ticket

import (
	"context"
	"time"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/entity"
	"chequedentista/internal/core/id"
)

// Status is a ticket lifecycle state.
type Status string

const (
	StatusOpen            Status = "open"
	StatusInProgress      Status = "in_progress"
	StatusWaitingCustomer Status = "waiting_customer"
	StatusResolved        Status = "resolved"
	StatusClosed          Status = "closed"
)

// Priority of a support ticket.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// allowedTransitions enumerates the legal moves. Unlike the voucher
// chain, tickets may be resolved from several states and reopened from
// resolved.
var allowedTransitions = map[Status][]Status{
	StatusOpen:            {StatusInProgress, StatusResolved},
	StatusInProgress:      {StatusWaitingCustomer, StatusResolved},
	StatusWaitingCustomer: {StatusInProgress, StatusResolved},
	StatusResolved:        {StatusClosed, StatusOpen}, // reopen goes back to open
	StatusClosed:          {},
}

// CanTransition reports whether moving from one status to another is
// legal.
func CanTransition(from, to Status) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the legal next statuses for a status.
func AllowedTransitions(from Status) []Status {
	return allowedTransitions[from]
}

// Valid reports whether s is a known ticket status.
func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Ticket is one support request raised by a clinic user.
type Ticket struct {
	entity.Base

	Subject  string   `db:"subject" json:"subject"`
	Body     string   `db:"body" json:"body"`
	Priority Priority `db:"priority" json:"priority"`
	Status   Status   `db:"status" json:"status"`
}

// HistoryEntry records one ticket status change, append-only.
type HistoryEntry struct {
	ID             id.ID     `db:"id" json:"id"`
	TicketID       id.ID     `db:"ticket_id" json:"ticketId"`
	PreviousStatus *Status   `db:"previous_status" json:"previousStatus,omitempty"`
	NewStatus      Status    `db:"new_status" json:"newStatus"`
	ChangedBy      string    `db:"changed_by" json:"changedBy,omitempty"`
	ChangedAt      time.Time `db:"changed_at" json:"changedAt"`
}

// New creates an open ticket.
func New(clinicID id.ID, subject, body string, priority Priority) *Ticket {
	if priority == "" {
		priority = PriorityNormal
	}
	return &Ticket{
		Base:     entity.NewBase(clinicID),
		Subject:  subject,
		Body:     body,
		Priority: priority,
		Status:   StatusOpen,
	}
}

// Validate implements entity.Validatable.
func (t *Ticket) Validate(ctx context.Context) error {
	if t.Subject == "" {
		return apperror.NewValidation("subject is required").
			WithDetail("field", "subject")
	}

	if t.Body == "" {
		return apperror.NewValidation("body is required").
			WithDetail("field", "body")
	}

	switch t.Priority {
	case PriorityLow, PriorityNormal, PriorityHigh:
	default:
		return apperror.NewValidation("unknown priority").
			WithDetail("field", "priority").
			WithDetail("value", string(t.Priority))
	}

	if !t.Status.Valid() {
		return apperror.NewValidation("unknown ticket status").
			WithDetail("field", "status").
			WithDetail("value", string(t.Status))
	}

	return nil
}
