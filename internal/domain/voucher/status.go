// Package voucher implements the dental voucher lifecycle: the status
// registry, the transition engine and the audit timeline.
package voucher

import (
	"chequedentista/internal/core/apperror"
)

// Status is a voucher lifecycle state. The set is closed; Meta is a
// total function over it, so the compiler flags any new status that is
// added without transition rules.
type Status string

const (
	StatusPendingDelivery Status = "pending_delivery"
	StatusReceived        Status = "received"
	StatusUsed            Status = "used"
	StatusSubmitted       Status = "submitted"
	StatusPaidByPayer     Status = "paid_by_payer"
	StatusPaidToDoctor    Status = "paid_to_doctor"
	StatusCancelled       Status = "cancelled"
)

// StatusMeta describes one lifecycle state: its display label, the
// single legal forward transition, and whether the state is terminal.
type StatusMeta struct {
	Label string

	// Next is the one legal forward status. Valid only when HasNext.
	Next    Status
	HasNext bool

	// Terminal states admit no transition at all, including cancellation.
	Terminal bool
}

// Meta returns the registry entry for s.
//
// The canonical forward chain is
// pending_delivery → received → used → submitted → paid_by_payer →
// paid_to_doctor. Cancelled is a side exit reachable from any
// non-terminal state; nothing transitions into it as part of the chain
// and it defines no next status.
func (s Status) Meta() StatusMeta {
	switch s {
	case StatusPendingDelivery:
		return StatusMeta{Label: "Por entregar", Next: StatusReceived, HasNext: true}
	case StatusReceived:
		return StatusMeta{Label: "Recebido", Next: StatusUsed, HasNext: true}
	case StatusUsed:
		return StatusMeta{Label: "Utilizado", Next: StatusSubmitted, HasNext: true}
	case StatusSubmitted:
		return StatusMeta{Label: "Submetido à ARS", Next: StatusPaidByPayer, HasNext: true}
	case StatusPaidByPayer:
		return StatusMeta{Label: "Pago pela ARS", Next: StatusPaidToDoctor, HasNext: true}
	case StatusPaidToDoctor:
		return StatusMeta{Label: "Pago ao médico", Terminal: true}
	case StatusCancelled:
		return StatusMeta{Label: "Anulado", Terminal: true}
	default:
		return StatusMeta{Label: string(s), Terminal: true}
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingDelivery, StatusReceived, StatusUsed, StatusSubmitted,
		StatusPaidByPayer, StatusPaidToDoctor, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transition.
func (s Status) Terminal() bool {
	return s.Meta().Terminal
}

// Cancellable reports whether a voucher in status s may be cancelled.
// Terminal statuses (paid_to_doctor, cancelled) may not.
func (s Status) Cancellable() bool {
	return s.Valid() && !s.Terminal()
}

// Chain returns the canonical forward chain in order. Cancelled is
// not part of the chain and is excluded.
func Chain() []Status {
	return []Status{
		StatusPendingDelivery,
		StatusReceived,
		StatusUsed,
		StatusSubmitted,
		StatusPaidByPayer,
		StatusPaidToDoctor,
	}
}

// chainIndex returns the position of s in the forward chain, or -1 for
// cancelled and unknown statuses.
func chainIndex(s Status) int {
	for i, c := range Chain() {
		if c == s {
			return i
		}
	}
	return -1
}

// AtOrBeyond reports whether s has passed through milestone: the chain
// is forward-only, so a voucher currently at s has been in every
// earlier chain status. Cancelled vouchers are beyond nothing.
func (s Status) AtOrBeyond(milestone Status) bool {
	si, mi := chainIndex(s), chainIndex(milestone)
	if si < 0 || mi < 0 {
		return false
	}
	return si >= mi
}

// ParseStatus validates a status string from the API boundary.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", apperror.NewValidation("unknown voucher status").
			WithDetail("value", raw)
	}
	return s, nil
}
