// Package tenant carries the clinic scope of a request.
//
// Every row in the store belongs to exactly one clinic. The clinic is
// resolved once per request (from the authenticated user's profile) and
// threaded through context as an explicit value; no package keeps a
// mutable "current clinic".
package tenant

import (
	"context"
	"errors"

	"chequedentista/internal/core/id"
)

type ctxKey int

const clinicKey ctxKey = iota

// ErrNoClinicInContext is returned when a clinic-scoped operation runs
// without a resolved clinic.
var ErrNoClinicInContext = errors.New("clinic not found in context")

// Clinic identifies the tenant of the current request.
type Clinic struct {
	ID   id.ID
	Name string
}

// WithClinic stores the clinic in context.
func WithClinic(ctx context.Context, c *Clinic) context.Context {
	return context.WithValue(ctx, clinicKey, c)
}

// GetClinic retrieves the clinic from context, or nil.
func GetClinic(ctx context.Context) *Clinic {
	c, _ := ctx.Value(clinicKey).(*Clinic)
	return c
}

// ClinicID returns the clinic id from context.
func ClinicID(ctx context.Context) (id.ID, error) {
	c := GetClinic(ctx)
	if c == nil {
		return id.Nil(), ErrNoClinicInContext
	}
	return c.ID, nil
}

// MustClinicID returns the clinic id or panics.
// Use only where a missing clinic is a programming error (handler ran
// without the ClinicScope middleware).
func MustClinicID(ctx context.Context) id.ID {
	cid, err := ClinicID(ctx)
	if err != nil {
		panic("clinic not in context: missing ClinicScope middleware")
	}
	return cid
}
