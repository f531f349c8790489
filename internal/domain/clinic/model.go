package clinic

import (
	"strings"
	"time"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
)

// Clinic is a tenant. Every other row in the store carries its id.
type Clinic struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Profile links an authenticated user to their clinic. The user id is
// the subject claim issued by the auth provider; credentials never
// touch this system.
type Profile struct {
	UserID    string    `db:"user_id" json:"userId"`
	Email     string    `db:"email" json:"email"`
	ClinicID  id.ID     `db:"clinic_id" json:"clinicId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// New creates a clinic.
func New(name string) *Clinic {
	now := time.Now().UTC()
	return &Clinic{
		ID:        id.New(),
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks required fields.
func (c *Clinic) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("clinic name is required")
	}
	return nil
}
