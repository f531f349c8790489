package entity

import (
	"context"
	"time"

	"chequedentista/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants without database access.
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Base contains the fields shared by all clinic-scoped entities.
type Base struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// ClinicID is the owning clinic. Every read and write is scoped by it.
	ClinicID id.ID `db:"clinic_id" json:"clinicId"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	// DeletionMark indicates a soft-deleted entity
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Audit fields
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBase creates a Base with a generated ID and timestamps.
func NewBase(clinicID id.ID) Base {
	now := time.Now().UTC()
	return Base{
		ID:        id.New(),
		ClinicID:  clinicID,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates UpdatedAt and increments the version.
func (b *Base) Touch() {
	b.UpdatedAt = time.Now().UTC()
	b.Version++
}

// MarkDeleted sets the deletion mark. Entities are never physically
// deleted by the application.
func (b *Base) MarkDeleted() {
	b.DeletionMark = true
}
