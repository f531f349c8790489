package clinic

import "context"

// Repository defines clinic and profile persistence. Onboarding is the
// one write path; after that clinics are read-only reference data.
type Repository interface {
	// Create inserts the clinic and the founding user's profile in one
	// transaction. A user who already has a profile gets DUPLICATE_ENTRY.
	Create(ctx context.Context, c *Clinic, p *Profile) error

	// GetProfileByUserID resolves the caller's clinic membership.
	GetProfileByUserID(ctx context.Context, userID string) (*Profile, error)
}
