package clinic

import (
	"context"
	"strings"
	"time"

	"chequedentista/internal/core/apperror"
	"chequedentista/pkg/logger"
)

// OnboardInput carries the self-service clinic registration payload.
type OnboardInput struct {
	ClinicName string `json:"clinicName"`
	Email      string `json:"email"`
}

// Service implements clinic onboarding and profile resolution.
type Service struct {
	repo Repository
}

// NewService creates the clinic service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Onboard registers a new clinic with the authenticated user as its
// founding member.
func (s *Service) Onboard(ctx context.Context, userID string, input OnboardInput) (*Clinic, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.NewValidation("user id is required")
	}

	c := New(input.ClinicName)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	p := &Profile{
		UserID:    userID,
		Email:     strings.TrimSpace(input.Email),
		ClinicID:  c.ID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, c, p); err != nil {
		return nil, err
	}

	logger.Info(ctx, "clinic onboarded", "clinic_id", c.ID, "user_id", userID)
	return c, nil
}

// ResolveProfile returns the user's clinic membership.
func (s *Service) ResolveProfile(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.GetProfileByUserID(ctx, userID)
}
