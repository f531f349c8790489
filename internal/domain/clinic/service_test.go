package clinic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chequedentista/internal/core/apperror"
)

type mockRepo struct {
	clinics  map[string]*Clinic
	profiles map[string]*Profile
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		clinics:  make(map[string]*Clinic),
		profiles: make(map[string]*Profile),
	}
}

func (m *mockRepo) Create(ctx context.Context, c *Clinic, p *Profile) error {
	if _, ok := m.profiles[p.UserID]; ok {
		return apperror.NewDuplicate("profile", "user_id", p.UserID)
	}
	m.clinics[c.ID.String()] = c
	m.profiles[p.UserID] = p
	return nil
}

func (m *mockRepo) GetProfileByUserID(ctx context.Context, userID string) (*Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, apperror.NewNotFound("profile", userID)
	}
	return p, nil
}

func TestOnboard(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	c, err := svc.Onboard(context.Background(), "user-1", OnboardInput{
		ClinicName: "Clínica Sorriso",
		Email:      "  geral@sorriso.pt  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Clínica Sorriso", c.Name)

	p := repo.profiles["user-1"]
	require.NotNil(t, p)
	assert.Equal(t, c.ID, p.ClinicID)
	assert.Equal(t, "geral@sorriso.pt", p.Email)
}

func TestOnboardValidation(t *testing.T) {
	svc := NewService(newMockRepo())

	tests := []struct {
		name   string
		userID string
		input  OnboardInput
	}{
		{"missing user", "", OnboardInput{ClinicName: "Clínica"}},
		{"missing clinic name", "user-1", OnboardInput{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Onboard(context.Background(), tt.userID, tt.input)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

func TestOnboardTwiceFails(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Onboard(context.Background(), "user-1", OnboardInput{ClinicName: "Primeira"})
	require.NoError(t, err)

	_, err = svc.Onboard(context.Background(), "user-1", OnboardInput{ClinicName: "Segunda"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestResolveProfile(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	_, err := svc.Onboard(context.Background(), "user-1", OnboardInput{ClinicName: "Clínica"})
	require.NoError(t, err)

	p, err := svc.ResolveProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.UserID)

	_, err = svc.ResolveProfile(context.Background(), "user-2")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
