package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/core/tenant"
)

// passthroughTxm runs the function directly; the repository mock keeps
// all state in memory so there is nothing to roll back.
type passthroughTxm struct{}

func (passthroughTxm) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockRepo struct {
	subs   map[string]*Subscription
	events map[string]SubscriptionEvent
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		subs:   make(map[string]*Subscription),
		events: make(map[string]SubscriptionEvent),
	}
}

func (m *mockRepo) RecordEvent(ctx context.Context, ev SubscriptionEvent) (bool, error) {
	if _, ok := m.events[ev.ExternalEventID]; ok {
		return false, nil
	}
	m.events[ev.ExternalEventID] = ev
	return true, nil
}

func (m *mockRepo) GetByExternalID(ctx context.Context, externalID string) (*Subscription, error) {
	sub, ok := m.subs[externalID]
	if !ok {
		return nil, apperror.NewNotFound("subscription", externalID)
	}
	return sub, nil
}

func (m *mockRepo) GetByClinic(ctx context.Context, clinicID id.ID) (*Subscription, error) {
	for _, sub := range m.subs {
		if sub.ClinicID == clinicID {
			return sub, nil
		}
	}
	return nil, apperror.NewNotFound("subscription", clinicID)
}

func (m *mockRepo) Create(ctx context.Context, sub *Subscription) error {
	if _, ok := m.subs[sub.ExternalID]; ok {
		return apperror.NewDuplicate("subscription", "external_id", sub.ExternalID)
	}
	m.subs[sub.ExternalID] = sub
	return nil
}

func (m *mockRepo) UpdateStatus(ctx context.Context, sub *Subscription) error {
	if _, ok := m.subs[sub.ExternalID]; !ok {
		return apperror.NewNotFound("subscription", sub.ExternalID)
	}
	sub.Version++
	m.subs[sub.ExternalID] = sub
	return nil
}

func (m *mockRepo) Events(ctx context.Context, externalSubscriptionID string) ([]SubscriptionEvent, error) {
	var out []SubscriptionEvent
	for _, ev := range m.events {
		if ev.ExternalSubscriptionID == externalSubscriptionID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type mockGateway struct {
	checkoutURL string
	portalURL   string
	err         error

	lastClinicID   id.ID
	lastPlan       string
	lastCustomerID string
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, clinicID id.ID, plan string) (string, error) {
	m.lastClinicID = clinicID
	m.lastPlan = plan
	return m.checkoutURL, m.err
}

func (m *mockGateway) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	m.lastCustomerID = customerID
	return m.portalURL, m.err
}

func newService(repo *mockRepo, gw *mockGateway) *Service {
	if gw == nil {
		gw = &mockGateway{}
	}
	return NewService(repo, gw, passthroughTxm{})
}

func checkoutEvent(clinicID id.ID) Event {
	return Event{
		ExternalEventID:        "evt_001",
		Type:                   EventCheckoutCompleted,
		ExternalSubscriptionID: "sub_001",
		ExternalCustomerID:     "cus_001",
		ClinicID:               clinicID,
		Plan:                   "price_standard",
		Status:                 StatusActive,
		RawPayload:             []byte(`{"id":"evt_001"}`),
	}
}

func TestApplyEventCreatesSubscription(t *testing.T) {
	repo := newMockRepo()
	svc := newService(repo, nil)
	clinicID := id.New()

	err := svc.ApplyEvent(context.Background(), checkoutEvent(clinicID))
	require.NoError(t, err)

	sub := repo.subs["sub_001"]
	require.NotNil(t, sub)
	assert.Equal(t, clinicID, sub.ClinicID)
	assert.Equal(t, "cus_001", sub.ExternalCustomerID)
	assert.Equal(t, StatusActive, sub.Status)
	assert.Equal(t, "price_standard", sub.Plan)

	ev := repo.events["evt_001"]
	assert.Nil(t, ev.PreviousStatus, "first event for a subscription has no prior status")
	assert.Equal(t, StatusActive, ev.NewStatus)
	assert.Equal(t, EventCheckoutCompleted, ev.Reason)
}

func TestApplyEventRedeliveryIsNoOp(t *testing.T) {
	repo := newMockRepo()
	svc := newService(repo, nil)
	clinicID := id.New()

	ev := checkoutEvent(clinicID)
	require.NoError(t, svc.ApplyEvent(context.Background(), ev))

	created := *repo.subs["sub_001"]

	// Same event id again: recorded no-op, nothing changes.
	ev.Status = StatusCanceled
	require.NoError(t, svc.ApplyEvent(context.Background(), ev))

	assert.Len(t, repo.subs, 1)
	assert.Equal(t, created.Status, repo.subs["sub_001"].Status)
	assert.Len(t, repo.events, 1)
}

func TestApplyEventUpdatesExistingSubscription(t *testing.T) {
	repo := newMockRepo()
	svc := newService(repo, nil)
	clinicID := id.New()

	require.NoError(t, svc.ApplyEvent(context.Background(), checkoutEvent(clinicID)))

	periodEnd := time.Now().UTC().AddDate(0, 1, 0)
	update := Event{
		ExternalEventID:        "evt_002",
		Type:                   EventSubscriptionUpdated,
		ExternalSubscriptionID: "sub_001",
		Status:                 StatusPastDue,
		CurrentPeriodEnd:       &periodEnd,
	}
	require.NoError(t, svc.ApplyEvent(context.Background(), update))

	sub := repo.subs["sub_001"]
	assert.Equal(t, StatusPastDue, sub.Status)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, periodEnd, *sub.CurrentPeriodEnd)
	assert.Equal(t, "price_standard", sub.Plan, "empty plan on the event leaves the stored plan alone")

	ev := repo.events["evt_002"]
	require.NotNil(t, ev.PreviousStatus)
	assert.Equal(t, StatusActive, *ev.PreviousStatus)
	assert.Equal(t, StatusPastDue, ev.NewStatus)
}

func TestApplyEventUnknownSubscriptionNeedsClinic(t *testing.T) {
	svc := newService(newMockRepo(), nil)

	ev := checkoutEvent(id.ID{})
	err := svc.ApplyEvent(context.Background(), ev)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestApplyEventRejectsMissingIdentifiers(t *testing.T) {
	svc := newService(newMockRepo(), nil)

	tests := []struct {
		name string
		ev   Event
	}{
		{"no event id", Event{ExternalSubscriptionID: "sub_001", Status: StatusActive}},
		{"no subscription id", Event{ExternalEventID: "evt_001", Status: StatusActive}},
		{"bad status", Event{ExternalEventID: "evt_001", ExternalSubscriptionID: "sub_001", Status: "exploded"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ApplyEvent(context.Background(), tt.ev)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

func TestCheckoutSession(t *testing.T) {
	gw := &mockGateway{checkoutURL: "https://pay.example/s/abc"}
	svc := newService(newMockRepo(), gw)

	clinicID := id.New()
	ctx := tenant.WithClinic(context.Background(), &tenant.Clinic{ID: clinicID})

	url, err := svc.CreateCheckoutSession(ctx, "price_standard")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/s/abc", url)
	assert.Equal(t, clinicID, gw.lastClinicID)
	assert.Equal(t, "price_standard", gw.lastPlan)
}

func TestCheckoutSessionRequiresPlanAndClinic(t *testing.T) {
	svc := newService(newMockRepo(), nil)

	_, err := svc.CreateCheckoutSession(context.Background(), "price_standard")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)

	ctx := tenant.WithClinic(context.Background(), &tenant.Clinic{ID: id.New()})
	_, err = svc.CreateCheckoutSession(ctx, "")
	require.Error(t, err)
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCheckoutSessionWrapsGatewayFailure(t *testing.T) {
	gw := &mockGateway{err: errors.New("connection reset")}
	svc := newService(newMockRepo(), gw)
	ctx := tenant.WithClinic(context.Background(), &tenant.Clinic{ID: id.New()})

	_, err := svc.CreateCheckoutSession(ctx, "price_standard")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeExternalService, appErr.Code)
}

func TestPortalSessionUsesStoredCustomer(t *testing.T) {
	repo := newMockRepo()
	gw := &mockGateway{portalURL: "https://pay.example/p/xyz"}
	svc := newService(repo, gw)

	clinicID := id.New()
	require.NoError(t, svc.ApplyEvent(context.Background(), checkoutEvent(clinicID)))

	ctx := tenant.WithClinic(context.Background(), &tenant.Clinic{ID: clinicID})
	url, err := svc.CreatePortalSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/p/xyz", url)
	assert.Equal(t, "cus_001", gw.lastCustomerID)
}

func TestPortalSessionWithoutSubscription(t *testing.T) {
	svc := newService(newMockRepo(), nil)
	ctx := tenant.WithClinic(context.Background(), &tenant.Clinic{ID: id.New()})

	_, err := svc.CreatePortalSession(ctx)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
