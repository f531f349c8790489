package voucher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/core/tenant"
	"chequedentista/internal/core/types"
	"chequedentista/internal/domain"
)

// mockRepo is an in-memory voucher repository.
type mockRepo struct {
	vouchers map[id.ID]*Voucher
	history  map[id.ID][]HistoryEntry
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		vouchers: make(map[id.ID]*Voucher),
		history:  make(map[id.ID][]HistoryEntry),
	}
}

func (m *mockRepo) Create(ctx context.Context, v *Voucher, initial HistoryEntry) error {
	m.vouchers[v.ID] = v
	m.history[v.ID] = append(m.history[v.ID], initial)
	return nil
}

func (m *mockRepo) CreateBatch(ctx context.Context, vouchers []*Voucher, entries []HistoryEntry) error {
	for i, v := range vouchers {
		m.vouchers[v.ID] = v
		m.history[v.ID] = append(m.history[v.ID], entries[i])
	}
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, voucherID id.ID) (*Voucher, error) {
	v, ok := m.vouchers[voucherID]
	if !ok {
		return nil, apperror.NewNotFound("voucher", voucherID)
	}
	return v, nil
}

func (m *mockRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	for _, v := range m.vouchers {
		if v.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Voucher], error) {
	result := domain.ListResult[*Voucher]{Limit: filter.Limit, Offset: filter.Offset}
	for _, v := range m.vouchers {
		result.Items = append(result.Items, v)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

// UpdateStatus mirrors the production compare-and-swap: the write only
// happens when the stored status matches the expectation.
func (m *mockRepo) UpdateStatus(ctx context.Context, voucherID id.ID, expectedCurrent Status, entry HistoryEntry, cancellationReason *string) error {
	v, ok := m.vouchers[voucherID]
	if !ok {
		return apperror.NewNotFound("voucher", voucherID)
	}
	if v.Status != expectedCurrent {
		return apperror.NewConcurrentModification("voucher", voucherID)
	}
	v.Status = entry.NewStatus
	v.Version++
	if cancellationReason != nil {
		v.CancellationReason = cancellationReason
	}
	m.history[voucherID] = append(m.history[voucherID], entry)
	return nil
}

func (m *mockRepo) History(ctx context.Context, voucherID id.ID) ([]HistoryEntry, error) {
	return m.history[voucherID], nil
}

func clinicCtx() context.Context {
	return tenant.WithClinic(context.Background(), &tenant.Clinic{ID: id.New()})
}

func validInput(number string) CreateInput {
	return CreateInput{
		Number:    number,
		PatientID: id.New(),
		DoctorID:  id.New(),
		Amount:    types.MustMoney("35.00"),
	}
}

func TestCreateStartsAtPendingDelivery(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := clinicCtx()

	v, err := svc.Create(ctx, validInput("CD-001"))
	require.NoError(t, err)
	assert.Equal(t, StatusPendingDelivery, v.Status)

	entries := repo.history[v.ID]
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].PreviousStatus)
	assert.Equal(t, StatusPendingDelivery, entries[0].NewStatus)
}

func TestCreateRejectsDuplicateNumber(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := clinicCtx()

	_, err := svc.Create(ctx, validInput("CD-001"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, validInput("CD-001"))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestCreateRequiresClinic(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Create(context.Background(), validInput("CD-001"))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestCreateBatch(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := clinicCtx()

	in := BatchInput{
		Numbers:   []string{"CD-001", "CD-002", "CD-003"},
		PatientID: id.New(),
		DoctorID:  id.New(),
		Amount:    types.MustMoney("35.00"),
	}

	vouchers, err := svc.CreateBatch(ctx, in)
	require.NoError(t, err)
	require.Len(t, vouchers, 3)
	for _, v := range vouchers {
		assert.Equal(t, StatusPendingDelivery, v.Status)
		assert.Equal(t, in.PatientID, v.PatientID)
	}
}

func TestCreateBatchRejectsTooMany(t *testing.T) {
	svc := NewService(newMockRepo())

	in := BatchInput{
		Numbers:   []string{"A", "B", "C", "D"},
		PatientID: id.New(),
		DoctorID:  id.New(),
		Amount:    types.MustMoney("35.00"),
	}

	_, err := svc.CreateBatch(clinicCtx(), in)
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreateBatchRejectsDuplicateNumbersBeforeWriting(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	in := BatchInput{
		Numbers:   []string{"CD-001", "CD-001"},
		PatientID: id.New(),
		DoctorID:  id.New(),
		Amount:    types.MustMoney("35.00"),
	}

	_, err := svc.CreateBatch(clinicCtx(), in)
	require.Error(t, err)
	assert.Empty(t, repo.vouchers, "no voucher may be written when the batch fails validation")
}

func TestAdvanceWalksTheChain(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := clinicCtx()

	v, err := svc.Create(ctx, validInput("CD-001"))
	require.NoError(t, err)

	expected := []Status{
		StatusReceived,
		StatusUsed,
		StatusSubmitted,
		StatusPaidByPayer,
		StatusPaidToDoctor,
	}
	current := v.Status
	for _, want := range expected {
		v, err = svc.Advance(ctx, v.ID, current)
		require.NoError(t, err)
		assert.Equal(t, want, v.Status)
		current = v.Status
	}

	entries := repo.history[v.ID]
	require.NoError(t, VerifyChain(entries))
	assert.Len(t, entries, 6)
}

func TestAdvanceFromTerminalFails(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Advance(clinicCtx(), id.New(), StatusPaidToDoctor)
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)

	_, err = svc.Advance(clinicCtx(), id.New(), StatusCancelled)
	require.Error(t, err)
}

func TestAdvanceWithStaleExpectationFails(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := clinicCtx()

	v, err := svc.Create(ctx, validInput("CD-001"))
	require.NoError(t, err)

	_, err = svc.Advance(ctx, v.ID, StatusPendingDelivery)
	require.NoError(t, err)

	// A second caller still believes the voucher is pending.
	_, err = svc.Advance(ctx, v.ID, StatusPendingDelivery)
	require.Error(t, err)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestAdvanceUnknownVoucher(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Advance(clinicCtx(), id.New(), StatusReceived)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCancelRecordsReasonAndHistory(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := clinicCtx()

	v, err := svc.Create(ctx, validInput("CD-001"))
	require.NoError(t, err)

	v, err = svc.Cancel(ctx, v.ID, StatusPendingDelivery, "extraviado")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, v.Status)
	require.NotNil(t, v.CancellationReason)
	assert.Equal(t, "extraviado", *v.CancellationReason)

	entries := repo.history[v.ID]
	require.Len(t, entries, 2)
	last := entries[len(entries)-1]
	assert.Equal(t, StatusCancelled, last.NewStatus)
	assert.Equal(t, "extraviado", last.Reason)
}

func TestCancelFromTerminalStatesFails(t *testing.T) {
	svc := NewService(newMockRepo())

	for _, s := range []Status{StatusPaidToDoctor, StatusCancelled} {
		_, err := svc.Cancel(clinicCtx(), id.New(), s, "reason")
		require.Error(t, err, "cancel from %s must fail", s)
		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
	}
}

func TestCancelledVoucherRefusesAdvance(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := clinicCtx()

	v, err := svc.Create(ctx, validInput("CD-001"))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, v.ID, StatusPendingDelivery, "")
	require.NoError(t, err)

	// Stale caller tries to push the cancelled voucher forward.
	_, err = svc.Advance(ctx, v.ID, StatusPendingDelivery)
	require.Error(t, err)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestVoucherValidate(t *testing.T) {
	clinicID := id.New()
	expiry := time.Now().Add(48 * time.Hour)

	tests := []struct {
		name    string
		voucher *Voucher
		wantErr bool
	}{
		{
			name:    "valid",
			voucher: New(clinicID, "CD-001", id.New(), id.New(), types.MustMoney("35.00"), &expiry),
		},
		{
			name:    "missing number",
			voucher: New(clinicID, "", id.New(), id.New(), types.MustMoney("35.00"), nil),
			wantErr: true,
		},
		{
			name:    "zero amount",
			voucher: New(clinicID, "CD-001", id.New(), id.New(), types.ZeroMoney(), nil),
			wantErr: true,
		},
		{
			name:    "too many decimals",
			voucher: New(clinicID, "CD-001", id.New(), id.New(), types.MustMoney("35.005"), nil),
			wantErr: true,
		},
		{
			name:    "missing patient",
			voucher: New(clinicID, "CD-001", id.Nil(), id.New(), types.MustMoney("35.00"), nil),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.voucher.Validate(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
