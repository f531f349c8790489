package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/core/types"
	"chequedentista/internal/domain/voucher"
)

type mockRepo struct {
	vouchers []*voucher.Voucher
	names    map[id.ID]string
}

func (m *mockRepo) Vouchers(_ context.Context) ([]*voucher.Voucher, error) {
	return m.vouchers, nil
}

func (m *mockRepo) DoctorNames(_ context.Context) (map[id.ID]string, error) {
	return m.names, nil
}

func makeVoucher(doctorID id.ID, status voucher.Status, amount string) *voucher.Voucher {
	v := voucher.New(id.New(), "CD-"+id.New().String()[:8], id.New(), doctorID, types.MustMoney(amount), nil)
	v.Status = status
	return v
}

func TestComputeDoctorMetricsCumulativeFunnel(t *testing.T) {
	doctorID := id.New()
	names := map[id.ID]string{doctorID: "Dr. Silva"}

	var vs []*voucher.Voucher
	for i := 0; i < 2; i++ {
		vs = append(vs, makeVoucher(doctorID, voucher.StatusUsed, "35.00"))
	}
	for i := 0; i < 3; i++ {
		vs = append(vs, makeVoucher(doctorID, voucher.StatusSubmitted, "35.00"))
	}
	vs = append(vs, makeVoucher(doctorID, voucher.StatusPaidByPayer, "35.00"))

	report := ComputeDoctorMetrics(vs, names, DoctorMetricsFilter{})
	require.Len(t, report.Items, 1)

	m := report.Items[0]
	assert.Equal(t, "Dr. Silva", m.DoctorName)
	assert.Equal(t, 6, m.Received.Count)
	assert.Equal(t, 6, m.Used.Count)
	assert.Equal(t, 4, m.Submitted.Count)
	assert.Equal(t, 1, m.PaidByPayer.Count)
	assert.Equal(t, 0, m.PaidToDoctor.Count)

	assert.Equal(t, "210.00", m.Received.Amount.StringFixed(2))
	assert.Equal(t, "140.00", m.Submitted.Amount.StringFixed(2))
	assert.Equal(t, "35.00", m.PaidByPayer.Amount.StringFixed(2))
	assert.Equal(t, "0.00", m.PaidToDoctor.Amount.StringFixed(2))
}

func TestComputeDoctorMetricsExcludesPendingAndCancelled(t *testing.T) {
	doctorID := id.New()
	vs := []*voucher.Voucher{
		makeVoucher(doctorID, voucher.StatusPendingDelivery, "35.00"),
		makeVoucher(doctorID, voucher.StatusCancelled, "35.00"),
		makeVoucher(doctorID, voucher.StatusReceived, "35.00"),
	}

	report := ComputeDoctorMetrics(vs, nil, DoctorMetricsFilter{})
	require.Len(t, report.Items, 1)

	m := report.Items[0]
	assert.Equal(t, 1, m.Received.Count, "only the received voucher reaches the first milestone")
	assert.Equal(t, "35.00", m.Received.Amount.StringFixed(2))
}

func TestComputeDoctorMetricsFilters(t *testing.T) {
	target, other := id.New(), id.New()
	old := makeVoucher(target, voucher.StatusReceived, "35.00")
	old.CreatedAt = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	recent := makeVoucher(target, voucher.StatusReceived, "35.00")
	recent.CreatedAt = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	foreign := makeVoucher(other, voucher.StatusReceived, "35.00")
	foreign.CreatedAt = recent.CreatedAt

	vs := []*voucher.Voucher{old, recent, foreign}

	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	report := ComputeDoctorMetrics(vs, nil, DoctorMetricsFilter{
		DoctorID: &target,
		From:     &from,
	})
	require.Len(t, report.Items, 1)
	assert.Equal(t, target, report.Items[0].DoctorID)
	assert.Equal(t, 1, report.Items[0].Received.Count)
}

func TestComputeDoctorMetricsSortsByName(t *testing.T) {
	a, b := id.New(), id.New()
	names := map[id.ID]string{a: "Dr. Zarco", b: "Dr. Abreu"}
	vs := []*voucher.Voucher{
		makeVoucher(a, voucher.StatusReceived, "35.00"),
		makeVoucher(b, voucher.StatusReceived, "35.00"),
	}

	report := ComputeDoctorMetrics(vs, names, DoctorMetricsFilter{})
	require.Len(t, report.Items, 2)
	assert.Equal(t, "Dr. Abreu", report.Items[0].DoctorName)
	assert.Equal(t, "Dr. Zarco", report.Items[1].DoctorName)
}

func TestDoctorMetricsRejectsInvertedRange(t *testing.T) {
	svc := NewService(&mockRepo{})
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	_, err := svc.DoctorMetrics(context.Background(), DoctorMetricsFilter{From: &from, To: &to})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestComputeStatusDistribution(t *testing.T) {
	doctorID := id.New()
	var vs []*voucher.Voucher
	for i := 0; i < 5; i++ {
		vs = append(vs, makeVoucher(doctorID, voucher.StatusPendingDelivery, "35.00"))
	}
	for i := 0; i < 3; i++ {
		vs = append(vs, makeVoucher(doctorID, voucher.StatusReceived, "35.00"))
	}
	for i := 0; i < 2; i++ {
		vs = append(vs, makeVoucher(doctorID, voucher.StatusCancelled, "35.00"))
	}
	vs = append(vs, makeVoucher(doctorID, voucher.StatusUsed, "35.00"))

	dist := ComputeStatusDistribution(vs)

	assert.Equal(t, 4, dist.Total, "pending_delivery and cancelled stay out of the denominator")
	require.Len(t, dist.Shares, 2)

	assert.Equal(t, voucher.StatusReceived, dist.Shares[0].Status)
	assert.Equal(t, 3, dist.Shares[0].Count)
	assert.InDelta(t, 75.0, dist.Shares[0].Percentage, 0.001)

	assert.Equal(t, voucher.StatusUsed, dist.Shares[1].Status)
	assert.Equal(t, 1, dist.Shares[1].Count)
	assert.InDelta(t, 25.0, dist.Shares[1].Percentage, 0.001)
}

func TestComputeStatusDistributionEmpty(t *testing.T) {
	dist := ComputeStatusDistribution(nil)
	assert.Equal(t, 0, dist.Total)
	assert.Empty(t, dist.Shares)
}

func TestComputeExpiring(t *testing.T) {
	doctorID := id.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	withExpiry := func(status voucher.Status, days int) *voucher.Voucher {
		v := makeVoucher(doctorID, status, "35.00")
		exp := now.AddDate(0, 0, days)
		v.ExpiryDate = &exp
		return v
	}

	soon := withExpiry(voucher.StatusReceived, 5)
	expired := withExpiry(voucher.StatusUsed, -3)
	far := withExpiry(voucher.StatusReceived, 90)
	settled := withExpiry(voucher.StatusPaidToDoctor, 5)
	cancelled := withExpiry(voucher.StatusCancelled, 5)
	noExpiry := makeVoucher(doctorID, voucher.StatusReceived, "35.00")

	vs := []*voucher.Voucher{soon, expired, far, settled, cancelled, noExpiry}

	report := ComputeExpiring(vs, 30, now)

	require.Len(t, report.Items, 2)
	assert.Equal(t, 30, report.HorizonDays)

	// Sorted by urgency: already expired first.
	assert.Equal(t, expired.ID, report.Items[0].Voucher.ID)
	assert.Equal(t, -3, report.Items[0].DaysUntilExpiry)
	assert.Equal(t, soon.ID, report.Items[1].Voucher.ID)
	assert.Equal(t, 5, report.Items[1].DaysUntilExpiry)
}

func TestExpiringRejectsNonPositiveHorizon(t *testing.T) {
	svc := NewService(&mockRepo{})

	_, err := svc.ExpiringVouchers(context.Background(), 0)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}
