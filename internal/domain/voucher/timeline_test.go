package voucher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chequedentista/internal/core/id"
	"chequedentista/internal/core/types"
)

func timelineVoucher(status Status) *Voucher {
	v := New(id.New(), "CD-001", id.New(), id.New(), types.MustMoney("35.00"), nil)
	v.Status = status
	return v
}

func entryAt(voucherID id.ID, prev *Status, next Status, reason string, at time.Time) HistoryEntry {
	e := NewHistoryEntry(voucherID, prev, next, reason, "tester")
	e.ChangedAt = at
	return e
}

func statuses(steps []TimelineStep) []Status {
	out := make([]Status, len(steps))
	for i, s := range steps {
		out[i] = s.Status
	}
	return out
}

func TestTimelineFreshVoucher(t *testing.T) {
	v := timelineVoucher(StatusPendingDelivery)
	t0 := time.Now().UTC()
	entries := []HistoryEntry{
		entryAt(v.ID, nil, StatusPendingDelivery, "", t0),
	}

	steps := BuildTimeline(v, entries)

	assert.Equal(t, []Status{
		StatusPendingDelivery,
		StatusReceived,
		StatusUsed,
		StatusSubmitted,
		StatusPaidByPayer,
		StatusPaidToDoctor,
	}, statuses(steps))

	assert.True(t, steps[0].Reached)
	require.NotNil(t, steps[0].At)
	assert.Equal(t, t0, *steps[0].At)

	for _, s := range steps[1:] {
		assert.False(t, s.Reached, "future step %s", s.Status)
		assert.Nil(t, s.At, "future step %s", s.Status)
	}
}

func TestTimelineMidChain(t *testing.T) {
	v := timelineVoucher(StatusUsed)
	t0 := time.Now().UTC()
	prev1, prev2 := StatusPendingDelivery, StatusReceived
	entries := []HistoryEntry{
		entryAt(v.ID, nil, StatusPendingDelivery, "", t0),
		entryAt(v.ID, &prev1, StatusReceived, "", t0.Add(time.Hour)),
		entryAt(v.ID, &prev2, StatusUsed, "", t0.Add(2*time.Hour)),
	}

	steps := BuildTimeline(v, entries)
	require.Len(t, steps, 6)

	for i, s := range steps {
		if i < 3 {
			assert.True(t, s.Reached, "step %s", s.Status)
			assert.NotNil(t, s.At, "step %s", s.Status)
		} else {
			assert.False(t, s.Reached, "step %s", s.Status)
		}
	}
}

func TestTimelineUnsortedEntries(t *testing.T) {
	v := timelineVoucher(StatusReceived)
	t0 := time.Now().UTC()
	prev := StatusPendingDelivery
	entries := []HistoryEntry{
		entryAt(v.ID, &prev, StatusReceived, "", t0.Add(time.Hour)),
		entryAt(v.ID, nil, StatusPendingDelivery, "", t0),
	}

	steps := BuildTimeline(v, entries)
	assert.Equal(t, StatusPendingDelivery, steps[0].Status)
	assert.Equal(t, StatusReceived, steps[1].Status)
}

func TestTimelineWithoutHistoryFallsBackToVoucherRow(t *testing.T) {
	v := timelineVoucher(StatusReceived)

	steps := BuildTimeline(v, nil)
	require.NotEmpty(t, steps)

	// Degraded initial step: current status at creation time.
	assert.Equal(t, StatusReceived, steps[0].Status)
	assert.True(t, steps[0].Reached)
	require.NotNil(t, steps[0].At)
	assert.Equal(t, v.CreatedAt, *steps[0].At)
}

func TestTimelineCurrentStatusBeyondLogGetsNilTimestamp(t *testing.T) {
	v := timelineVoucher(StatusUsed)
	t0 := time.Now().UTC()
	entries := []HistoryEntry{
		entryAt(v.ID, nil, StatusPendingDelivery, "", t0),
	}

	steps := BuildTimeline(v, entries)

	var usedStep *TimelineStep
	for i := range steps {
		if steps[i].Status == StatusUsed {
			usedStep = &steps[i]
		}
	}
	require.NotNil(t, usedStep)
	assert.True(t, usedStep.Reached)
	assert.Nil(t, usedStep.At, "no timestamp may be invented for an unlogged step")
}

func TestTimelineCancelled(t *testing.T) {
	v := timelineVoucher(StatusCancelled)
	reason := "extraviado"
	v.CancellationReason = &reason

	t0 := time.Now().UTC()
	prev1, prev2 := StatusPendingDelivery, StatusReceived
	entries := []HistoryEntry{
		entryAt(v.ID, nil, StatusPendingDelivery, "", t0),
		entryAt(v.ID, &prev1, StatusReceived, "", t0.Add(time.Hour)),
		entryAt(v.ID, &prev2, StatusCancelled, reason, t0.Add(2*time.Hour)),
	}

	steps := BuildTimeline(v, entries)

	last := steps[len(steps)-1]
	assert.Equal(t, StatusCancelled, last.Status)
	assert.True(t, last.Reached)
	assert.Equal(t, reason, last.Reason)
	require.NotNil(t, last.At)
	assert.Equal(t, t0.Add(2*time.Hour), *last.At)

	// The reached prefix of the chain stays visible.
	assert.Equal(t, StatusPendingDelivery, steps[0].Status)
	assert.Equal(t, StatusReceived, steps[1].Status)
	assert.True(t, steps[1].Reached)
}

func TestVerifyChain(t *testing.T) {
	voucherID := id.New()
	t0 := time.Now().UTC()
	prev1, prev2 := StatusPendingDelivery, StatusReceived

	good := []HistoryEntry{
		entryAt(voucherID, nil, StatusPendingDelivery, "", t0),
		entryAt(voucherID, &prev1, StatusReceived, "", t0.Add(time.Hour)),
		entryAt(voucherID, &prev2, StatusUsed, "", t0.Add(2*time.Hour)),
	}
	assert.NoError(t, VerifyChain(good))

	wrongPrev := StatusUsed
	broken := []HistoryEntry{
		entryAt(voucherID, nil, StatusPendingDelivery, "", t0),
		entryAt(voucherID, &wrongPrev, StatusSubmitted, "", t0.Add(time.Hour)),
	}
	assert.Error(t, VerifyChain(broken))
}
