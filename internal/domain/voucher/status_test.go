package voucher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	want := []Status{
		StatusPendingDelivery,
		StatusReceived,
		StatusUsed,
		StatusSubmitted,
		StatusPaidByPayer,
		StatusPaidToDoctor,
	}
	assert.Equal(t, want, Chain())
}

func TestMetaForwardChain(t *testing.T) {
	chain := Chain()
	for i, s := range chain[:len(chain)-1] {
		meta := s.Meta()
		require.True(t, meta.HasNext, "status %s must have a next", s)
		assert.Equal(t, chain[i+1], meta.Next, "status %s", s)
		assert.False(t, meta.Terminal, "status %s", s)
	}
}

func TestMetaTerminalStates(t *testing.T) {
	for _, s := range []Status{StatusPaidToDoctor, StatusCancelled} {
		meta := s.Meta()
		assert.True(t, meta.Terminal, "status %s", s)
		assert.False(t, meta.HasNext, "status %s", s)
	}
}

func TestCancelledHasNoInboundChainEdge(t *testing.T) {
	for _, s := range Chain() {
		assert.NotEqual(t, StatusCancelled, s.Meta().Next,
			"no chain status may point at cancelled")
	}
}

func TestCancellable(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPendingDelivery, true},
		{StatusReceived, true},
		{StatusUsed, true},
		{StatusSubmitted, true},
		{StatusPaidByPayer, true},
		{StatusPaidToDoctor, false},
		{StatusCancelled, false},
		{Status("bogus"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.Cancellable(), "status %s", tt.status)
	}
}

func TestAtOrBeyond(t *testing.T) {
	tests := []struct {
		status    Status
		milestone Status
		want      bool
	}{
		{StatusPaidToDoctor, StatusReceived, true},
		{StatusPaidToDoctor, StatusPaidToDoctor, true},
		{StatusUsed, StatusUsed, true},
		{StatusUsed, StatusSubmitted, false},
		{StatusPendingDelivery, StatusReceived, false},
		{StatusCancelled, StatusReceived, false},
		{StatusReceived, StatusCancelled, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.AtOrBeyond(tt.milestone),
			"%s at-or-beyond %s", tt.status, tt.milestone)
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("paid_by_payer")
	require.NoError(t, err)
	assert.Equal(t, StatusPaidByPayer, s)

	_, err = ParseStatus("shipped")
	assert.Error(t, err)
}
