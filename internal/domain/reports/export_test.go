package reports

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"chequedentista/internal/core/id"
	"chequedentista/internal/domain/voucher"
)

func TestExportVouchers(t *testing.T) {
	doctorID := id.New()
	reason := "extraviado"
	expiry := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	received := makeVoucher(doctorID, voucher.StatusReceived, "35.00")
	received.Number = "CD-100"
	received.ExpiryDate = &expiry

	cancelled := makeVoucher(doctorID, voucher.StatusCancelled, "40.50")
	cancelled.Number = "CD-101"
	cancelled.CancellationReason = &reason

	svc := NewService(&mockRepo{vouchers: []*voucher.Voucher{received, cancelled}})

	data, err := svc.ExportVouchers(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per voucher")

	assert.Equal(t, exportHeader, rows[0])

	assert.Equal(t, "CD-100", rows[1][0])
	assert.Equal(t, "Recebido", rows[1][1])
	assert.Equal(t, "35.00", rows[1][2])
	assert.Equal(t, "2026-12-31", rows[1][4])

	assert.Equal(t, "CD-101", rows[2][0])
	assert.Equal(t, "Anulado", rows[2][1])
	assert.Equal(t, reason, rows[2][5])
}

func TestExportVouchersEmptySet(t *testing.T) {
	svc := NewService(&mockRepo{})

	data, err := svc.ExportVouchers(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}
