package reports

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"chequedentista/internal/core/apperror"
)

const exportSheet = "Cheques"

var exportHeader = []string{
	"Número", "Estado", "Montante (€)", "Data de criação", "Validade", "Motivo de anulação",
}

// ExportVouchers renders the clinic's voucher set as an xlsx workbook
// for download. Like every other view, the row set is fetched fresh.
func (s *Service) ExportVouchers(ctx context.Context) ([]byte, error) {
	vs, err := s.repo.Vouchers(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("create sheet: %w", err))
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("header cell: %w", err))
		}
		if err := f.SetCellValue(exportSheet, cell, title); err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("write header: %w", err))
		}
	}

	for i, v := range vs {
		row := i + 2
		reason := ""
		if v.CancellationReason != nil {
			reason = *v.CancellationReason
		}
		expiry := ""
		if v.ExpiryDate != nil {
			expiry = v.ExpiryDate.Format("2006-01-02")
		}

		values := []any{
			v.Number,
			v.Status.Meta().Label,
			v.Amount.StringFixed(2),
			v.CreatedAt.Format("2006-01-02"),
			expiry,
			reason,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, apperror.NewInternal(fmt.Errorf("data cell: %w", err))
			}
			if err := f.SetCellValue(exportSheet, cell, value); err != nil {
				return nil, apperror.NewInternal(fmt.Errorf("write row %d: %w", row, err))
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("serialize workbook: %w", err))
	}
	return buf.Bytes(), nil
}
