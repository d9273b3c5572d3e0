package application

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	ledgerSheetName       = "Lançamentos"
	exportTimestampLayout = "2006-01-02 15:04"
)

var ledgerSheetHeaders = []string{"Data", "Funcionário", "Horas", "Motivo", "Criado por"}

// ExportWorkbook writes every ledger entry, newest first, to an XLSX workbook.
func (s *LedgerService) ExportWorkbook(ctx context.Context, w io.Writer) (err error) {
	if err = s.ensureConfigured(); err != nil {
		return
	}

	var entries []EntryWithName
	logger := s.loggerWith(ctx, "ExportWorkbook")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "ledger export failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "ledger exported", "entries", len(entries))
	}()

	entries, err = s.entries.ListEntriesWithNames(ctx)
	if err != nil {
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	if err = f.SetSheetName("Sheet1", ledgerSheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, header := range ledgerSheetHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err = f.SetCellValue(ledgerSheetName, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for idx, entry := range entries {
		row := []any{
			entry.CreatedAt.Local().Format(exportTimestampLayout),
			entry.EmployeeName,
			entry.Hours,
			entry.Reason,
			entry.CreatedBy,
		}
		cell, _ := excelize.CoordinatesToCellName(1, idx+2)
		if err = f.SetSheetRow(ledgerSheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", idx+2, err)
		}
	}

	widths := map[string]float64{"A": 18, "B": 28, "C": 8, "D": 40, "E": 18}
	for col, width := range widths {
		if err = f.SetColWidth(ledgerSheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if err = f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
