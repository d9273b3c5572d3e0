package application

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestLedgerService_ExportWorkbook(t *testing.T) {
	t.Parallel()

	store := newLedgerStoreStub(map[int64]string{1: "João Silva", 2: "Maria Santos"})
	svc := newLedgerServiceForTest(store, nil)
	ctx := context.Background()

	if _, err := svc.PostEntry(ctx, PostEntryParams{EmployeeID: 1, Hours: 8, Reason: "Sábado"}); err != nil {
		t.Fatalf("PostEntry returned error: %v", err)
	}
	if _, err := svc.PostEntry(ctx, PostEntryParams{EmployeeID: 2, Hours: -2, CreatedBy: "RH"}); err != nil {
		t.Fatalf("PostEntry returned error: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.ExportWorkbook(ctx, &buf); err != nil {
		t.Fatalf("ExportWorkbook returned error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to open exported workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(ledgerSheetName)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}

	for i, header := range ledgerSheetHeaders {
		if rows[0][i] != header {
			t.Fatalf("header %d: expected %q, got %q", i, header, rows[0][i])
		}
	}

	newest := rows[1]
	if newest[1] != "Maria Santos" || newest[2] != "-2" || newest[4] != "RH" {
		t.Fatalf("unexpected newest row %#v", newest)
	}
	oldest := rows[2]
	if oldest[1] != "João Silva" || oldest[2] != "8" || oldest[3] != "Sábado" || oldest[4] != DefaultEntryCreator {
		t.Fatalf("unexpected oldest row %#v", oldest)
	}
}

func TestLedgerService_ExportWorkbookEmptyLedger(t *testing.T) {
	t.Parallel()

	svc := newLedgerServiceForTest(newLedgerStoreStub(nil), nil)

	var buf bytes.Buffer
	if err := svc.ExportWorkbook(context.Background(), &buf); err != nil {
		t.Fatalf("ExportWorkbook returned error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to open exported workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(ledgerSheetName)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only the header row, got %d rows", len(rows))
	}
}
