package googlesheets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	sheetproc "github.com/ideamans/go-sheetproc"
)

// TestLiveSpreadsheet runs the handler against a real spreadsheet. The first
// worksheet must have at least two header columns; rows are appended to it.
func TestLiveSpreadsheet(t *testing.T) {
	spreadsheetID := os.Getenv("TEST_GOOGLE_SHEET_ID")
	jsonPath := os.Getenv(sheetproc.CredentialsEnv)
	if spreadsheetID == "" || jsonPath == "" {
		t.Skip("Skipping Google Sheets tests: TEST_GOOGLE_SHEET_ID or GOOGLE_APPLICATION_CREDENTIALS not set")
	}

	config, err := sheetproc.ParseConfig([]byte(fmt.Sprintf("procesos_sheet_url: %q\n", spreadsheetID)))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	h := sheetproc.New(config, Connect, sheetproc.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := h.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	headers, err := h.GetHeaders(ctx, spreadsheetID)
	if err != nil {
		t.Fatalf("GetHeaders() error = %v", err)
	}
	if len(headers) < 2 {
		t.Skipf("first worksheet needs two header columns, has %v", headers)
	}

	id := fmt.Sprintf("it-%d", time.Now().UnixNano())
	if err := h.AddNewProcess(ctx, []interface{}{id, "created"}); err != nil {
		t.Fatalf("AddNewProcess() error = %v", err)
	}
	if err := h.UpdateRecord(ctx, spreadsheetID, headers[0], id, headers[1], "updated"); err != nil {
		t.Fatalf("UpdateRecord() error = %v", err)
	}

	records, err := h.QueryRecords(ctx, spreadsheetID, sheetproc.Query{
		Conditions: []sheetproc.Condition{{Column: headers[0], Operator: "==", Value: id}},
	})
	if err != nil {
		t.Fatalf("QueryRecords() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("QueryRecords() returned %d records, want 1", len(records))
	}
	if got := records[0].GetAsString(headers[1], ""); got != "updated" {
		t.Errorf("%s = %q, want updated", headers[1], got)
	}

	numbers, err := h.GetAllProcessNumbers(ctx)
	if err != nil {
		t.Fatalf("GetAllProcessNumbers() error = %v", err)
	}
	found := false
	for _, n := range numbers {
		if n == id {
			found = true
		}
	}
	if !found {
		t.Errorf("GetAllProcessNumbers() does not contain %s", id)
	}
}
