package excel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ideamans/go-sheetproc"
	"github.com/xuri/excelize/v2"
)

func TestNew(t *testing.T) {
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"working directory", &Config{}, false},
		{"existing base dir", &Config{BaseDir: tempDir}, false},
		{"missing base dir", &Config{BaseDir: filepath.Join(tempDir, "missing")}, true},
		{"base dir is a file", &Config{BaseDir: file}, true},
		{"nil config", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.config != nil && !errors.Is(err, ErrInvalidBaseDir) {
				t.Errorf("New() error = %v, want ErrInvalidBaseDir", err)
			}
		})
	}
}

func TestConfig_Resolve(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "data", "sheets")
	abs := filepath.Join(string(filepath.Separator), "tmp", "procesos.xlsx")

	tests := []struct {
		name    string
		config  Config
		address string
		want    string
		wantErr bool
	}{
		{"relative to base", Config{BaseDir: base}, "procesos.xlsx", filepath.Join(base, "procesos.xlsx"), false},
		{"absolute ignores base", Config{BaseDir: base}, abs, abs, false},
		{"relative without base", Config{}, "procesos.xlsx", "procesos.xlsx", false},
		{"empty address", Config{BaseDir: base}, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.config.resolve(tt.address)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, sheetproc.ErrValidation) {
					t.Errorf("resolve() error = %v, want ErrValidation", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

// newWorkbook writes a processes workbook and returns an adapter rooted at its directory
func newWorkbook(t *testing.T, rows [][]interface{}) (*Adapter, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "procesos.xlsx")
	if err := CreateWorkbook(path, "Procesos", rows); err != nil {
		t.Fatalf("CreateWorkbook() error = %v", err)
	}
	adapter, err := New(&Config{BaseDir: dir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return adapter, path
}

func TestAdapter_Open(t *testing.T) {
	adapter, path := newWorkbook(t, [][]interface{}{{"numero_proceso"}})
	ctx := context.Background()

	t.Run("relative address", func(t *testing.T) {
		ws, err := adapter.Open(ctx, "procesos.xlsx")
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if ws.Title() != "Procesos" {
			t.Errorf("Title() = %v, want Procesos", ws.Title())
		}
	})

	t.Run("absolute address", func(t *testing.T) {
		if _, err := adapter.Open(ctx, path); err != nil {
			t.Fatalf("Open() error = %v", err)
		}
	})

	t.Run("missing workbook", func(t *testing.T) {
		_, err := adapter.Open(ctx, "otro.xlsx")
		if !errors.Is(err, ErrWorkbookNotFound) || !errors.Is(err, sheetproc.ErrNotFound) {
			t.Errorf("Open() error = %v, want ErrWorkbookNotFound", err)
		}
	})

	t.Run("not a workbook", func(t *testing.T) {
		bad := filepath.Join(filepath.Dir(path), "notas.xlsx")
		if err := os.WriteFile(bad, []byte("plain text"), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		_, err := adapter.Open(ctx, bad)
		if !errors.Is(err, ErrInvalidFileFormat) {
			t.Errorf("Open() error = %v, want ErrInvalidFileFormat", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := adapter.Open(cancelled, "procesos.xlsx"); !errors.Is(err, context.Canceled) {
			t.Errorf("Open() error = %v, want context.Canceled", err)
		}
	})
}

func TestWorksheet_Read(t *testing.T) {
	adapter, _ := newWorkbook(t, [][]interface{}{
		{"numero_proceso", "objeto_proceso", "cuantia"},
		{"SIP-001", "Compra de equipos", int64(1500000)},
		{"SIP-002", nil, 250.5},
		{"SIP-003"},
	})
	ctx := context.Background()

	ws, err := adapter.Open(ctx, "procesos.xlsx")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	values, err := ws.Values(ctx)
	if err != nil {
		t.Fatalf("Values() error = %v", err)
	}
	want := [][]string{
		{"numero_proceso", "objeto_proceso", "cuantia"},
		{"SIP-001", "Compra de equipos", "1500000"},
		{"SIP-002", "", "250.5"},
		{"SIP-003"},
	}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("Values() = %v, want %v", values, want)
	}

	row, err := ws.RowValues(ctx, 1)
	if err != nil {
		t.Fatalf("RowValues() error = %v", err)
	}
	if !reflect.DeepEqual(row, want[0]) {
		t.Errorf("RowValues(1) = %v, want %v", row, want[0])
	}

	row, err = ws.RowValues(ctx, 10)
	if err != nil || len(row) != 0 {
		t.Errorf("RowValues(10) = %v, %v, want empty", row, err)
	}

	col, err := ws.ColValues(ctx, 2)
	if err != nil {
		t.Fatalf("ColValues() error = %v", err)
	}
	if wantCol := []string{"objeto_proceso", "Compra de equipos"}; !reflect.DeepEqual(col, wantCol) {
		t.Errorf("ColValues(2) = %v, want %v", col, wantCol)
	}

	if _, err := ws.ColValues(ctx, 0); !errors.Is(err, sheetproc.ErrValidation) {
		t.Errorf("ColValues(0) error = %v, want ErrValidation", err)
	}
	if _, err := ws.RowValues(ctx, 0); !errors.Is(err, sheetproc.ErrValidation) {
		t.Errorf("RowValues(0) error = %v, want ErrValidation", err)
	}
}

func TestWorksheet_Write(t *testing.T) {
	adapter, path := newWorkbook(t, [][]interface{}{
		{"numero_proceso", "cuantia", "total", "urgente"},
		{"SIP-001", "1"},
	})
	ctx := context.Background()

	ws, err := adapter.Open(ctx, "procesos.xlsx")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := ws.UpdateCell(ctx, 2, 2, "1500"); err != nil {
		t.Fatalf("UpdateCell() error = %v", err)
	}
	if err := ws.UpdateCell(ctx, 2, 3, "=B2*2"); err != nil {
		t.Fatalf("UpdateCell() error = %v", err)
	}
	if err := ws.UpdateCell(ctx, 2, 4, "true"); err != nil {
		t.Fatalf("UpdateCell() error = %v", err)
	}
	if err := ws.AppendRow(ctx, []interface{}{"SIP-002", "0012"}, sheetproc.InputRaw); err != nil {
		t.Fatalf("AppendRow() error = %v", err)
	}
	if err := ws.AppendRow(ctx, []interface{}{"SIP-003", "0012"}, sheetproc.InputUserEntered); err != nil {
		t.Fatalf("AppendRow() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer f.Close()

	checks := []struct {
		cell string
		want string
	}{
		{"B2", "1500"},
		{"D2", "TRUE"},
		{"A3", "SIP-002"},
		{"B3", "0012"},
		{"A4", "SIP-003"},
		{"B4", "12"},
	}
	for _, c := range checks {
		got, err := f.GetCellValue("Procesos", c.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s) error = %v", c.cell, err)
		}
		if got != c.want {
			t.Errorf("%s = %q, want %q", c.cell, got, c.want)
		}
	}

	formula, err := f.GetCellFormula("Procesos", "C2")
	if err != nil {
		t.Fatalf("GetCellFormula() error = %v", err)
	}
	if strings.TrimPrefix(formula, "=") != "B2*2" {
		t.Errorf("C2 formula = %q, want B2*2", formula)
	}
}

func TestSetCell(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	tests := []struct {
		name  string
		value interface{}
		input sheetproc.ValueInputOption
		want  string
	}{
		{"raw keeps text", "007", sheetproc.InputRaw, "007"},
		{"user entered integer", "007", sheetproc.InputUserEntered, "7"},
		{"user entered decimal", "2.5", sheetproc.InputUserEntered, "2.5"},
		{"user entered bool", "false", sheetproc.InputUserEntered, "FALSE"},
		{"user entered text", "Compra de equipos", sheetproc.InputUserEntered, "Compra de equipos"},
		{"NaN stays text", "NaN", sheetproc.InputUserEntered, "NaN"},
		{"non-string value", int64(46), sheetproc.InputUserEntered, "46"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := setCell(f, sheet, cell, tt.value, tt.input); err != nil {
				t.Fatalf("setCell() error = %v", err)
			}
			got, err := f.GetCellValue(sheet, cell)
			if err != nil {
				t.Fatalf("GetCellValue() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("setCell(%v) stored %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestHandler_ProcessesWorkbook(t *testing.T) {
	header := []interface{}{"numero_proceso", "objeto_proceso", "c3", "c4", "c5", "c6", "c7", "c8", "c9", "activo"}
	row := func(number, status string) []interface{} {
		return []interface{}{number, "objeto " + number, "", "", "", "", "", "", "", status}
	}
	_, path := newWorkbook(t, [][]interface{}{
		header,
		row("SIP-001", "SI"),
		row("SIP-002", "NO"),
		row("SIP-003", "SI"),
	})

	credentials := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(credentials, []byte("{}"), 0600); err != nil {
		t.Fatalf("Failed to write credentials: %v", err)
	}
	config := &sheetproc.Config{
		CredentialsPath:   credentials,
		ProcessesSheetURL: path,
		StatusColumnIndex: sheetproc.DefaultStatusColumnIndex,
		ActiveMarker:      sheetproc.DefaultActiveMarker,
		InactiveMarker:    sheetproc.DefaultInactiveMarker,
	}

	ctx := context.Background()
	h := sheetproc.New(config, Connect, sheetproc.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := h.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	numbers, err := h.GetAllProcessNumbers(ctx)
	if err != nil {
		t.Fatalf("GetAllProcessNumbers() error = %v", err)
	}
	if want := []string{"SIP-001", "SIP-002", "SIP-003"}; !reflect.DeepEqual(numbers, want) {
		t.Errorf("GetAllProcessNumbers() = %v, want %v", numbers, want)
	}

	count, err := h.DeactivateAllProcesses(ctx)
	if err != nil {
		t.Fatalf("DeactivateAllProcesses() error = %v", err)
	}
	if count != 2 {
		t.Errorf("DeactivateAllProcesses() = %d, want 2", count)
	}

	if err := h.AddNewProcess(ctx, []interface{}{"SIP-004", "objeto SIP-004", "", "", "", "", "", "", "", "SI"}); err != nil {
		t.Fatalf("AddNewProcess() error = %v", err)
	}
	if err := h.UpdateRecord(ctx, path, "numero_proceso", "SIP-002", "objeto_proceso", "Nuevo objeto"); err != nil {
		t.Fatalf("UpdateRecord() error = %v", err)
	}

	records, err := h.GetRecords(ctx, path)
	if err != nil {
		t.Fatalf("GetRecords() error = %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("GetRecords() returned %d records, want 4", len(records))
	}
	wantStatus := []string{"NO", "NO", "NO", "SI"}
	for i, r := range records {
		if got := r.GetAsString("activo", ""); got != wantStatus[i] {
			t.Errorf("record %d activo = %q, want %q", r.Row, got, wantStatus[i])
		}
	}
	if got := records[1].GetAsString("objeto_proceso", ""); got != "Nuevo objeto" {
		t.Errorf("objeto_proceso = %q, want Nuevo objeto", got)
	}
}
