package excel

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ideamans/go-sheetproc"
	"github.com/xuri/excelize/v2"
)

// Adapter implements sheetproc.Adapter for local Excel workbooks. The
// address of a spreadsheet is its file path, and every call opens the file
// afresh; mutations are saved before the call returns.
type Adapter struct {
	config *Config
	mu     sync.RWMutex
}

// New creates a new Excel adapter with the given configuration
func New(config *Config) (*Adapter, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create a copy of config to avoid external modifications
	configCopy := *config

	return &Adapter{
		config: &configCopy,
	}, nil
}

// Connect returns an Adapter rooted at the working directory. Workbooks
// need no credentials, so credentialsPath is only checked by the handler.
func Connect(ctx context.Context, credentialsPath string) (sheetproc.Adapter, error) {
	return New(&Config{})
}

// NewHandler loads the configuration at configPath and serves its
// addresses from local workbooks
func NewHandler(ctx context.Context, configPath string, opts ...sheetproc.Option) *sheetproc.Handler {
	return sheetproc.Create(ctx, configPath, Connect, opts...)
}

// Open returns the first worksheet of the workbook at address
func (a *Adapter) Open(ctx context.Context, address string) (sheetproc.Worksheet, error) {
	path, err := a.config.resolve(address)
	if err != nil {
		return nil, err
	}

	ws := &worksheet{adapter: a, path: path}
	err = ws.read(ctx, func(f *excelize.File) error {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return ErrNoWorksheet
		}
		ws.name = sheets[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// CreateWorkbook writes a new workbook at path with a single sheet holding
// rows, the first of which is the header. An existing file is replaced.
func CreateWorkbook(path, sheetName string, rows [][]interface{}) error {
	if sheetName == "" {
		sheetName = "Sheet1"
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if defaultSheet := f.GetSheetName(0); defaultSheet != sheetName {
		if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
			return fmt.Errorf("failed to rename sheet: %w", err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

type worksheet struct {
	adapter *Adapter
	path    string
	name    string
}

func (w *worksheet) Title() string {
	return w.name
}

// read opens the workbook under the adapter's read lock
func (w *worksheet) read(ctx context.Context, fn func(f *excelize.File) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.adapter.mu.RLock()
	defer w.adapter.mu.RUnlock()

	f, err := open(w.path)
	if err != nil {
		return err
	}
	defer f.Close()

	return fn(f)
}

// write opens the workbook under the write lock and saves it if fn succeeds
func (w *worksheet) write(ctx context.Context, fn func(f *excelize.File) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.adapter.mu.Lock()
	defer w.adapter.mu.Unlock()

	f, err := open(w.path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func open(path string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrWorkbookNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFileFormat, path, err)
	}
	return f, nil
}

func (w *worksheet) rows(f *excelize.File) ([][]string, error) {
	rows, err := f.GetRows(w.name)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	// drop trailing rows without data, as the Sheets API does
	n := len(rows)
	for n > 0 && len(trimRight(rows[n-1])) == 0 {
		n--
	}
	return rows[:n], nil
}

func (w *worksheet) Values(ctx context.Context) ([][]string, error) {
	var values [][]string
	err := w.read(ctx, func(f *excelize.File) error {
		rows, err := w.rows(f)
		if err != nil {
			return err
		}
		values = make([][]string, len(rows))
		for i, row := range rows {
			values[i] = trimRight(row)
		}
		return nil
	})
	return values, err
}

func (w *worksheet) RowValues(ctx context.Context, row int) ([]string, error) {
	if row < 1 {
		return nil, fmt.Errorf("invalid row %d: %w", row, sheetproc.ErrValidation)
	}

	values := []string{}
	err := w.read(ctx, func(f *excelize.File) error {
		rows, err := w.rows(f)
		if err != nil {
			return err
		}
		if row <= len(rows) {
			values = trimRight(rows[row-1])
		}
		return nil
	})
	return values, err
}

func (w *worksheet) ColValues(ctx context.Context, col int) ([]string, error) {
	if col < 1 {
		return nil, fmt.Errorf("invalid column %d: %w", col, sheetproc.ErrValidation)
	}

	values := []string{}
	err := w.read(ctx, func(f *excelize.File) error {
		rows, err := w.rows(f)
		if err != nil {
			return err
		}
		column := make([]string, len(rows))
		for i, r := range rows {
			if col <= len(r) {
				column[i] = r[col-1]
			}
		}
		values = trimRight(column)
		return nil
	})
	return values, err
}

func (w *worksheet) UpdateCell(ctx context.Context, row, col int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("invalid cell (%d, %d): %w", row, col, sheetproc.ErrValidation)
	}

	return w.write(ctx, func(f *excelize.File) error {
		return setCell(f, w.name, cell, value, sheetproc.InputUserEntered)
	})
}

func (w *worksheet) AppendRow(ctx context.Context, values []interface{}, input sheetproc.ValueInputOption) error {
	return w.write(ctx, func(f *excelize.File) error {
		rows, err := w.rows(f)
		if err != nil {
			return err
		}
		next := len(rows) + 1
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, next)
			if err != nil {
				return err
			}
			if err := setCell(f, w.name, cell, v, input); err != nil {
				return fmt.Errorf("failed to write %s: %w", cell, err)
			}
		}
		return nil
	})
}

// setCell writes value, parsing strings as the spreadsheet UI would when
// input is user-entered
func setCell(f *excelize.File, sheet, cell string, value interface{}, input sheetproc.ValueInputOption) error {
	s, ok := value.(string)
	if !ok || input != sheetproc.InputUserEntered {
		return f.SetCellValue(sheet, cell, value)
	}

	trimmed := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(trimmed, "=") && len(trimmed) > 1:
		return f.SetCellFormula(sheet, cell, trimmed[1:])
	case strings.EqualFold(trimmed, "TRUE"), strings.EqualFold(trimmed, "FALSE"):
		return f.SetCellBool(sheet, cell, strings.EqualFold(trimmed, "TRUE"))
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return f.SetCellValue(sheet, cell, i)
	}
	if fv, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(fv) && !math.IsInf(fv, 0) {
		return f.SetCellFloat(sheet, cell, fv, -1, 64)
	}
	return f.SetCellStr(sheet, cell, s)
}

func trimRight(row []string) []string {
	n := len(row)
	for n > 0 && row[n-1] == "" {
		n--
	}
	out := make([]string, n)
	copy(out, row[:n])
	return out
}
