package sheetproc_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ideamans/go-sheetproc"
)

// fakeAdapter serves in-memory grids by address
type fakeAdapter struct {
	mu     sync.Mutex
	sheets map[string]*fakeSheet
	// openErr, when set, is returned by every Open
	openErr error
	opens   int
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{sheets: make(map[string]*fakeSheet)}
}

func (a *fakeAdapter) add(address string, rows ...[]string) *fakeSheet {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := &fakeSheet{title: "Hoja 1", rows: rows}
	a.sheets[address] = s
	return s
}

func (a *fakeAdapter) Open(ctx context.Context, address string) (sheetproc.Worksheet, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.opens++
	if a.openErr != nil {
		return nil, a.openErr
	}
	s, ok := a.sheets[address]
	if !ok {
		return nil, fmt.Errorf("spreadsheet %s: %w", address, sheetproc.ErrNotFound)
	}
	return s, nil
}

func (a *fakeAdapter) connector() sheetproc.Connector {
	return func(ctx context.Context, credentialsPath string) (sheetproc.Adapter, error) {
		return a, nil
	}
}

// fakeSheet is a worksheet held in memory. Hooks let tests interleave
// concurrent edits or inject failures.
type fakeSheet struct {
	mu    sync.Mutex
	title string
	rows  [][]string

	appended [][]interface{}
	inputs   []sheetproc.ValueInputOption
	writes   int

	failReads  error
	failWrites error
	// failAfter makes UpdateCell fail once this many writes succeeded (0 = never)
	failAfter int
	// beforeRowRead runs before RowValues for rows other than the header
	beforeRowRead func(s *fakeSheet)
}

func (s *fakeSheet) Title() string { return s.title }

func (s *fakeSheet) Values(ctx context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return nil, s.failReads
	}
	out := make([][]string, len(s.rows))
	for i, row := range s.rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

func (s *fakeSheet) RowValues(ctx context.Context, row int) ([]string, error) {
	if row > 1 && s.beforeRowRead != nil {
		hook := s.beforeRowRead
		s.beforeRowRead = nil
		hook(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return nil, s.failReads
	}
	if row < 1 || row > len(s.rows) {
		return []string{}, nil
	}
	return append([]string(nil), s.rows[row-1]...), nil
}

func (s *fakeSheet) ColValues(ctx context.Context, col int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return nil, s.failReads
	}
	column := make([]string, len(s.rows))
	for i, row := range s.rows {
		if col <= len(row) {
			column[i] = row[col-1]
		}
	}
	n := len(column)
	for n > 0 && column[n-1] == "" {
		n--
	}
	return column[:n], nil
}

func (s *fakeSheet) UpdateCell(ctx context.Context, row, col int, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return s.failWrites
	}
	if s.failAfter > 0 && s.writes >= s.failAfter {
		return errors.New("quota exceeded")
	}
	for len(s.rows) < row {
		s.rows = append(s.rows, []string{})
	}
	for len(s.rows[row-1]) < col {
		s.rows[row-1] = append(s.rows[row-1], "")
	}
	s.rows[row-1][col-1] = fmt.Sprintf("%v", value)
	s.writes++
	return nil
}

func (s *fakeSheet) AppendRow(ctx context.Context, values []interface{}, input sheetproc.ValueInputOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return s.failWrites
	}
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = fmt.Sprintf("%v", v)
	}
	s.rows = append(s.rows, row)
	s.appended = append(s.appended, values)
	s.inputs = append(s.inputs, input)
	return nil
}

func (s *fakeSheet) cell(row, col int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row > len(s.rows) || col > len(s.rows[row-1]) {
		return ""
	}
	return s.rows[row-1][col-1]
}
