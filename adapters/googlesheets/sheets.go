package googlesheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ideamans/go-sheetproc"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var (
	urlPattern = regexp.MustCompile(`^https://docs\.google\.com/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	idPattern  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// SheetsAdaptor implements sheetproc.Adapter for Google Sheets
type SheetsAdaptor struct {
	service *sheets.Service
}

// NewSheetsAdaptor creates a new Google Sheets adaptor with provided options
func NewSheetsAdaptor(ctx context.Context, opts ...option.ClientOption) (*SheetsAdaptor, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsAdaptor{service: service}, nil
}

// SpreadsheetID extracts the spreadsheet ID from a docs.google.com URL.
// A bare ID is returned unchanged.
func SpreadsheetID(address string) (string, error) {
	address = strings.TrimSpace(address)
	if match := urlPattern.FindStringSubmatch(address); len(match) == 2 {
		return match[1], nil
	}
	if idPattern.MatchString(address) {
		return address, nil
	}
	return "", fmt.Errorf("invalid spreadsheet address %q - expected something like 'https://docs.google.com/spreadsheets/d/<id>/edit': %w", address, sheetproc.ErrValidation)
}

// Open resolves the spreadsheet at address and returns its first worksheet
func (a *SheetsAdaptor) Open(ctx context.Context, address string) (sheetproc.Worksheet, error) {
	id, err := SpreadsheetID(address)
	if err != nil {
		return nil, err
	}

	resp, err := a.service.Spreadsheets.Get(id).
		Fields("spreadsheetId,sheets.properties(sheetId,title,index)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, apiError("get spreadsheet "+id, err)
	}

	var first *sheets.SheetProperties
	for _, s := range resp.Sheets {
		if s.Properties == nil {
			continue
		}
		if first == nil || s.Properties.Index < first.Index {
			first = s.Properties
		}
	}
	if first == nil {
		return nil, fmt.Errorf("spreadsheet %s has no worksheets: %w", id, sheetproc.ErrNotFound)
	}

	return &worksheet{
		service:       a.service,
		spreadsheetID: id,
		title:         first.Title,
	}, nil
}

// worksheet addresses one sheet by title in A1 notation
type worksheet struct {
	service       *sheets.Service
	spreadsheetID string
	title         string
}

func (w *worksheet) Title() string {
	return w.title
}

// rangeOf returns the quoted sheet title, optionally followed by an A1 range
func (w *worksheet) rangeOf(a1 string) string {
	quoted := "'" + strings.ReplaceAll(w.title, "'", "''") + "'"
	if a1 == "" {
		return quoted
	}
	return quoted + "!" + a1
}

func (w *worksheet) Values(ctx context.Context) ([][]string, error) {
	resp, err := w.service.Spreadsheets.Values.Get(w.spreadsheetID, w.rangeOf("")).Context(ctx).Do()
	if err != nil {
		return nil, apiError("get sheet data", err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = toStrings(row)
	}
	return rows, nil
}

func (w *worksheet) RowValues(ctx context.Context, row int) ([]string, error) {
	if row < 1 {
		return nil, fmt.Errorf("invalid row %d: %w", row, sheetproc.ErrValidation)
	}

	a1 := fmt.Sprintf("%d:%d", row, row)
	resp, err := w.service.Spreadsheets.Values.Get(w.spreadsheetID, w.rangeOf(a1)).Context(ctx).Do()
	if err != nil {
		return nil, apiError("get row "+a1, err)
	}
	if len(resp.Values) == 0 {
		return []string{}, nil
	}
	return toStrings(resp.Values[0]), nil
}

func (w *worksheet) ColValues(ctx context.Context, col int) ([]string, error) {
	if col < 1 {
		return nil, fmt.Errorf("invalid column %d: %w", col, sheetproc.ErrValidation)
	}

	name := columnName(col)
	a1 := name + ":" + name
	resp, err := w.service.Spreadsheets.Values.Get(w.spreadsheetID, w.rangeOf(a1)).
		MajorDimension("COLUMNS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, apiError("get column "+a1, err)
	}
	if len(resp.Values) == 0 {
		return []string{}, nil
	}
	return toStrings(resp.Values[0]), nil
}

func (w *worksheet) UpdateCell(ctx context.Context, row, col int, value interface{}) error {
	if row < 1 || col < 1 {
		return fmt.Errorf("invalid cell (%d, %d): %w", row, col, sheetproc.ErrValidation)
	}

	a1 := fmt.Sprintf("%s%d", columnName(col), row)
	vr := &sheets.ValueRange{
		Values: [][]interface{}{{convertToSheetValue(value)}},
	}
	_, err := w.service.Spreadsheets.Values.Update(w.spreadsheetID, w.rangeOf(a1), vr).
		ValueInputOption(string(sheetproc.InputUserEntered)).
		Context(ctx).
		Do()
	if err != nil {
		return apiError("update cell "+a1, err)
	}
	return nil
}

func (w *worksheet) AppendRow(ctx context.Context, values []interface{}, input sheetproc.ValueInputOption) error {
	if input == "" {
		input = sheetproc.InputRaw
	}

	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = convertToSheetValue(v)
	}
	vr := &sheets.ValueRange{
		Values: [][]interface{}{row},
	}
	_, err := w.service.Spreadsheets.Values.Append(w.spreadsheetID, w.rangeOf(""), vr).
		ValueInputOption(string(input)).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return apiError("append row", err)
	}
	return nil
}

// apiError wraps err with the sheetproc kind matching its HTTP status
func apiError(what string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %w", what, sheetproc.ErrNotFound, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w: %w", what, sheetproc.ErrNotAuthenticated, err)
		case http.StatusBadRequest:
			return fmt.Errorf("%s: %w: %w", what, sheetproc.ErrValidation, err)
		}
	}
	return fmt.Errorf("failed to %s: %w", what, err)
}

// toStrings renders cell values the way the sheet displays them
func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch val := v.(type) {
		case nil:
			out[i] = ""
		case string:
			out[i] = val
		default:
			out[i] = fmt.Sprintf("%v", val)
		}
	}
	return out
}

// convertToSheetValue converts a Go value to a JSON cell value
func convertToSheetValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return ""
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return val
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// columnName converts a column number to its letter name (1 -> A, 27 -> AA)
func columnName(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
