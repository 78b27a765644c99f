package sheetproc

import "context"

// ValueInputOption controls how the backend interprets written values
type ValueInputOption string

const (
	// InputRaw stores values exactly as given
	InputRaw ValueInputOption = "RAW"
	// InputUserEntered parses values as if typed into the UI (numbers, formulas)
	InputUserEntered ValueInputOption = "USER_ENTERED"
)

// Adapter is an authenticated session against a spreadsheet backend
type Adapter interface {
	// Open resolves the spreadsheet at address and returns its first worksheet
	Open(ctx context.Context, address string) (Worksheet, error)
}

// Worksheet is one grid of a spreadsheet. Rows and columns are 1-based and
// row 1 holds the headers. Every call reads or writes the backend directly.
type Worksheet interface {
	// Title returns the worksheet name
	Title() string

	// Values returns every non-empty row as formatted strings
	Values(ctx context.Context) ([][]string, error)

	// RowValues returns the cells of one row, trailing empty cells trimmed
	RowValues(ctx context.Context, row int) ([]string, error)

	// ColValues returns the cells of one column, trailing empty cells trimmed
	ColValues(ctx context.Context, col int) ([]string, error)

	// UpdateCell writes a single cell using user-entered semantics
	UpdateCell(ctx context.Context, row, col int, value interface{}) error

	// AppendRow adds a row after the last row containing data
	AppendRow(ctx context.Context, values []interface{}, input ValueInputOption) error
}

// Connector establishes a session from a credential file
type Connector func(ctx context.Context, credentialsPath string) (Adapter, error)
