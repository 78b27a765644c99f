package sheetproc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Handler opens spreadsheets by address and reads or edits their first
// worksheet. Operations never panic; on failure they return their empty
// value together with an *Error whose kind tells the cause.
type Handler struct {
	config  *Config
	connect Connector
	logger  *slog.Logger
	metrics *Metrics

	mu      sync.RWMutex
	session Adapter
}

// Option configures a Handler
type Option func(*Handler)

// WithLogger sets the logger used for every status message
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics records operation metrics into m
func WithMetrics(m *Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// New creates a handler from an already loaded configuration. It does not
// authenticate; call Authenticate before any data operation.
func New(config *Config, connect Connector, opts ...Option) *Handler {
	h := &Handler{
		config:  config,
		connect: connect,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Create loads the configuration at configPath and authenticates with it.
// It never fails: a missing or malformed configuration, or a failed
// authentication, yields a handler whose operations all report
// ErrNotAuthenticated.
func Create(ctx context.Context, configPath string, connect Connector, opts ...Option) *Handler {
	h := New(nil, connect, opts...)

	config, err := LoadConfig(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.logger.Error("configuration file not found", "path", configPath)
		} else {
			h.logger.Error("invalid configuration", "path", configPath, "error", err)
		}
		return h
	}
	h.config = config
	h.logger.Debug("configuration loaded", "path", configPath)

	// failures are logged inside Authenticate
	_ = h.Authenticate(ctx)
	return h
}

// Config returns the loaded configuration, or nil. Callers must not modify it.
func (h *Handler) Config() *Config {
	return h.config
}

// Authenticated reports whether a session is established
func (h *Handler) Authenticated() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.session != nil
}

// Authenticate opens a session with the configured credential file. On
// failure any previously established session is kept.
func (h *Handler) Authenticate(ctx context.Context) error {
	const op = "Authenticate"
	start := time.Now()

	if h.config == nil {
		return h.done(ctx, op, start, newError(op, ErrConfig, errors.New("cannot authenticate without a valid configuration")))
	}

	path := h.config.ResolvedCredentialsPath()
	if path == "" {
		return h.done(ctx, op, start, newError(op, ErrNotAuthenticated, errors.New("no credential file configured (google_credentials_path)")))
	}
	if _, err := os.Stat(path); err != nil {
		return h.done(ctx, op, start, newError(op, ErrNotAuthenticated, fmt.Errorf("credential file %q not found: %w", path, err)))
	}
	if h.connect == nil {
		return h.done(ctx, op, start, newError(op, ErrNotAuthenticated, errors.New("no connector configured")))
	}

	session, err := h.connect(ctx, path)
	if err != nil {
		return h.done(ctx, op, start, newError(op, ErrNotAuthenticated, err), "credentials", path)
	}

	h.mu.Lock()
	h.session = session
	h.mu.Unlock()

	h.logger.Info("authenticated", "credentials", path)
	return h.done(ctx, op, start, nil)
}

// worksheet resolves the first worksheet at address. Handles are not
// cached, so every operation sees the current remote state.
func (h *Handler) worksheet(ctx context.Context, op, address string) (Worksheet, error) {
	h.mu.RLock()
	session := h.session
	h.mu.RUnlock()

	if session == nil {
		return nil, newError(op, ErrNotAuthenticated, errors.New("client is not authenticated"))
	}
	if address == "" {
		return nil, newError(op, ErrValidation, errors.New("empty spreadsheet address"))
	}

	ws, err := session.Open(ctx, address)
	if err != nil {
		return nil, classify(op, fmt.Errorf("open %s: %w", address, err))
	}
	h.logger.Debug("worksheet opened", "address", address, "worksheet", ws.Title())
	return ws, nil
}

// GetRecords returns every data row of the first worksheet keyed by header.
// The slice is empty, never nil, when err is non-nil.
func (h *Handler) GetRecords(ctx context.Context, address string) ([]*Record, error) {
	const op = "GetRecords"
	start := time.Now()

	records, err := h.records(ctx, op, address)
	if err != nil {
		return []*Record{}, h.done(ctx, op, start, err, "address", address)
	}
	return records, h.done(ctx, op, start, nil)
}

func (h *Handler) records(ctx context.Context, op, address string) ([]*Record, error) {
	ws, err := h.worksheet(ctx, op, address)
	if err != nil {
		return nil, err
	}
	values, err := ws.Values(ctx)
	if err != nil {
		return nil, classify(op, fmt.Errorf("read records: %w", err))
	}
	records := recordsFromValues(values)
	h.logger.Debug("records read", "address", address, "count", len(records))
	return records, nil
}

// GetHeaders returns the header row of the first worksheet
func (h *Handler) GetHeaders(ctx context.Context, address string) ([]string, error) {
	const op = "GetHeaders"
	start := time.Now()

	ws, err := h.worksheet(ctx, op, address)
	if err != nil {
		return []string{}, h.done(ctx, op, start, err, "address", address)
	}
	headers, err := ws.RowValues(ctx, 1)
	if err != nil {
		return []string{}, h.done(ctx, op, start, classify(op, fmt.Errorf("read headers: %w", err)), "address", address)
	}
	return headers, h.done(ctx, op, start, nil)
}

// QueryRecords returns the records matching query
func (h *Handler) QueryRecords(ctx context.Context, address string, query Query) ([]*Record, error) {
	const op = "QueryRecords"
	start := time.Now()

	if err := ValidateQuery(query); err != nil {
		return []*Record{}, h.done(ctx, op, start, classify(op, err), "address", address)
	}
	records, err := h.records(ctx, op, address)
	if err != nil {
		return []*Record{}, h.done(ctx, op, start, err, "address", address)
	}
	return ApplyQuery(records, query), h.done(ctx, op, start, nil)
}

// UpdateRecord sets columnToUpdate in the row whose identifierColumn equals
// identifierValue (compared as text).
//
// Identifiers are not required to be unique: when several rows match, the
// topmost one is updated and no warning is given. The lookup and the write
// are separate remote calls; just before writing, the row is re-read and
// ErrConflict is returned if its identifier no longer matches.
func (h *Handler) UpdateRecord(ctx context.Context, address, identifierColumn string, identifierValue interface{}, columnToUpdate string, newValue interface{}) error {
	const op = "UpdateRecord"
	start := time.Now()
	id := fmt.Sprintf("%v", identifierValue)
	attrs := []any{"address", address, "identifier_column", identifierColumn, "identifier", id, "column", columnToUpdate}

	ws, err := h.worksheet(ctx, op, address)
	if err != nil {
		return h.done(ctx, op, start, err, attrs...)
	}

	headers, err := ws.RowValues(ctx, 1)
	if err != nil {
		return h.done(ctx, op, start, classify(op, fmt.Errorf("read headers: %w", err)), attrs...)
	}
	idCol := columnIndex(headers, identifierColumn)
	if idCol == 0 {
		return h.done(ctx, op, start, newError(op, ErrNotFound, fmt.Errorf("identifier column %q not found", identifierColumn)), attrs...)
	}

	cells, err := findCells(ctx, ws, id, idCol, 2, 1)
	if err != nil {
		return h.done(ctx, op, start, classify(op, fmt.Errorf("find %s: %w", id, err)), attrs...)
	}
	if len(cells) == 0 {
		return h.done(ctx, op, start, newError(op, ErrNotFound, fmt.Errorf("no row with %s = %s", identifierColumn, id)), attrs...)
	}
	row := cells[0].Row

	// headers are read again: the sheet may have changed since the first read
	headers, err = ws.RowValues(ctx, 1)
	if err != nil {
		return h.done(ctx, op, start, classify(op, fmt.Errorf("read headers: %w", err)), attrs...)
	}
	col := columnIndex(headers, columnToUpdate)
	if col == 0 {
		return h.done(ctx, op, start, newError(op, ErrNotFound, fmt.Errorf("column to update %q not found", columnToUpdate)), attrs...)
	}

	current, err := ws.RowValues(ctx, row)
	if err != nil {
		return h.done(ctx, op, start, classify(op, fmt.Errorf("re-read row %d: %w", row, err)), attrs...)
	}
	idCol = columnIndex(headers, identifierColumn)
	if idCol == 0 || idCol > len(current) || current[idCol-1] != id {
		return h.done(ctx, op, start, newError(op, ErrConflict, fmt.Errorf("row %d no longer holds %s = %s", row, identifierColumn, id)), attrs...)
	}

	if err := ws.UpdateCell(ctx, row, col, newValue); err != nil {
		return h.done(ctx, op, start, classify(op, fmt.Errorf("write row %d column %d: %w", row, col, err)), attrs...)
	}

	h.logger.Info("record updated", append(attrs, "row", row, "value", newValue)...)
	return h.done(ctx, op, start, nil)
}

// AppendRow adds values as a new row at the end of the first worksheet.
// Values are interpreted as if typed by a user, so numbers and formulas
// are parsed by the backend.
func (h *Handler) AppendRow(ctx context.Context, address string, values []interface{}) error {
	const op = "AppendRow"
	start := time.Now()
	return h.done(ctx, op, start, h.appendRow(ctx, op, address, values), "address", address)
}

func (h *Handler) appendRow(ctx context.Context, op, address string, values []interface{}) error {
	ws, err := h.worksheet(ctx, op, address)
	if err != nil {
		return err
	}
	if err := ws.AppendRow(ctx, values, InputUserEntered); err != nil {
		return classify(op, fmt.Errorf("append row: %w", err))
	}
	return nil
}

// done records metrics and logs the failure, if any. Lookup misses are
// warnings; everything else is an error.
func (h *Handler) done(ctx context.Context, op string, start time.Time, err error, attrs ...any) error {
	h.metrics.observe(op, start, err)
	if err == nil {
		return nil
	}

	level := slog.LevelError
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, op+" failed", append(attrs, "error", err)...)
	return err
}
