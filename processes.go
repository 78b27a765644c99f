package sheetproc

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Operations on the processes sheet named by procesos_sheet_url. The first
// column holds the process number and a status column holds the active or
// inactive marker.

func (h *Handler) processesSheet(op string) (string, error) {
	if h.config == nil {
		return "", newError(op, ErrConfig, errors.New("no configuration loaded"))
	}
	if h.config.ProcessesSheetURL == "" {
		return "", newError(op, ErrConfig, errors.New("procesos_sheet_url is not configured"))
	}
	return h.config.ProcessesSheetURL, nil
}

// GetAllProcessNumbers returns the first column of the processes sheet
// without its header, in row order
func (h *Handler) GetAllProcessNumbers(ctx context.Context) ([]string, error) {
	const op = "GetAllProcessNumbers"
	start := time.Now()

	if !h.Authenticated() {
		return []string{}, h.done(ctx, op, start, newError(op, ErrNotAuthenticated, errors.New("client is not authenticated")))
	}
	address, err := h.processesSheet(op)
	if err != nil {
		return []string{}, h.done(ctx, op, start, err)
	}
	ws, err := h.worksheet(ctx, op, address)
	if err != nil {
		return []string{}, h.done(ctx, op, start, err, "address", address)
	}

	h.logger.Info("reading process numbers", "address", address)
	column, err := ws.ColValues(ctx, 1)
	if err != nil {
		return []string{}, h.done(ctx, op, start, classify(op, fmt.Errorf("read process numbers: %w", err)), "address", address)
	}

	numbers := make([]string, 0, len(column))
	if len(column) > 1 {
		numbers = append(numbers, column[1:]...)
	}
	return numbers, h.done(ctx, op, start, nil)
}

// DeactivateAllProcesses rewrites every active marker in the status column
// to the inactive marker and returns how many cells were changed.
//
// The status column is resolved by header name at call time when
// procesos_status_column is set, otherwise by position. Cells are written
// one by one: if a write fails the earlier writes stay applied, and the
// returned count reflects them.
func (h *Handler) DeactivateAllProcesses(ctx context.Context) (int, error) {
	const op = "DeactivateAllProcesses"
	start := time.Now()

	if !h.Authenticated() {
		return 0, h.done(ctx, op, start, newError(op, ErrNotAuthenticated, errors.New("client is not authenticated")))
	}
	address, err := h.processesSheet(op)
	if err != nil {
		return 0, h.done(ctx, op, start, err)
	}
	ws, err := h.worksheet(ctx, op, address)
	if err != nil {
		return 0, h.done(ctx, op, start, err, "address", address)
	}

	col := h.config.StatusColumnIndex
	if name := h.config.StatusColumn; name != "" {
		headers, err := ws.RowValues(ctx, 1)
		if err != nil {
			return 0, h.done(ctx, op, start, classify(op, fmt.Errorf("read headers: %w", err)), "address", address)
		}
		if col = columnIndex(headers, name); col == 0 {
			return 0, h.done(ctx, op, start, newError(op, ErrNotFound, fmt.Errorf("status column %q not found", name)), "address", address)
		}
	}

	active, inactive := h.config.ActiveMarker, h.config.InactiveMarker
	cells, err := findCells(ctx, ws, active, col, 2, 0)
	if err != nil {
		return 0, h.done(ctx, op, start, classify(op, fmt.Errorf("find %q in column %d: %w", active, col, err)), "address", address)
	}

	changed := 0
	for _, cell := range cells {
		if err := ws.UpdateCell(ctx, cell.Row, cell.Col, inactive); err != nil {
			h.metrics.deactivated(changed)
			return changed, h.done(ctx, op, start, classify(op, fmt.Errorf("write row %d: %w", cell.Row, err)), "address", address, "changed", changed, "pending", len(cells)-changed)
		}
		changed++
	}

	h.metrics.deactivated(changed)
	h.logger.Info("processes deactivated", "address", address, "column", col, "count", changed)
	return changed, h.done(ctx, op, start, nil)
}

// AddNewProcess appends values as a new row of the processes sheet.
// Identical calls append identical rows; nothing is deduplicated.
func (h *Handler) AddNewProcess(ctx context.Context, values []interface{}) error {
	const op = "AddNewProcess"
	start := time.Now()

	if !h.Authenticated() {
		return h.done(ctx, op, start, newError(op, ErrNotAuthenticated, errors.New("client is not authenticated")))
	}
	address, err := h.processesSheet(op)
	if err != nil {
		return h.done(ctx, op, start, err)
	}
	if err := h.appendRow(ctx, op, address, values); err != nil {
		return h.done(ctx, op, start, err, "address", address)
	}

	h.logger.Info("process added", "address", address)
	return h.done(ctx, op, start, nil)
}
