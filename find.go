package sheetproc

import (
	"context"
	"fmt"
)

// Cell is a single located cell. Row and Col are 1-based.
type Cell struct {
	Row   int
	Col   int
	Value string
}

// FindCell returns the first cell whose value equals value, scanning rows
// top to bottom and, within a row, left to right. col restricts the search
// to one column; 0 searches the whole worksheet.
func FindCell(ctx context.Context, ws Worksheet, value string, col int) (*Cell, error) {
	cells, err := findCells(ctx, ws, value, col, 1, 1)
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return nil, newError("FindCell", ErrNotFound, fmt.Errorf("no cell with value %q", value))
	}
	return &cells[0], nil
}

// FindAllCells returns every cell whose value equals value, in the same
// order as FindCell. An empty result is not an error.
func FindAllCells(ctx context.Context, ws Worksheet, value string, col int) ([]Cell, error) {
	return findCells(ctx, ws, value, col, 1, 0)
}

// findCells scans from fromRow on and stops after limit matches (0 = all)
func findCells(ctx context.Context, ws Worksheet, value string, col, fromRow, limit int) ([]Cell, error) {
	cells := make([]Cell, 0)

	if col > 0 {
		column, err := ws.ColValues(ctx, col)
		if err != nil {
			return nil, err
		}
		for i := fromRow - 1; i < len(column); i++ {
			if column[i] == value {
				cells = append(cells, Cell{Row: i + 1, Col: col, Value: column[i]})
				if limit > 0 && len(cells) == limit {
					break
				}
			}
		}
		return cells, nil
	}

	rows, err := ws.Values(ctx)
	if err != nil {
		return nil, err
	}
	for i := fromRow - 1; i < len(rows); i++ {
		for j, v := range rows[i] {
			if v == value {
				cells = append(cells, Cell{Row: i + 1, Col: j + 1, Value: v})
				if limit > 0 && len(cells) == limit {
					return cells, nil
				}
			}
		}
	}
	return cells, nil
}

// columnIndex returns the 1-based position of header, or 0 if absent
func columnIndex(headers []string, header string) int {
	for i, h := range headers {
		if h == header {
			return i + 1
		}
	}
	return 0
}
