package excel

import (
	"errors"
	"fmt"

	sheetproc "github.com/ideamans/go-sheetproc"
)

var (
	// ErrMissingAddress is returned when a workbook address is empty
	ErrMissingAddress = fmt.Errorf("workbook address is required: %w", sheetproc.ErrValidation)

	// ErrInvalidBaseDir is returned when Config.BaseDir is not a usable directory
	ErrInvalidBaseDir = errors.New("invalid base directory")

	// ErrWorkbookNotFound is returned when no file exists at the address
	ErrWorkbookNotFound = fmt.Errorf("workbook not found: %w", sheetproc.ErrNotFound)

	// ErrNoWorksheet is returned when a workbook has no sheets
	ErrNoWorksheet = fmt.Errorf("workbook has no worksheets: %w", sheetproc.ErrNotFound)

	// ErrInvalidFileFormat is returned when the file is not a valid Excel file
	ErrInvalidFileFormat = errors.New("invalid Excel file format")
)
