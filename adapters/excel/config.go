package excel

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds configuration for the Excel adapter
type Config struct {
	// BaseDir is the directory relative workbook addresses resolve against.
	// Empty means the working directory.
	BaseDir string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return nil
	}
	info, err := os.Stat(c.BaseDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBaseDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidBaseDir, c.BaseDir)
	}
	return nil
}

// resolve maps a workbook address onto a file path
func (c *Config) resolve(address string) (string, error) {
	if address == "" {
		return "", ErrMissingAddress
	}
	if filepath.IsAbs(address) || c.BaseDir == "" {
		return filepath.Clean(address), nil
	}
	return filepath.Join(c.BaseDir, address), nil
}
