package sheetproc

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Record is one data row keyed by header name
type Record struct {
	Row    int                    `json:"row"`    // sheet row number, data starts at 2
	Values map[string]interface{} `json:"values"` // header -> cell value
}

// recordsFromValues builds records from a grid whose first row is the header.
// Short rows are padded with "" and numeric cells become int64 or float64.
func recordsFromValues(values [][]string) []*Record {
	records := make([]*Record, 0)
	if len(values) < 2 {
		return records
	}

	headers := values[0]
	for i, row := range values[1:] {
		record := &Record{
			Row:    i + 2,
			Values: make(map[string]interface{}, len(headers)),
		}
		for j, header := range headers {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			record.Values[header] = numericise(cell)
		}
		records = append(records, record)
	}
	return records
}

// numericise converts integer and decimal strings, leaving everything else untouched
func numericise(v string) interface{} {
	if v == "" {
		return v
	}
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return v
}

// Headers returns the record's column names in sorted order
func (r *Record) Headers() []string {
	headers := make([]string, 0, len(r.Values))
	for h := range r.Values {
		headers = append(headers, h)
	}
	sort.Strings(headers)
	return headers
}

// GetAsString returns the cell as text, or defaultValue if the column is absent
func (r *Record) GetAsString(col string, defaultValue string) string {
	v, ok := r.Values[col]
	if !ok || v == nil {
		return defaultValue
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// GetAsInt64 returns the cell as an integer, or defaultValue if absent or not numeric
func (r *Record) GetAsInt64(col string, defaultValue int64) int64 {
	switch val := r.Values[col].(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

// GetAsFloat64 returns the cell as a float, or defaultValue if absent or not numeric
func (r *Record) GetAsFloat64(col string, defaultValue float64) float64 {
	switch val := r.Values[col].(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetAsBool interprets TRUE/FALSE, 1/0 and the marker pair SI/NO
func (r *Record) GetAsBool(col string, defaultValue bool) bool {
	switch val := r.Values[col].(type) {
	case bool:
		return val
	case int64:
		return val != 0
	case float64:
		return val != 0
	case string:
		switch strings.ToUpper(strings.TrimSpace(val)) {
		case "TRUE", "1", DefaultActiveMarker:
			return true
		case "FALSE", "0", DefaultInactiveMarker:
			return false
		}
	}
	return defaultValue
}

// GetAsTime parses RFC 3339 and the date formats the sheet UI produces
func (r *Record) GetAsTime(col string, defaultValue time.Time) time.Time {
	switch val := r.Values[col].(type) {
	case time.Time:
		return val
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02", "02/01/2006", "02/01/2006 15:04:05"} {
			if t, err := time.Parse(layout, strings.TrimSpace(val)); err == nil {
				return t
			}
		}
	}
	return defaultValue
}
