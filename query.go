package sheetproc

import (
	"fmt"
	"strconv"
	"strings"
)

// Condition is a single comparison against a record column
type Condition struct {
	Column   string
	Operator string      // ==, !=, >, >=, <, <=, in, between
	Value    interface{} // []interface{} for in, two elements for between
}

// Query selects records whose columns satisfy every condition
type Query struct {
	Conditions []Condition
	Limit      int
	Offset     int
}

var operators = []string{"==", "!=", ">=", "<=", ">", "<", "in", "between"}

// ParseCondition parses expressions such as "estado==SI" or "monto>=100".
// The operator is the first one in the expression, so values may contain
// operator characters. A single "=" is accepted as "==". Numeric operands
// are converted.
func ParseCondition(expr string) (Condition, error) {
	i := strings.IndexAny(expr, "=!<>")
	if i <= 0 {
		return Condition{}, newError("ParseCondition", ErrValidation, fmt.Errorf("no operator in %q", expr))
	}

	op := expr[i : i+1]
	if i+1 < len(expr) && expr[i+1] == '=' {
		op = expr[i : i+2]
	}
	column := strings.TrimSpace(expr[:i])
	value := strings.TrimSpace(expr[i+len(op):])

	switch op {
	case "!":
		return Condition{}, newError("ParseCondition", ErrValidation, fmt.Errorf("no operator in %q", expr))
	case "=":
		op = "=="
	}
	return Condition{Column: column, Operator: op, Value: numericise(value)}, nil
}

// Matches reports whether the record satisfies every condition of the query
func (r *Record) Matches(query Query) bool {
	for _, cond := range query.Conditions {
		if !cond.eval(r.Values[cond.Column]) {
			return false
		}
	}
	return true
}

func (c Condition) eval(v interface{}) bool {
	switch c.Operator {
	case "==":
		return equal(v, c.Value)
	case "!=":
		return !equal(v, c.Value)
	case ">", ">=", "<", "<=":
		a, aok := toFloat64(v)
		b, bok := toFloat64(c.Value)
		if !aok || !bok {
			return false
		}
		switch c.Operator {
		case ">":
			return a > b
		case ">=":
			return a >= b
		case "<":
			return a < b
		default:
			return a <= b
		}
	case "in":
		list, _ := c.Value.([]interface{})
		for _, item := range list {
			if equal(v, item) {
				return true
			}
		}
		return false
	case "between":
		lo, hi, ok := bounds(c.Value)
		if !ok {
			return false
		}
		a, aok := toFloat64(v)
		l, lok := toFloat64(lo)
		h, hok := toFloat64(hi)
		return aok && lok && hok && a >= l && a <= h
	}
	return false
}

func bounds(v interface{}) (interface{}, interface{}, bool) {
	switch b := v.(type) {
	case [2]interface{}:
		return b[0], b[1], true
	case []interface{}:
		if len(b) == 2 {
			return b[0], b[1], true
		}
	}
	return nil, nil, false
}

func equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := toFloat64(a); ok {
		if y, ok := toFloat64(b); ok {
			return x == y
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// toFloat64 accepts Go numbers and numeric strings, as cells are often both
func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// ApplyQuery filters records and applies Offset then Limit
func ApplyQuery(records []*Record, query Query) []*Record {
	results := make([]*Record, 0)
	for _, record := range records {
		if record.Matches(query) {
			results = append(results, record)
		}
	}

	if query.Offset > 0 {
		if query.Offset >= len(results) {
			return []*Record{}
		}
		results = results[query.Offset:]
	}
	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}
	return results
}

// ValidateQuery rejects unknown operators, malformed operands and negative paging
func ValidateQuery(query Query) error {
	for i, cond := range query.Conditions {
		if cond.Column == "" {
			return newError("ValidateQuery", ErrValidation, fmt.Errorf("empty column name in condition %d", i))
		}
		known := false
		for _, op := range operators {
			if cond.Operator == op {
				known = true
				break
			}
		}
		if !known {
			return newError("ValidateQuery", ErrValidation, fmt.Errorf("invalid operator '%s' in condition %d", cond.Operator, i))
		}
		if cond.Operator == "in" {
			if _, ok := cond.Value.([]interface{}); !ok {
				return newError("ValidateQuery", ErrValidation, fmt.Errorf("operator 'in' requires []interface{} value in condition %d", i))
			}
		}
		if cond.Operator == "between" {
			if _, _, ok := bounds(cond.Value); !ok {
				return newError("ValidateQuery", ErrValidation, fmt.Errorf("operator 'between' requires two bounds in condition %d", i))
			}
		}
	}
	if query.Limit < 0 {
		return newError("ValidateQuery", ErrValidation, fmt.Errorf("limit must be non-negative"))
	}
	if query.Offset < 0 {
		return newError("ValidateQuery", ErrValidation, fmt.Errorf("offset must be non-negative"))
	}
	return nil
}
