package query

import (
	"encoding/json"
	"strings"
)

// ColumnType is the closed enumeration of column types surfaced to callers.
// Engine type parameters (precision, element types) are stripped.
type ColumnType string

// Column types.
const (
	TypeString    ColumnType = "string"
	TypeInteger   ColumnType = "integer"
	TypeDecimal   ColumnType = "decimal"
	TypeBoolean   ColumnType = "boolean"
	TypeDate      ColumnType = "date"
	TypeTimestamp ColumnType = "timestamp"
	TypeStruct    ColumnType = "struct"
	TypeArray     ColumnType = "array"
)

// NormalizeColumnType maps an engine-declared type such as "decimal(10,2)"
// or "array(varchar)" onto the closed enumeration. Unrecognized types fall
// back to string, which is lossless since the engine delivers every cell as
// text.
func NormalizeColumnType(engineType string) ColumnType {
	base := strings.ToLower(engineType)
	if i := strings.IndexAny(base, "(<"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSpace(base)

	switch base {
	case "tinyint", "smallint", "int", "integer", "bigint":
		return TypeInteger
	case "decimal", "double", "float", "real":
		return TypeDecimal
	case "boolean":
		return TypeBoolean
	case "date":
		return TypeDate
	case "timestamp", "timestamp with time zone", "time":
		return TypeTimestamp
	case "row", "struct", "map":
		return TypeStruct
	case "array":
		return TypeArray
	default:
		return TypeString
	}
}

// Value is one result cell: a closed tagged variant over the engine's
// loosely typed output. A null marker from the engine is distinct from an
// empty string. Decimal values keep the engine's exact textual form so no
// precision is lost to floating point; dates and timestamps pass through in
// the engine's canonical string form.
type Value struct {
	Type ColumnType
	Text string
	Null bool
}

// NullValue returns the explicit null cell for a column type.
func NullValue(t ColumnType) Value {
	return Value{Type: t, Null: true}
}

// MarshalJSON renders integers and booleans natively, nulls as JSON null,
// and everything else (including decimals) as the exact engine text.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Null {
		return []byte("null"), nil
	}
	switch v.Type {
	case TypeInteger:
		if isIntegerText(v.Text) {
			return []byte(v.Text), nil
		}
	case TypeBoolean:
		if v.Text == "true" || v.Text == "false" {
			return []byte(v.Text), nil
		}
	}
	return json.Marshal(v.Text) //nolint:wrapcheck // plain string marshal
}

// isIntegerText reports whether s is a valid JSON integer literal.
func isIntegerText(s string) bool {
	if s == "" {
		return false
	}
	digits := s
	if s[0] == '-' || s[0] == '+' {
		if s[0] == '+' {
			// JSON forbids a leading plus.
			return false
		}
		digits = s[1:]
	}
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
