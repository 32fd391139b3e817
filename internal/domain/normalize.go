package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// NormalizeText trims leading/trailing whitespace. It is applied to text fields
// on both the read and the write path.
func NormalizeText(s string) string {
	return strings.TrimSpace(s)
}

// IsBlank reports whether a raw input value counts as "not supplied":
// nil, or a string that is empty after trimming.
func IsBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return NormalizeText(t) == ""
	case json.Number:
		return NormalizeText(string(t)) == ""
	default:
		return false
	}
}

// CoerceText converts an arbitrary scalar into trimmed text. nil becomes "".
func CoerceText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return NormalizeText(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return NormalizeText(fmt.Sprint(t))
	}
}

// CoerceInt converts an arbitrary scalar into an int. Anything that is not a
// finite number (or a numeric string) becomes 0. Fractions are truncated.
func CoerceInt(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case int:
		return t
	case int8:
		return int(t)
	case int16:
		return int(t)
	case int32:
		return int(t)
	case int64:
		return int(t)
	case uint:
		return int(t)
	case uint8:
		return int(t)
	case uint16:
		return int(t)
	case uint32:
		return int(t)
	case uint64:
		return int(t)
	case float32:
		return floatToInt(float64(t))
	case float64:
		return floatToInt(t)
	case json.Number:
		return CoerceInt(string(t))
	case string:
		s := NormalizeText(t)
		if s == "" {
			return 0
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
		return 0
	default:
		return 0
	}
}

func floatToInt(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0
	}
	return int(f)
}

// CoerceAmount converts an arbitrary scalar into a non-negative amount.
// Unparsable, non-finite or negative input becomes 0.
func CoerceAmount(v any) float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		return CoerceAmount(string(t))
	case string:
		s := NormalizeText(t)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// CoerceDate converts an arbitrary scalar into an ISO calendar date string.
// Values that cannot be read as a date yield fallback.
func CoerceDate(v any, fallback string) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return fallback
		}
		return t.Format(openapi_types.DateFormat)
	case openapi_types.Date:
		if t.IsZero() {
			return fallback
		}
		return t.Format(openapi_types.DateFormat)
	case string:
		s := NormalizeText(t)
		if s == "" {
			return fallback
		}
		var d openapi_types.Date
		if err := d.UnmarshalJSON([]byte(strconv.Quote(s))); err == nil {
			return d.Format(openapi_types.DateFormat)
		}
		for _, layout := range dateTimeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.Format(openapi_types.DateFormat)
			}
		}
		return fallback
	default:
		return fallback
	}
}

// DecodeRow builds a Member from a stored row laid out in Labels order.
// It never fails: missing or malformed cells take their field defaults, and an
// undecodable registration date becomes "".
func DecodeRow(cells []any) Member {
	cell := func(i int) any {
		if i < len(cells) {
			return cells[i]
		}
		return nil
	}
	return Member{
		ID:               MemberID(CoerceInt(cell(0))),
		Name:             CoerceText(cell(1)),
		MembershipNumber: CoerceInt(cell(2)),
		UnitNumber:       CoerceInt(cell(3)),
		BuildingNumber:   CoerceInt(cell(4)),
		District:         CoerceText(cell(5)),
		AmountPaid:       CoerceAmount(cell(6)),
		RegistrationDate: CoerceDate(cell(7), ""),
	}
}

// MatchesName reports whether name contains query, ignoring case and surrounding whitespace.
func MatchesName(name, query string) bool {
	q := strings.ToLower(NormalizeText(query))
	return strings.Contains(strings.ToLower(name), q)
}
