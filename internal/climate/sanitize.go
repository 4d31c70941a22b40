package climate

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Verdict describes how Sanitize arrived at its value.
type Verdict int

const (
	// VerdictParsed means the raw value was a non-negative integer literal.
	VerdictParsed Verdict = iota

	// VerdictEmpty means the raw value was nil or the empty string.
	VerdictEmpty

	// VerdictRejected means the raw value was not an integer literal and was
	// replaced with 0. Callers log these at warning level.
	VerdictRejected
)

// String returns a short name for logging.
func (v Verdict) String() string {
	switch v {
	case VerdictParsed:
		return "parsed"
	case VerdictEmpty:
		return "empty"
	case VerdictRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Sanitize coerces one raw packet value for field f into an option value.
// It never panics: nil and "" yield 0, any value whose textual form is not a
// non-negative base-10 integer yields 0 with VerdictRejected. Every field of
// the vocabulary is numeric; a field outside it is always rejected.
func Sanitize(f Field, raw any) (int, Verdict) {
	if !f.Valid() {
		return 0, VerdictRejected
	}
	if raw == nil {
		return 0, VerdictEmpty
	}

	text := rawText(raw)
	if text == "" {
		return 0, VerdictEmpty
	}
	if !isDigits(text) {
		return 0, VerdictRejected
	}

	n, err := strconv.Atoi(text)
	if err != nil {
		// Digits only, so this is an overflow.
		return 0, VerdictRejected
	}
	return n, VerdictParsed
}

// rawText renders raw the way the device firmware would print it.
func rawText(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "nan"
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// isDigits reports whether s consists solely of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
