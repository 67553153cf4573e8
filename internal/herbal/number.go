package herbal

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingNumber = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)

// Number is a lenient float that accepts JSON numbers, numeric strings and
// null. Anything unparsable decodes to zero instead of failing the document.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*n = 0
		return nil
	}
	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		*n = 0
		return nil
	}
	*n = Number(ParseNumber(raw))
	return nil
}

// Float returns the value as a float64.
func (n Number) Float() float64 {
	return float64(n)
}

// ParseNumber coerces a decoded JSON value into a float64 using best-effort
// parsing. Unparsable, infinite and NaN values yield zero.
func ParseNumber(value any) float64 {
	var out float64
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		out = v
	case float32:
		out = float64(v)
	case int:
		out = float64(v)
	case int64:
		out = float64(v)
	case uint:
		out = float64(v)
	case Number:
		out = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0
		}
		out = parsed
	case string:
		out = parseNumericString(v)
	default:
		return 0
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0
	}
	return out
}

func parseNumericString(value string) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return parsed
	}
	// Values such as "3 g" or "12.5%" keep their leading magnitude.
	prefix := leadingNumber.FindString(trimmed)
	if prefix == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0
	}
	return parsed
}
