package intent

import (
	"math"
)

// Params holds the decoded "params" object. Values are the JSON types
// produced by the decoder: float64, string, bool, nil, map[string]any, []any.
type Params map[string]any

// Float returns the numeric value of key, or def when it is absent or not a number.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// Int returns the numeric value of key truncated toward zero, or def.
// Values beyond the int32 range saturate.
func (p Params) Int(key string, def int) int {
	f := p.Float(key, math.NaN())
	if math.IsNaN(f) {
		return def
	}
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

// String returns the string value of key, or def when it is absent or not a string.
func (p Params) String(key string, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}
