package mapsafe

import "strconv"

// Get retrieves a typed value from a map[string]any.
// Numbers decoded from JSON (float64) and numeric strings coming from form
// fields are converted; anything else falls back to defaultValue.
func Get[T any](m map[string]any, key string, defaultValue T) T {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}

	switch any(defaultValue).(type) {
	case int:
		switch x := val.(type) {
		case int:
			return any(x).(T)
		case int64:
			return any(int(x)).(T)
		case float64:
			return any(int(x)).(T)
		case string:
			if n, err := strconv.Atoi(x); err == nil {
				return any(n).(T)
			}
		}
	case float64:
		switch x := val.(type) {
		case float64:
			return any(x).(T)
		case int:
			return any(float64(x)).(T)
		case string:
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				return any(f).(T)
			}
		}
	case string:
		if s, ok := val.(string); ok {
			return any(s).(T)
		}
	case bool:
		switch x := val.(type) {
		case bool:
			return any(x).(T)
		case string:
			if b, err := strconv.ParseBool(x); err == nil {
				return any(b).(T)
			}
		}
	default:
		if v, ok := val.(T); ok {
			return v
		}
	}

	return defaultValue
}

// Clone returns a shallow copy of m that is safe to mutate.
func Clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
