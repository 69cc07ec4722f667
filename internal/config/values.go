package config

import (
	"fmt"

	"github.com/spf13/cast"
)

// AsString accepts strings and scalars decoded from JSON or YAML and
// renders them as text. key is used in error messages.
func AsString(key string, v any) (string, error) {
	switch v.(type) {
	case map[string]any, []any, nil:
		return "", fmt.Errorf("%s: want string, got %T", key, v)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return s, nil
}

// AsBool accepts booleans and the strings "true"/"false".
func AsBool(key string, v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := cast.ToBoolE(t)
		if err == nil {
			return b, nil
		}
	}
	return false, fmt.Errorf("%s: want bool, got %v", key, v)
}

// AsInt accepts integral numbers and numeric strings.
func AsInt(key string, v any) (int64, error) {
	if f, ok := v.(float64); ok && f != float64(int64(f)) {
		return 0, fmt.Errorf("%s: want integer, got %v", key, v)
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, fmt.Errorf("%s: want integer, got %v", key, v)
	}
	return n, nil
}
