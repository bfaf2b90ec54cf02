// Package format holds the bidirectional value formatters that attribute
// descriptors may name as their coercion target, plus the plain-type
// conversion helpers used for constructor-style coercion.
package format

import (
	"fmt"
	"strconv"
)

// Formatter performs bidirectional transformation between the wire
// representation of a field and its client-side representation. Descriptors
// detect this capability by interface satisfaction, not by a fixed type list.
type Formatter interface {
	// Serialize converts a client-side value into its wire form.
	Serialize(v any) (any, error)
	// Deserialize converts a wire value into its client-side form.
	Deserialize(v any) (any, error)
}

// BoolStr maps the server-style capitalized "True"/"False" strings to bool.
var BoolStr Formatter = boolStr{}

type boolStr struct{}

func (boolStr) Deserialize(v any) (any, error) {
	switch expr := fmt.Sprintf("%v", v); expr {
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE":
		return false, nil
	default:
		return nil, fmt.Errorf("format: unable to deserialize boolean string: %v", v)
	}
}

func (boolStr) Serialize(v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("format: unable to serialize boolean string: %v", v)
	}
	if b {
		return "True", nil
	}
	return "False", nil
}

// ---- plain-type conversions ----
//
// Each helper is the constructor analog for a descriptor's plain type: it
// returns the value unchanged when it already has the target type and
// converts it otherwise.

// ToInt coerces numeric and string values to int.
func ToInt(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return nil, fmt.Errorf("format: not an integer: %q", n)
		}
		return i, nil
	default:
		return nil, fmt.Errorf("format: cannot convert %T to int", v)
	}
}

// ToFloat coerces numeric and string values to float64.
func ToFloat(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil, fmt.Errorf("format: not a float: %q", n)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("format: cannot convert %T to float64", v)
	}
}

// ToString renders any value through the default formatting verb.
func ToString(v any) (any, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprintf("%v", v), nil
}

// ToBool coerces bools and truthy strings ("true"/"false", any case) to bool.
func ToBool(v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	if s, ok := v.(string); ok {
		b, err := strconv.ParseBool(s)
		if err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("format: cannot convert %T to bool", v)
}
