package fieldmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errNotScalar = errors.New("must be a scalar value")

// Text coerces scalars to a trimmed string. Nil stays nil so that an explicit
// null clears the column; objects and arrays are rejected.
func Text(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return strings.TrimSpace(x), nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x), nil
	case map[string]any, []any:
		return nil, errNotScalar
	case fmt.Stringer:
		return x.String(), nil
	default:
		return nil, errNotScalar
	}
}

// Lower is Text followed by lower-casing.
func Lower(v any) (any, error) {
	t, err := Text(v)
	if err != nil || t == nil {
		return t, err
	}
	return strings.ToLower(t.(string)), nil
}
