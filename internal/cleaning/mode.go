package cleaning

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	apperrors "tbsu/internal/errors"
	"tbsu/internal/frame"
)

// ErrNoValues is returned when a column has no non-null values
var ErrNoValues = errors.New("no non-null values")

// ModeValue returns the most common numeric value, ignoring nulls. Ties go
// to the smallest value.
func ModeValue(values []any) (float64, error) {
	v, _, err := mode(values)
	return v, err
}

// ModeCount returns how often the most common numeric value occurs
func ModeCount(values []any) (int, error) {
	_, n, err := mode(values)
	return n, err
}

func mode(values []any) (float64, int, error) {
	xs := make([]float64, 0, len(values))
	for i, v := range values {
		if frame.IsNull(v) {
			continue
		}
		x, ok := toFloat(v)
		if !ok {
			return 0, 0, apperrors.NewValidationError(
				fmt.Sprintf("value %v at row %d is not numeric", v, i), nil).WithContext("row", i)
		}
		xs = append(xs, x)
	}
	if len(xs) == 0 {
		return 0, 0, apperrors.NewValidationError("cannot take the mode", ErrNoValues)
	}

	// stat.Mode picks an arbitrary value among ties; only its count is
	// used, and the smallest value with that count is the mode.
	_, count := stat.Mode(xs, nil)

	sort.Float64s(xs)
	for start := 0; start < len(xs); {
		end := start
		for end < len(xs) && xs[end] == xs[start] {
			end++
		}
		if float64(end-start) == count {
			return xs[start], int(count), nil
		}
		start = end
	}
	return xs[0], int(count), nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	default:
		return 0, false
	}
}
