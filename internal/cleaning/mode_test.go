package cleaning

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeValueAndCount(t *testing.T) {
	tests := []struct {
		name      string
		values    []any
		wantValue float64
		wantCount int
	}{
		{"ints", []any{int64(3), int64(1), int64(3), int64(2)}, 3, 2},
		{"nulls ignored", []any{nil, 2.5, math.NaN(), 2.5, nil, nil}, 2.5, 2},
		{"mixed numeric", []any{1, int64(1), 1.0, 7.0}, 1, 3},
		{"tie goes to smallest", []any{int64(9), int64(4), int64(9), int64(4)}, 4, 2},
		{"single", []any{-1.5}, -1.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ModeValue(tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, v)

			n, err := ModeCount(tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, n)
		})
	}
}

func TestMode_Errors(t *testing.T) {
	_, err := ModeValue([]any{int64(1), "two"})
	assert.Error(t, err)

	_, err = ModeCount([]any{nil, math.NaN()})
	assert.ErrorIs(t, err, ErrNoValues)

	_, err = ModeValue(nil)
	assert.ErrorIs(t, err, ErrNoValues)
}
