package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCamelToSnake(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"CamelCase", "camel_case"},
		{"getHTTPResponse", "get_http_response"},
		{"already_snake", "already_snake"},
		{"Column2Name", "column2_name"},
		{"ABC", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CamelToSnake(tt.in))
		})
	}
}

func TestCleanString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Sales & Marketing ", "sales_and_marketing"},
		{"Total Revenue (USD)", "total_revenue_usd"},
		{"First  Name", "first_name"},
		{"userID", "user_id"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanString(tt.in))
		})
	}
}
