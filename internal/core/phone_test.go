package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5551234567", "(555) 123-4567"},
		{"555.123.4567", "(555) 123-4567"},
		{"(555)123-4567", "(555) 123-4567"},
		{"15551234567", "+1 (555) 123-4567"},
		{"+44 20 7946 0958", "+44 (207) 946-0958"},
		{"12345678", "(123) 456-78"},
		{"1234567", "1234567"},
		{"12-34", "1234"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPhone(tt.in))
		})
	}
}
