package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"(50,00)", "-50.00"},
		{"-12,5", "-12.50"},
		{"12,50-", "-12.50"},
		{"€ 1.000,00", "1000.00"},
		{"EUR -7,10", "-7.10"},
		{"1234", "1234.00"},
		{"0,00", "0.00"},
		// A lone dot is decimal, not thousands.
		{"1.234", "1.23"},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		if assert.True(t, ok, "ParseAmount(%q)", tt.in) {
			assert.Equal(t, tt.want, got.StringFixed(2), "ParseAmount(%q)", tt.in)
		}
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "-", "1,234,56", "1.2.3"} {
		_, ok := ParseAmount(in)
		assert.False(t, ok, "ParseAmount(%q)", in)
	}
}
