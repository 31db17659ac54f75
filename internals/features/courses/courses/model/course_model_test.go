package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFee(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"3000", 3000, true},
		{" Rp 3.000 ", 3000, true},
		{"1,500", 1500, true},
		{"1500.00", 1500, true},
		{"1500,50", 1501, true},
		{"1500,4", 1500, true},
		{"1.500,00", 1500, true},
		{"1,500.00", 1500, true},
		{"Rp 1.250.000", 1250000, true},
		{"1.5000", 0, false},
		{"12.34.567", 0, false},
		{"1500.", 0, false},
		{"0.40", 0, false},
		{"0", 0, false},
		{"-10", 0, false},
		{"free", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseFee(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
