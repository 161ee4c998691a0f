package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitEven(t *testing.T) {
	u := NewCurrencyUtils()

	tests := []struct {
		name  string
		total int64
		n     int
		want  []int64
	}{
		{"even two-way", 100000, 2, []int64{50000, 50000}},
		{"odd remainder to last", 100001, 2, []int64{50000, 50001}},
		{"three-way with remainder", 100, 3, []int64{33, 33, 34}},
		{"single part", 30000000, 1, []int64{30000000}},
		{"zero total", 0, 2, []int64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := u.SplitEven(tt.total, tt.n)
			assert.Equal(t, tt.want, parts)

			var sum int64
			for _, p := range parts {
				sum += p
			}
			assert.Equal(t, tt.total, sum, "parts must sum back to the total")
		})
	}
}

func TestSplitEvenInvalidCount(t *testing.T) {
	u := NewCurrencyUtils()
	assert.Nil(t, u.SplitEven(1000, 0))
	assert.Nil(t, u.SplitEven(1000, -1))
}

func TestFormat(t *testing.T) {
	u := NewCurrencyUtils()

	assert.Equal(t, "NGN 500.00", u.Format(50000, "NGN"))
	assert.Equal(t, "NGN 500.01", u.Format(50001, "NGN"))
	assert.Equal(t, "USD 0.09", u.Format(9, "USD"))
}
