package currency

import (
	"fmt"
)

type CurrencyUtils struct{}

func NewCurrencyUtils() *CurrencyUtils {
	return &CurrencyUtils{}
}

// SplitEven divides totalCents across n parts. Any remainder not evenly
// divisible goes to the final part, so the parts always sum back to totalCents.
func (u *CurrencyUtils) SplitEven(totalCents int64, n int) []int64 {
	if n <= 0 {
		return nil
	}

	base := totalCents / int64(n)
	remainder := totalCents - base*int64(n)

	parts := make([]int64, n)
	for i := range parts {
		parts[i] = base
	}
	parts[n-1] += remainder

	return parts
}

// CentsToMajor converts minor units to major units for display
func (u *CurrencyUtils) CentsToMajor(cents int64) float64 {
	return float64(cents) / 100.0
}

// Format formats minor units as a currency string
func (u *CurrencyUtils) Format(cents int64, code string) string {
	return fmt.Sprintf("%s %.2f", code, u.CentsToMajor(cents))
}
