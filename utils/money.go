package utils

import (
	"fmt"
	"math"
)

// RoundRupees rounds a rupee amount half-up to the nearest whole rupee.
// Order totals are quoted in whole rupees; 985.5 rounds to 986.
func RoundRupees(value float64) int {
	return int(math.Round(value))
}

// ToMinorUnits converts whole rupees to paise for the payment gateway.
func ToMinorUnits(rupees int) int64 {
	return int64(rupees) * 100
}

// FormatINR renders a minor-unit amount as a display string, e.g. "₹657.00".
func FormatINR(paise int64) string {
	return fmt.Sprintf("₹%d.%02d", paise/100, paise%100)
}
