// Package overtime prices the time a booking stays past its scheduled end.
package overtime

import (
	"time"

	"github.com/shopspring/decimal"
)

// Calculate returns the billable overtime hours and the fee for them.
// Any started hour is billed in full.
func Calculate(scheduledEnd, actualEnd time.Time, pricePerHour decimal.Decimal) (int64, decimal.Decimal) {
	if !actualEnd.After(scheduledEnd) {
		return 0, decimal.Zero
	}

	over := actualEnd.Sub(scheduledEnd)
	hours := int64(over / time.Hour)
	if over%time.Hour != 0 {
		hours++
	}

	return hours, pricePerHour.Mul(decimal.NewFromInt(hours))
}
