// Package clock resolves civil dates and times of the platform's fixed
// timezone (UTC+5:30) into absolute instants.
package clock

import (
	"fmt"
	"strings"
	"time"

	"github.com/chris/spot-booking-ledger/pkg/apperrors"
)

const (
	// DateLayout is the civil date format, "YYYY-MM-DD".
	DateLayout = "2006-01-02"
	// TimeLayout is the civil time-of-day format, "HH:MM".
	TimeLayout = "15:04"

	offsetSeconds = 5*60*60 + 30*60
)

// Location is the platform's civil timezone. It has no DST transitions.
var Location = time.FixedZone("IST", offsetSeconds)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now().UTC() }

// Func adapts a function to a Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// ToInstant returns the UTC instant that renders as date and hhmm in Location.
func ToInstant(date, hhmm string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, strings.TrimSpace(date)+" "+strings.TrimSpace(hhmm), Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: civil time %q %q", apperrors.ErrInvalidArgument, date, hhmm)
	}
	return t.UTC(), nil
}

// SplitRange splits a "HH:MM - HH:MM" range into its two endpoints.
func SplitRange(timeRange string) (string, string, error) {
	start, end, ok := strings.Cut(timeRange, "-")
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if !ok || start == "" || end == "" {
		return "", "", fmt.Errorf("%w: time range %q", apperrors.ErrInvalidArgument, timeRange)
	}
	return start, end, nil
}

// Window resolves a civil date and "HH:MM - HH:MM" range into the scheduled
// start and end instants. An end earlier than the start falls on the next day.
func Window(date, timeRange string) (time.Time, time.Time, error) {
	startStr, endStr, err := SplitRange(timeRange)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := ToInstant(date, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ToInstant(date, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Equal(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: empty time range %q", apperrors.ErrInvalidArgument, timeRange)
	}
	if end.Before(start) {
		end = end.Add(24 * time.Hour)
	}
	return start, end, nil
}
