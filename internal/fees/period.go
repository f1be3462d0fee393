// Package fees derives what a student owes and decides whether a payment
// may be posted. Everything here is pure: callers load batches, students and
// payments and hand the plain values in.
package fees

import (
	"fmt"
	"strings"
	"time"
)

// Period is the billing cadence of a batch.
type Period string

const (
	Monthly Period = "month"
	Yearly  Period = "year"
)

// billingCycleMillis is the 30-day "month" every dues figure is based on.
// It drifts against calendar months; kept for compatibility with existing
// ledgers until product decides otherwise.
const billingCycleMillis = int64(30 * 24 * time.Hour / time.Millisecond)

func (p Period) Valid() bool {
	switch p {
	case Monthly, Yearly:
		return true
	}
	return false
}

// ParsePeriod accepts "month"/"monthly" and "year"/"yearly".
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "month", "monthly":
		return Monthly, nil
	case "year", "yearly":
		return Yearly, nil
	}
	return "", fmt.Errorf("unknown fee period %q", s)
}

// ElapsedMonths counts started 30-day billing cycles between joinedAt and
// asOf. A student who joined today owes one cycle, so the result is never
// below 1.
func ElapsedMonths(joinedAt, asOf time.Time) int {
	ms := asOf.Sub(joinedAt).Milliseconds()
	if ms <= 0 {
		return 1
	}
	n := ms / billingCycleMillis
	if ms%billingCycleMillis != 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return int(n)
}
