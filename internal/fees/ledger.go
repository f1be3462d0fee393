package fees

import (
	"sort"
	"time"
)

type Payment struct {
	ID     uint      `json:"id"`
	Amount int       `json:"amount"`
	PaidAt time.Time `json:"paidAt"`
	Method string    `json:"paymentMethod,omitempty"`
}

// Entry is one payment in the history view. PaidSoFar and Remaining are
// measured against today's expected fee, not the fee that applied when the
// payment was taken.
type Entry struct {
	Payment
	PaidSoFar int `json:"paidSoFar"`
	Remaining int `json:"remaining"`
}

type Ledger struct {
	TotalPaid int     `json:"totalPaid"`
	Entries   []Entry `json:"entries"`
}

// BuildLedger orders payments by PaidAt. Payments with equal timestamps keep
// their input order, so callers should pass them in insertion order.
func BuildLedger(payments []Payment, expected int) Ledger {
	sorted := make([]Payment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PaidAt.Before(sorted[j].PaidAt)
	})

	l := Ledger{Entries: make([]Entry, 0, len(sorted))}
	for _, p := range sorted {
		l.TotalPaid += p.Amount
		l.Entries = append(l.Entries, Entry{
			Payment:   p,
			PaidSoFar: l.TotalPaid,
			Remaining: expected - l.TotalPaid,
		})
	}
	return l
}
