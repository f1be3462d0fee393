package fees

import (
	"errors"
	"fmt"
)

// Reason identifies why an input was refused. The values are part of the
// HTTP contract and must not change.
type Reason string

const (
	InvalidAmount            Reason = "InvalidAmount"
	AmountMustBePositive     Reason = "AmountMustBePositive"
	ExceedsRemainingBalance  Reason = "ExceedsRemainingBalance"
	CustomFeeExceedsBatchFee Reason = "CustomFeeExceedsBatchFee"
	CustomFeeNotPositive     Reason = "CustomFeeNotPositive"
)

// Rejection is a routine, user-facing refusal. It is returned as an error so
// callers can short-circuit, but it is never an infrastructure failure.
type Rejection struct {
	Reason    Reason
	Remaining int // set for ExceedsRemainingBalance
	Ceiling   int // batch fee, set for custom-fee rejections
}

func reject(reason Reason, remaining, ceiling int) *Rejection {
	return &Rejection{Reason: reason, Remaining: remaining, Ceiling: ceiling}
}

func (r *Rejection) Error() string {
	switch r.Reason {
	case InvalidAmount:
		return "amount must be a whole number of rupees"
	case AmountMustBePositive:
		return "amount must be greater than zero"
	case ExceedsRemainingBalance:
		return fmt.Sprintf("amount exceeds the remaining balance of ₹%d", r.Remaining)
	case CustomFeeExceedsBatchFee:
		return fmt.Sprintf("custom fee cannot exceed the batch fee of ₹%d", r.Ceiling)
	case CustomFeeNotPositive:
		return "custom fee must be greater than zero"
	}
	return string(r.Reason)
}

// AsRejection unwraps err into a *Rejection if it is one.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
