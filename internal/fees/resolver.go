package fees

import "time"

// Plan is everything the resolver needs to know about one enrolment.
type Plan struct {
	BatchFee  int
	CustomFee *int
	Period    Period
	JoinedAt  time.Time
}

// ExpectedFee returns the cumulative fee owed after elapsed billing periods.
// Monthly plans multiply the per-period fee; yearly plans are flat.
func ExpectedFee(batchFee int, customFee *int, period Period, elapsed int) int {
	base := batchFee
	if customFee != nil {
		base = *customFee
	}
	if period == Monthly {
		return base * elapsed
	}
	return base
}

// Expected resolves the plan as of the given instant. The elapsed-period
// calculator only runs for monthly plans.
func (p Plan) Expected(asOf time.Time) int {
	if p.Period != Monthly {
		return ExpectedFee(p.BatchFee, p.CustomFee, p.Period, 1)
	}
	return ExpectedFee(p.BatchFee, p.CustomFee, p.Period, ElapsedMonths(p.JoinedAt, asOf))
}

// ValidateCustomFee checks a per-student override at the edit boundary.
// A nil override clears it and is always allowed.
func ValidateCustomFee(customFee *int, batchFee int) error {
	if customFee == nil {
		return nil
	}
	if *customFee <= 0 {
		return reject(CustomFeeNotPositive, 0, batchFee)
	}
	if *customFee > batchFee {
		return reject(CustomFeeExceedsBatchFee, 0, batchFee)
	}
	return nil
}
