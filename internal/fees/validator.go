package fees

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Whole rupees with an optional sign and an optional all-zero fraction.
var amountPattern = regexp.MustCompile(`^[+-]?\d+(\.0*)?$`)

// ParseAmount turns user input into whole rupees. Anything that is not a
// finite whole number is an InvalidAmount rejection; sign is checked later
// by ValidatePayment so the rule order stays intact.
func ParseAmount(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "₹")
	s = strings.ReplaceAll(s, ",", "")
	if !amountPattern.MatchString(s) {
		return 0, reject(InvalidAmount, 0, 0)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, reject(InvalidAmount, 0, 0)
	}
	return int(f), nil
}

// ValidatePayment decides whether amount may be posted against a ledger that
// already holds paidSoFar out of expected. A nil result accepts the payment;
// otherwise the error is a *Rejection.
func ValidatePayment(amount, expected, paidSoFar int) error {
	if amount <= 0 {
		return reject(AmountMustBePositive, 0, 0)
	}
	remaining := expected - paidSoFar
	if remaining < 0 {
		remaining = 0
	}
	if amount > remaining {
		return reject(ExceedsRemainingBalance, remaining, 0)
	}
	return nil
}

// CheckPayment runs both stages on raw input.
func CheckPayment(raw string, expected, paidSoFar int) (int, error) {
	amount, err := ParseAmount(raw)
	if err != nil {
		return 0, err
	}
	return amount, ValidatePayment(amount, expected, paidSoFar)
}
