package token

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a charge in minor units (cents) of the single system currency.
type Amount int64

// ParseAmount parses a decimal in major units with at most two fractional
// digits, e.g. "250", "250.5" or "250.00".
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount is required")
	}
	neg := false
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		s = s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || !isDigits(whole) {
		return 0, fmt.Errorf("amount must be a decimal number")
	}
	if hasFrac && (frac == "" || !isDigits(frac)) {
		return 0, fmt.Errorf("amount must be a decimal number")
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount has more than two decimal places")
	}
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > (math.MaxInt64-99)/100 {
		return 0, fmt.Errorf("amount out of range")
	}
	cents, _ := strconv.ParseInt(frac, 10, 64)
	a := Amount(units*100 + cents)
	if neg {
		a = -a
	}
	return a, nil
}

// MustAmount is ParseAmount for literals in tests and tools.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the amount with exactly two decimals.
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a number: %w", err)
	}
	v, err := ParseAmount(n.String())
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
