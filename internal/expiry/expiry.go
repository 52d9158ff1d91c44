package expiry

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var productYears = map[string]int{"credit": 3, "debit": 5}

// YearsForProduct returns validity years for product unless override>0.
func YearsForProduct(product string, override int) int {
	if override > 0 {
		return override
	}
	if y, ok := productYears[strings.ToLower(product)]; ok {
		return y
	}
	return 5
}

// YYMM returns expiry in YYMM for an issue date + years.
func YYMM(issue time.Time, years int) string {
	t := issue.UTC()
	y := (t.Year() + years) % 100
	m := int(t.Month())
	return fmt.Sprintf("%02d%02d", y, m)
}

// CardFace renders a stored YYMM expiry as printed on the card, MM/YY.
func CardFace(yymm string) (string, error) {
	if err := ValidateYYMM(yymm); err != nil {
		return "", err
	}
	return yymm[2:] + "/" + yymm[:2], nil
}

// ParseYYMMEndOfMonth parses YYMM into the last instant of that month in loc.
func ParseYYMMEndOfMonth(yymm string, loc *time.Location) (time.Time, error) {
	if err := ValidateYYMM(yymm); err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	yy, _ := strconv.Atoi(yymm[:2])
	mm, _ := strconv.Atoi(yymm[2:])
	firstNext := time.Date(2000+yy, time.Month(mm), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
	return firstNext.Add(-time.Nanosecond), nil
}

// IsExpired reports whether time 'at' is strictly after the end of YYMM month in loc.
func IsExpired(yymm string, at time.Time, loc *time.Location) (bool, error) {
	end, err := ParseYYMMEndOfMonth(yymm, loc)
	if err != nil {
		return false, err
	}
	return at.In(end.Location()).After(end), nil
}

// ParseCardFace accepts "MM/YY" or "MMYY" and returns YYMM.
func ParseCardFace(in string) (string, error) {
	s := strings.TrimSpace(in)
	s = strings.ReplaceAll(s, "/", "")
	if len(s) != 4 {
		return "", fmt.Errorf("card face must be MM/YY or MMYY")
	}
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", fmt.Errorf("card face must be digits")
		}
	}
	mm, _ := strconv.Atoi(s[:2])
	if mm < 1 || mm > 12 {
		return "", fmt.Errorf("month must be 01..12")
	}
	return s[2:] + s[:2], nil
}

// ValidateYYMM checks the expiry is four digits with a month in 01..12.
func ValidateYYMM(yymm string) error {
	if len(yymm) != 4 {
		return fmt.Errorf("expiry must be YYMM (4 digits)")
	}
	for i := 0; i < 4; i++ {
		if yymm[i] < '0' || yymm[i] > '9' {
			return fmt.Errorf("expiry must be digits: YYMM")
		}
	}
	mm := int(yymm[2]-'0')*10 + int(yymm[3]-'0')
	if mm < 1 || mm > 12 {
		return fmt.Errorf("expiry month must be 01..12")
	}
	return nil
}
