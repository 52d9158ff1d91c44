package cardgen

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const DefaultPANLength = 16

// GeneratePAN returns a Luhn-valid PAN of totalLen digits (13..19) starting
// with bin. A non-empty sequence overrides the trailing digits before the
// check digit.
func GeneratePAN(bin string, totalLen int, sequence string) (string, error) {
	if err := ValidateBIN(bin); err != nil {
		return "", err
	}
	if totalLen == 0 {
		totalLen = DefaultPANLength
	}
	if totalLen < 13 || totalLen > 19 {
		return "", fmt.Errorf("total length must be 13..19")
	}
	fill := totalLen - 1 - len(bin)
	if fill <= 0 {
		return "", fmt.Errorf("bin too long: %s", bin)
	}
	seq := strings.TrimSpace(sequence)
	if seq != "" {
		if !IsDigits(seq) {
			return "", fmt.Errorf("sequence must be numeric")
		}
		if len(seq) > fill {
			return "", fmt.Errorf("sequence length %d exceeds %d", len(seq), fill)
		}
	}
	digits, err := randomDigits(fill)
	if err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	b := []byte(digits)
	copy(b[fill-len(seq):], seq)

	body := bin + string(b)
	return body + luhnCheckDigit(body), nil
}

// randomDigits draws unbiased decimal digits by rejecting bytes >= 250.
func randomDigits(count int) (string, error) {
	if count <= 0 {
		return "", nil
	}
	const threshold = 250
	var sb strings.Builder
	sb.Grow(count)
	buf := make([]byte, 64)
	for sb.Len() < count {
		n, err := rand.Read(buf)
		if err != nil {
			return "", err
		}
		for i := 0; i < n && sb.Len() < count; i++ {
			if buf[i] < threshold {
				sb.WriteByte('0' + (buf[i] % 10))
			}
		}
	}
	return sb.String(), nil
}

func luhnCheckDigit(body string) string {
	sum, dbl := 0, true
	for i := len(body) - 1; i >= 0; i-- {
		d := int(body[i] - '0')
		if dbl {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		dbl = !dbl
	}
	return string('0' + byte((10-(sum%10))%10))
}

// ValidatePAN checks a normalized PAN: 13..19 digits with a valid Luhn check digit.
func ValidatePAN(pan string) error {
	if pan == "" {
		return fmt.Errorf("pan is required")
	}
	if !IsDigits(pan) {
		return fmt.Errorf("pan must contain digits only")
	}
	if l := len(pan); l < 13 || l > 19 {
		return fmt.Errorf("pan length must be 13..19 digits (got %d)", l)
	}
	if pan[len(pan)-1] != luhnCheckDigit(pan[:len(pan)-1])[0] {
		return fmt.Errorf("invalid luhn check digit")
	}
	return nil
}

func ValidateBIN(bin string) error {
	if bin == "" {
		return fmt.Errorf("bin is required")
	}
	if !IsDigits(bin) {
		return fmt.Errorf("bin must contain digits only")
	}
	switch len(bin) {
	case 6, 8, 9:
		return nil
	default:
		return fmt.Errorf("bin must be 6, 8, or 9 digits")
	}
}

func IsDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func LastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// MaskPAN keeps the first six and last four digits of long PANs and only the
// last four of short ones.
func MaskPAN(pan string) string {
	cleaned := NormalizePAN(pan)
	n := len(cleaned)
	switch {
	case n == 0:
		return ""
	case n <= 4:
		return strings.Repeat("*", n)
	case n < 10:
		return strings.Repeat("*", n-4) + cleaned[n-4:]
	}
	return cleaned[:6] + strings.Repeat("*", n-10) + cleaned[n-4:]
}

// NormalizePAN strips spaces, tabs and dashes.
func NormalizePAN(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-':
			return -1
		default:
			return r
		}
	}, s)
}

// GenerateVerificationCode returns n random digits (3 or 4).
func GenerateVerificationCode(n int) (string, error) {
	if n != 3 && n != 4 {
		return "", fmt.Errorf("verification code length must be 3 or 4")
	}
	return randomDigits(n)
}
