// Package store holds what every card store backend shares: the lookup
// sentinels and the validation applied before a record is written.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alovak/securepay/internal/cardgen"
	"github.com/alovak/securepay/internal/expiry"
	"github.com/alovak/securepay/securepay/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	// ErrAmbiguous is returned when a card reference matches more than one record.
	ErrAmbiguous = errors.New("ambiguous card reference")
)

// Normalize validates a record before it is stored and returns the copy to
// persist: PAN without separators, upper-case holder name, YYMM expiry.
func Normalize(rec models.CardRecord) (models.CardRecord, error) {
	rec.Ref = strings.TrimSpace(rec.Ref)
	if rec.Ref == "" {
		return rec, fmt.Errorf("card_ref is required")
	}
	rec.Number = cardgen.NormalizePAN(rec.Number)
	if err := cardgen.ValidatePAN(rec.Number); err != nil {
		return rec, err
	}
	if err := expiry.ValidateYYMM(rec.ExpiryYYMM); err != nil {
		return rec, err
	}
	if rec.VerificationCode != nil {
		code := strings.TrimSpace(*rec.VerificationCode)
		if code != "" && (!cardgen.IsDigits(code) || len(code) < 3 || len(code) > 4) {
			return rec, fmt.Errorf("verification code must be 3 or 4 digits")
		}
		rec.VerificationCode = &code
	}
	rec.IssuingBank = strings.TrimSpace(rec.IssuingBank)
	rec.HolderName = strings.ToUpper(strings.Join(strings.Fields(rec.HolderName), " "))
	return rec, nil
}

// Clone returns a deep copy so callers never share the code pointer with a store.
func Clone(rec models.CardRecord) *models.CardRecord {
	out := rec
	if rec.VerificationCode != nil {
		code := *rec.VerificationCode
		out.VerificationCode = &code
	}
	return &out
}
