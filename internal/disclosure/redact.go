// Package disclosure decides which card fields a validated payment session
// may expose.
package disclosure

import (
	"github.com/alovak/securepay/internal/expiry"
	"github.com/alovak/securepay/internal/token"
	"github.com/alovak/securepay/securepay/models"
)

// DisplayableCard holds the fields an operator may see for one session.
// VerificationCode is nil when the code is withheld or the store has none;
// a non-nil pointer to "" is a code that is genuinely blank.
type DisplayableCard struct {
	ReservationCode  string       `json:"reservation_code"`
	Amount           token.Amount `json:"amount"`
	IssuingBank      string       `json:"issuing_bank"`
	CardNumber       string       `json:"card_number"`
	Expiry           string       `json:"expiry"`
	HolderName       string       `json:"holder_name"`
	VerificationCode *string      `json:"verification_code,omitempty"`
}

// HasVerificationCode reports whether the code is part of the disclosure.
func (d DisplayableCard) HasVerificationCode() bool {
	return d.VerificationCode != nil
}

// Redact applies the session's disclosure flag to a fetched record. It never
// fails: the verification code is copied only when the claims allow it.
func Redact(claims token.Claims, record models.CardRecord) DisplayableCard {
	out := DisplayableCard{
		ReservationCode: claims.ReservationCode,
		Amount:          claims.Amount,
		IssuingBank:     record.IssuingBank,
		CardNumber:      record.Number,
		Expiry:          displayExpiry(record.ExpiryYYMM),
		HolderName:      record.HolderName,
	}
	if claims.RevealVerificationCode && record.VerificationCode != nil {
		code := *record.VerificationCode
		out.VerificationCode = &code
	}
	return out
}

func displayExpiry(yymm string) string {
	face, err := expiry.CardFace(yymm)
	if err != nil {
		return yymm
	}
	return face
}
