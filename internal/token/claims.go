package token

import (
	"errors"
	"time"
)

// Claims is the payment session carried by a token. Values are produced by
// Decode only after the signature, payload and expiry checks have passed.
type Claims struct {
	ReservationCode        string
	Amount                 Amount
	CardRef                string
	RevealVerificationCode bool
	IssuedAt               time.Time
	ExpiresAt              time.Time
}

// NewClaims builds claims valid for ttl starting at issuedAt. Timestamps are
// truncated to whole seconds, the precision carried on the wire.
func NewClaims(reservationCode string, amount Amount, cardRef string, revealCode bool, issuedAt time.Time, ttl time.Duration) Claims {
	iat := issuedAt.Truncate(time.Second).UTC()
	return Claims{
		ReservationCode:        reservationCode,
		Amount:                 amount,
		CardRef:                cardRef,
		RevealVerificationCode: revealCode,
		IssuedAt:               iat,
		ExpiresAt:              iat.Add(ttl.Truncate(time.Second)),
	}
}

// Validate checks the claim invariants independent of the current time.
// Timestamps carry second precision on the wire, so sub-second values are
// refused rather than silently truncated.
func (c Claims) Validate() error {
	switch {
	case c.ReservationCode == "":
		return errors.New("reservation code is required")
	case c.CardRef == "":
		return errors.New("card reference is required")
	case c.Amount <= 0:
		return errors.New("amount must be greater than zero")
	case c.IssuedAt.IsZero() || c.ExpiresAt.IsZero():
		return errors.New("validity window is required")
	case !wholeSecond(c.IssuedAt) || !wholeSecond(c.ExpiresAt):
		return errors.New("timestamps must be whole seconds")
	case !c.ExpiresAt.After(c.IssuedAt):
		return errors.New("expiry must be after issue time")
	}
	return nil
}

// ActiveAt reports whether at falls before the expiry instant.
func (c Claims) ActiveAt(at time.Time) bool {
	return at.Before(c.ExpiresAt)
}

func wholeSecond(t time.Time) bool {
	return t.Nanosecond() == 0
}
