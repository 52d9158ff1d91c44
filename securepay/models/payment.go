package models

import (
	"time"

	"github.com/alovak/securepay/internal/token"
)

// IssueToken is the dev request body for minting a payment token.
type IssueToken struct {
	ReservationCode        string       `json:"reservation_code"`
	Amount                 token.Amount `json:"amount"`
	CardRef                string       `json:"card_ref"`
	RevealVerificationCode bool         `json:"reveal_verification_code"`
	// TTL is a Go duration string such as "15m". Empty means the configured default.
	TTL string `json:"ttl,omitempty"`
}

type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Payment is the charge the operator must process.
type Payment struct {
	ReservationCode string       `json:"reservation_code"`
	Amount          token.Amount `json:"amount"`
	Currency        string       `json:"currency"`
}
