// Package token implements the secure payment capability token: a compact,
// URL-safe, HMAC-signed credential carrying a payment session. Tokens are
// validated without any server-side session state.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the smallest signing secret NewCodec accepts.
const MinSecretLength = 32

// MaxTokenLength bounds the input accepted by Decode before any parsing.
const MaxTokenLength = 4096

var signingMethod = jwt.SigningMethodHS256

// wireClaims is the canonical payload. Field order is fixed so that equal
// claims always produce the same token.
type wireClaims struct {
	ReservationCode string `json:"rsv"`
	Amount          Amount `json:"amt"`
	CardRef         string `json:"card"`
	RevealCode      bool   `json:"cvv"`
	jwt.RegisteredClaims
}

// Codec signs and validates tokens with a single process-wide secret. It is
// immutable after construction and safe for concurrent use.
type Codec struct {
	key    []byte
	now    func() time.Time
	parser *jwt.Parser
}

type Option func(*Codec)

// WithClock overrides the time source used by Decode.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes, got %d", MinSecretLength, len(secret))
	}
	key := make([]byte, len(secret))
	copy(key, secret)

	c := &Codec{
		key: key,
		now: time.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{signingMethod.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithJSONNumber(),
			jwt.WithStrictDecoding(),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encode signs claims into a token. Claims that fail Validate, or that would
// produce a token Decode refuses as too long, are refused.
func (c *Codec) Encode(claims Claims) (string, error) {
	if err := claims.Validate(); err != nil {
		return "", fmt.Errorf("encoding claims: %w", err)
	}
	t := jwt.NewWithClaims(signingMethod, wireClaims{
		ReservationCode: claims.ReservationCode,
		Amount:          claims.Amount,
		CardRef:         claims.CardRef,
		RevealCode:      claims.RevealVerificationCode,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	signed, err := t.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	if len(signed) > MaxTokenLength {
		return "", fmt.Errorf("encoded token is %d bytes, limit is %d", len(signed), MaxTokenLength)
	}
	return signed, nil
}

// Decode validates raw against the codec clock.
func (c *Codec) Decode(raw string) (Claims, error) {
	return c.DecodeAt(raw, c.now())
}

// DecodeAt validates raw as of now. The signature is verified before any
// payload field is interpreted, and expiry is checked last.
func (c *Codec) DecodeAt(raw string, now time.Time) (Claims, error) {
	if raw == "" {
		return Claims{}, fail(ReasonMalformedToken, errors.New("empty token"))
	}
	if len(raw) > MaxTokenLength {
		return Claims{}, fail(ReasonMalformedToken, fmt.Errorf("token longer than %d bytes", MaxTokenLength))
	}

	parsed, err := c.parser.ParseWithClaims(raw, jwt.MapClaims{}, c.keyFunc)
	if err != nil {
		return Claims{}, classify(err)
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, fail(ReasonMalformedPayload, errors.New("unexpected claims type"))
	}

	claims, err := claimsFromMap(mc)
	if err != nil {
		return Claims{}, fail(ReasonMalformedPayload, err)
	}
	if !claims.ActiveAt(now) {
		return Claims{}, fail(ReasonExpired, fmt.Errorf("expired at %s", claims.ExpiresAt.Format(time.RFC3339)))
	}
	return claims, nil
}

func (c *Codec) keyFunc(*jwt.Token) (any, error) {
	return c.key, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fail(ReasonInvalidSignature, err)
	default:
		return fail(ReasonMalformedToken, err)
	}
}

func claimsFromMap(m jwt.MapClaims) (Claims, error) {
	rsv, err := stringClaim(m, "rsv")
	if err != nil {
		return Claims{}, err
	}
	card, err := stringClaim(m, "card")
	if err != nil {
		return Claims{}, err
	}
	amount, err := amountClaim(m, "amt")
	if err != nil {
		return Claims{}, err
	}
	reveal, ok := m["cvv"].(bool)
	if !ok {
		return Claims{}, errors.New("claim cvv must be a boolean")
	}
	iat, err := m.GetIssuedAt()
	if err != nil || iat == nil {
		return Claims{}, errors.New("claim iat must be a numeric date")
	}
	exp, err := m.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, errors.New("claim exp must be a numeric date")
	}

	claims := Claims{
		ReservationCode:        rsv,
		Amount:                 amount,
		CardRef:                card,
		RevealVerificationCode: reveal,
		IssuedAt:               iat.Time.UTC(),
		ExpiresAt:              exp.Time.UTC(),
	}
	if err := claims.Validate(); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func stringClaim(m jwt.MapClaims, name string) (string, error) {
	s, ok := m[name].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("claim %s must be a non-empty string", name)
	}
	return s, nil
}

func amountClaim(m jwt.MapClaims, name string) (Amount, error) {
	n, ok := m[name].(json.Number)
	if !ok {
		return 0, fmt.Errorf("claim %s must be a number", name)
	}
	a, err := ParseAmount(n.String())
	if err != nil {
		return 0, fmt.Errorf("claim %s: %w", name, err)
	}
	return a, nil
}
