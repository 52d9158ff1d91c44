package token

import "errors"

// Reason identifies the validation stage that rejected a token. It is meant
// for metrics and server-side logs only, never for the person holding the token.
type Reason string

const (
	ReasonMalformedToken   Reason = "malformed_token"
	ReasonInvalidSignature Reason = "invalid_signature"
	ReasonMalformedPayload Reason = "malformed_payload"
	ReasonExpired          Reason = "expired"
)

var (
	ErrMalformedToken   = &ValidationError{Kind: ReasonMalformedToken}
	ErrInvalidSignature = &ValidationError{Kind: ReasonInvalidSignature}
	ErrMalformedPayload = &ValidationError{Kind: ReasonMalformedPayload}
	ErrExpired          = &ValidationError{Kind: ReasonExpired}
)

// ValidationError is returned by Decode. Two ValidationErrors match with
// errors.Is when their kinds are equal, so callers can compare against the
// package sentinels regardless of the underlying cause.
type ValidationError struct {
	Kind Reason
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return "token " + string(e.Kind) + ": " + e.Err.Error()
	}
	return "token " + string(e.Kind)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// ReasonOf returns the rejection reason carried by err, or "" when err is not
// a token validation error.
func ReasonOf(err error) Reason {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return ""
}

func fail(kind Reason, err error) error {
	return &ValidationError{Kind: kind, Err: err}
}
