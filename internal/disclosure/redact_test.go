package disclosure

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alovak/securepay/internal/token"
	"github.com/alovak/securepay/securepay/models"
)

var t0 = time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func testRecord(code *string) models.CardRecord {
	return models.CardRecord{
		Ref:              "card-1",
		IssuingBank:      "BBVA",
		Number:           "4111111111111111",
		ExpiryYYMM:       "2911",
		VerificationCode: code,
		HolderName:       "MARIA LOPEZ",
	}
}

func claims(reveal bool) token.Claims {
	return token.NewClaims("RSV-100", token.MustAmount("250.00"), "card-1", reveal, t0, 15*time.Minute)
}

func TestRedact_WithholdsCode(t *testing.T) {
	got := Redact(claims(false), testRecord(strPtr("123")))

	require.Nil(t, got.VerificationCode)
	require.False(t, got.HasVerificationCode())

	b, err := json.Marshal(got)
	require.NoError(t, err)
	require.NotContains(t, string(b), "123")
	require.NotContains(t, string(b), "verification_code")
}

func TestRedact_AlwaysDisclosedFields(t *testing.T) {
	got := Redact(claims(false), testRecord(strPtr("123")))

	require.Equal(t, "RSV-100", got.ReservationCode)
	require.Equal(t, "250.00", got.Amount.String())
	require.Equal(t, "BBVA", got.IssuingBank)
	require.Equal(t, "4111111111111111", got.CardNumber)
	require.Equal(t, "11/29", got.Expiry)
	require.Equal(t, "MARIA LOPEZ", got.HolderName)
}

func TestRedact_DisclosureCompleteness(t *testing.T) {
	for _, code := range []string{"123", "0042", "", " 9 "} {
		rec := testRecord(strPtr(code))
		got := Redact(claims(true), rec)
		require.NotNil(t, got.VerificationCode)
		require.Equal(t, code, *got.VerificationCode)

		// the disclosure must not alias the record
		*got.VerificationCode = "mutated"
		require.Equal(t, code, *rec.VerificationCode)
	}
}

func TestRedact_BlankCodeIsDistinctFromAbsent(t *testing.T) {
	blank := Redact(claims(true), testRecord(strPtr("")))
	absent := Redact(claims(true), testRecord(nil))

	require.True(t, blank.HasVerificationCode())
	require.False(t, absent.HasVerificationCode())

	b, err := json.Marshal(blank)
	require.NoError(t, err)
	require.Contains(t, string(b), `"verification_code":""`)

	b, err = json.Marshal(absent)
	require.NoError(t, err)
	require.NotContains(t, string(b), "verification_code")
}

func TestRedact_NeverLeaksWhenWithheld(t *testing.T) {
	codes := []string{"123", "999", "0000", "7", strings.Repeat("8", 4)}
	for _, code := range codes {
		rec := testRecord(strPtr(code))
		got := Redact(claims(false), rec)
		require.Nil(t, got.VerificationCode, "code %q", code)
	}
	// an empty record must not panic
	require.Nil(t, Redact(claims(false), models.CardRecord{}).VerificationCode)
}

func TestRedact_UnparsableExpiryPassesThrough(t *testing.T) {
	rec := testRecord(nil)
	rec.ExpiryYYMM = "bogus"
	require.Equal(t, "bogus", Redact(claims(true), rec).Expiry)
}
