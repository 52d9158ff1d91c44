package view

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alovak/securepay/internal/disclosure"
	"github.com/alovak/securepay/internal/token"
)

func card(code *string) disclosure.DisplayableCard {
	return disclosure.DisplayableCard{
		ReservationCode:  "RSV-100",
		Amount:           token.MustAmount("250"),
		IssuingBank:      "BBVA",
		CardNumber:       "4111111111111111",
		Expiry:           "11/29",
		HolderName:       "MARIA LOPEZ",
		VerificationCode: code,
	}
}

func values(fields []Field) map[string]string {
	out := map[string]string{}
	for _, f := range fields {
		out[f.Label] = f.Value
	}
	return out
}

func TestToggle_StartsHidden(t *testing.T) {
	code := "123"
	tg := NewToggle(card(&code))
	require.Equal(t, Hidden, tg.State())

	got := values(tg.Fields("MXN"))
	require.Equal(t, "411111******1111", got["Card number"])
	require.Equal(t, "250.00 MXN", got["Amount"])
	require.NotContains(t, got, "CVV")
	require.NotContains(t, got, "Holder")
}

func TestToggle_ShowAndHide(t *testing.T) {
	code := "123"
	tg := NewToggle(card(&code))

	tg.Show()
	require.Equal(t, "shown", tg.State().String())
	got := values(tg.Fields("MXN"))
	require.Equal(t, "4111111111111111", got["Card number"])
	require.Equal(t, "123", got["CVV"])
	require.Equal(t, "MARIA LOPEZ", got["Holder"])

	tg.Hide()
	require.Equal(t, Hidden, tg.State())
	require.NotContains(t, values(tg.Fields("MXN")), "CVV")
}

func TestToggle_ShownWithoutCode(t *testing.T) {
	tg := NewToggle(card(nil))
	tg.Show()
	require.NotContains(t, values(tg.Fields("")), "CVV")
	require.Equal(t, "250.00", values(tg.Fields(""))["Amount"])
}
