package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alovak/securepay/internal/disclosure"
	"github.com/alovak/securepay/internal/token"
	"github.com/alovak/securepay/internal/view"
	"github.com/alovak/securepay/securepay"
	"github.com/alovak/securepay/securepay/models"
)

func resolution() *securepay.Resolution {
	code := "456"
	return &securepay.Resolution{
		Payment: models.Payment{ReservationCode: "RSV-3", Amount: token.MustAmount("250"), Currency: "MXN"},
		Card: disclosure.DisplayableCard{
			ReservationCode:  "RSV-3",
			Amount:           token.MustAmount("250"),
			IssuingBank:      "BBVA",
			CardNumber:       "4111111111111111",
			Expiry:           "11/29",
			HolderName:       "MARIA LOPEZ",
			VerificationCode: &code,
		},
	}
}

func TestRender_HiddenByDefault(t *testing.T) {
	var out bytes.Buffer
	res := resolution()
	render(&out, res, view.NewToggle(res.Card))

	require.Contains(t, out.String(), "411111******1111")
	require.Contains(t, out.String(), "250.00 MXN")
	require.NotContains(t, out.String(), "456")
}

func TestInteract_Toggles(t *testing.T) {
	var out bytes.Buffer
	res := resolution()
	tg := view.NewToggle(res.Card)

	interact(strings.NewReader("s\nh\nq\n"), &out, res, tg)

	require.Equal(t, view.Hidden, tg.State())
	require.Contains(t, out.String(), "CVV:")
	require.Contains(t, out.String(), "4111111111111111")
	require.Contains(t, out.String(), "[shown]")
}

func TestRender_ExpiredWarning(t *testing.T) {
	var out bytes.Buffer
	res := resolution()
	res.CardExpired = true
	render(&out, res, view.NewToggle(res.Card))
	require.Contains(t, out.String(), "past its expiry")
}
