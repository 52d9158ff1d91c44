// Package view holds caller-side presentation state for a resolved card.
package view

import (
	"strings"

	"github.com/alovak/securepay/internal/cardgen"
	"github.com/alovak/securepay/internal/disclosure"
)

type State int

const (
	Hidden State = iota
	Shown
)

func (s State) String() string {
	if s == Shown {
		return "shown"
	}
	return "hidden"
}

// Toggle is the reveal switch for one page load. It starts Hidden, has no
// timeout, and only changes how an already redacted card is rendered.
type Toggle struct {
	card  disclosure.DisplayableCard
	state State
}

func NewToggle(card disclosure.DisplayableCard) *Toggle {
	return &Toggle{card: card}
}

func (t *Toggle) Show()        { t.state = Shown }
func (t *Toggle) Hide()        { t.state = Hidden }
func (t *Toggle) State() State { return t.state }

// Field is one labelled line of output.
type Field struct {
	Label string
	Value string
}

// Fields renders the card for the current state. While hidden the number is
// masked and the holder, expiry and verification code are not listed.
func (t *Toggle) Fields(currency string) []Field {
	c := t.card
	fields := []Field{
		{"Reservation", c.ReservationCode},
		{"Amount", strings.TrimSpace(c.Amount.String() + " " + currency)},
		{"Issuing bank", c.IssuingBank},
	}
	if t.state == Hidden {
		return append(fields, Field{"Card number", cardgen.MaskPAN(c.CardNumber)})
	}
	fields = append(fields,
		Field{"Card number", c.CardNumber},
		Field{"Expiry", c.Expiry},
	)
	if c.VerificationCode != nil {
		fields = append(fields, Field{"CVV", *c.VerificationCode})
	}
	return append(fields, Field{"Holder", c.HolderName})
}
