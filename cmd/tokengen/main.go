// Package main mints and inspects secure payment tokens offline using the
// master secret the server is configured with. Use only for local setups and
// support investigations.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/alovak/securepay/internal/security"
	"github.com/alovak/securepay/internal/token"
)

const defaultTokenTTL = 15 * time.Minute

type tokenOutput struct {
	Token     string    `json:"token"`
	URLPath   string    `json:"url_path"`
	ExpiresAt time.Time `json:"expires_at"`
}

type inspectOutput struct {
	Valid                  bool         `json:"valid"`
	Reason                 string       `json:"reason,omitempty"`
	ReservationCode        string       `json:"reservation_code,omitempty"`
	Amount                 token.Amount `json:"amount,omitempty"`
	CardRef                string       `json:"card_ref,omitempty"`
	RevealVerificationCode bool         `json:"reveal_verification_code"`
	ExpiresAt              *time.Time   `json:"expires_at,omitempty"`
}

func main() {
	issueCmd := flag.NewFlagSet("issue", flag.ExitOnError)
	issueRsv := issueCmd.String("reservation", "", "reservation code (required)")
	issueAmount := issueCmd.String("amount", "", "amount in major units, e.g. 250.00 (required)")
	issueCard := issueCmd.String("card", "", "card reference (required)")
	issueReveal := issueCmd.Bool("reveal-cvv", false, "allow the verification code to be shown")
	issueTTL := issueCmd.Duration("ttl", defaultTokenTTL, "token time-to-live")

	inspectCmd := flag.NewFlagSet("inspect", flag.ExitOnError)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	master, err := security.EnvSecret{Name: "TOKEN_SECRET"}.Secret(context.Background())
	if err != nil && os.Args[1] != "help" {
		fail("%v", err)
	}
	defer security.Wipe(master)

	switch os.Args[1] {
	case "issue":
		issueCmd.Parse(os.Args[2:])
		out, err := issue(master, *issueRsv, *issueAmount, *issueCard, *issueReveal, *issueTTL, time.Now())
		if err != nil {
			fail("%v", err)
		}
		printJSON(out)
	case "inspect":
		inspectCmd.Parse(os.Args[2:])
		if inspectCmd.NArg() != 1 {
			fail("usage: tokengen inspect <token>")
		}
		out, err := inspect(master, inspectCmd.Arg(0), time.Now())
		if err != nil {
			fail("%v", err)
		}
		printJSON(out)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func newCodec(master []byte, now time.Time) (*token.Codec, error) {
	if len(master) < token.MinSecretLength {
		return nil, fmt.Errorf("TOKEN_SECRET must be at least %d bytes", token.MinSecretLength)
	}
	key, err := security.DeriveKey(master, security.LabelTokenSigning)
	if err != nil {
		return nil, err
	}
	defer security.Wipe(key)
	return token.NewCodec(key, token.WithClock(func() time.Time { return now }))
}

func issue(master []byte, rsv, amount, card string, reveal bool, ttl time.Duration, now time.Time) (*tokenOutput, error) {
	amt, err := token.ParseAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("-amount: %w", err)
	}
	codec, err := newCodec(master, now)
	if err != nil {
		return nil, err
	}
	claims := token.NewClaims(rsv, amt, card, reveal, now, ttl)
	raw, err := codec.Encode(claims)
	if err != nil {
		return nil, err
	}
	return &tokenOutput{
		Token:     raw,
		URLPath:   "/secure-payment/" + raw,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// inspect reports the precise rejection reason the server hides from link holders.
func inspect(master []byte, raw string, now time.Time) (*inspectOutput, error) {
	codec, err := newCodec(master, now)
	if err != nil {
		return nil, err
	}
	claims, err := codec.Decode(raw)
	if err != nil {
		return &inspectOutput{Valid: false, Reason: string(token.ReasonOf(err))}, nil
	}
	return &inspectOutput{
		Valid:                  true,
		ReservationCode:        claims.ReservationCode,
		Amount:                 claims.Amount,
		CardRef:                claims.CardRef,
		RevealVerificationCode: claims.RevealVerificationCode,
		ExpiresAt:              &claims.ExpiresAt,
	}, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func printUsage() {
	fmt.Println(`tokengen - Mint and inspect secure payment tokens

Reads the master secret from TOKEN_SECRET, the same value the server uses.

Usage:
  tokengen <command> [flags]

Commands:
  issue     Mint a token
  inspect   Decode a token and print why it would be rejected

Examples:
  tokengen issue -reservation RSV-100 -amount 250.00 -card card-7
  tokengen issue -reservation RSV-100 -amount 250 -card card-7 -reveal-cvv -ttl 1h
  tokengen inspect eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...`)
}

func fail(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
