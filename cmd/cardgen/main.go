package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alovak/securepay/internal/cardgen"
	"github.com/alovak/securepay/internal/expiry"
	"github.com/alovak/securepay/internal/issuerdev"
	"github.com/alovak/securepay/securepay/models"
)

var (
	flagBIN      = flag.String("bin", "421234", "6/8/9-digit BIN prefix")
	flagServer   = flag.String("server", "http://127.0.0.1:9090", "securepay base URL (dev routes enabled)")
	flagYears    = flag.Int("years", 0, "override validity years (if > 0)")
	flagProduct  = flag.String("product", "debit", "card product: credit|debit (defaults to debit)")
	flagBank     = flag.String("bank", "Banco Demo", "issuing bank name")
	flagShowOnly = flag.Bool("print", false, "print JSON only, do not POST")
	flagSequence = flag.String("sequence", "", "optional numeric sequence (before check digit)")
	flagNoCVV    = flag.Bool("no-cvv", false, "register the card without a verification code")
	flagVerbose  = flag.Bool("verbose", false, "print full PAN and CVV (otherwise masked)")
	flagCardName = flag.String("card-name", "", "cardholder name for card face imprint")
	flagCount    = flag.Int("count", 1, "number of cards to generate")
	flagParallel = flag.Int("parallel", 4, "concurrent registrations")
)

func main() {
	flag.Parse()
	must(cardgen.ValidateBIN(*flagBIN))
	if *flagCount < 1 {
		fail("-count must be at least 1")
	}
	if *flagCount > 1 && *flagSequence != "" {
		fail("-sequence cannot be combined with -count > 1")
	}

	years := expiry.YearsForProduct(*flagProduct, *flagYears)
	reqs := make([]models.CreateCard, 0, *flagCount)
	for i := 0; i < *flagCount; i++ {
		reqs = append(reqs, must1(newCard(*flagBIN, *flagSequence, *flagBank, *flagCardName, years, !*flagNoCVV, time.Now())))
	}

	if *flagShowOnly {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, r := range reqs {
			if !*flagVerbose {
				r = masked(r)
			}
			enc.Encode(r)
		}
		return
	}

	cli := issuerdev.New(*flagServer, &http.Client{Timeout: 10 * time.Second})
	created := must1(register(context.Background(), cli, reqs, *flagParallel))
	for i, c := range created {
		printCard(reqs[i], c, *flagVerbose)
	}
}

// newCard builds one Luhn-valid card registration request.
func newCard(bin, sequence, bank, name string, years int, withCode bool, now time.Time) (models.CreateCard, error) {
	pan, err := cardgen.GeneratePAN(bin, cardgen.DefaultPANLength, sequence)
	if err != nil {
		return models.CreateCard{}, err
	}
	req := models.CreateCard{
		IssuingBank: bank,
		Number:      pan,
		Expiry:      expiry.YYMM(now, years),
		HolderName:  normalizeCardName(name),
	}
	if withCode {
		code, err := cardgen.GenerateVerificationCode(3)
		if err != nil {
			return models.CreateCard{}, err
		}
		req.VerificationCode = &code
	}
	return req, nil
}

// register posts every card, at most parallel at a time. The result order
// matches reqs.
func register(ctx context.Context, cli *issuerdev.Client, reqs []models.CreateCard, parallel int) ([]*models.CreatedCard, error) {
	out := make([]*models.CreatedCard, len(reqs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			created, err := cli.CreateCard(ctx, req)
			if err != nil {
				return fmt.Errorf("card %d (%s): %w", i, cardgen.MaskPAN(req.Number), err)
			}
			mu.Lock()
			out[i] = created
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func masked(r models.CreateCard) models.CreateCard {
	r.Number = cardgen.MaskPAN(r.Number)
	if r.VerificationCode != nil {
		hidden := strings.Repeat("*", len(*r.VerificationCode))
		r.VerificationCode = &hidden
	}
	return r
}

func printCard(req models.CreateCard, c *models.CreatedCard, verbose bool) {
	face, _ := expiry.CardFace(c.ExpiryYYMM)
	pan := c.MaskedNumber
	if verbose {
		pan = req.Number + "   (WARNING: printing full PAN)"
	}
	fmt.Printf("REF: %s\nPAN: %s\nEXP(card-face): %s  EXP(stored): %s\n", c.Ref, pan, face, c.ExpiryYYMM)
	if req.HolderName != "" {
		fmt.Printf("NAME(card-face): %s\n", req.HolderName)
	}
	if verbose && req.VerificationCode != nil {
		fmt.Printf("CVV: %s\n", *req.VerificationCode)
	}
	fmt.Println()
}

func normalizeCardName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	normalized := strings.Join(strings.Fields(trimmed), " ")
	up := strings.ToUpper(normalized)
	if len(up) > 26 {
		return up[:26]
	}
	return up
}

func must(err error) {
	if err != nil {
		fail("%v", err)
	}
}
func must1[T any](v T, err error) T {
	if err != nil {
		fail("%v", err)
	}
	return v
}
func fail(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
