// Command paycheck opens a secure payment link the way an operator would and
// prints the card, hidden until asked.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alovak/securepay/internal/issuerdev"
	"github.com/alovak/securepay/internal/view"
	"github.com/alovak/securepay/securepay"
)

var (
	flagServer      = flag.String("server", "http://127.0.0.1:9090", "securepay base URL")
	flagShow        = flag.Bool("show", false, "start with card details shown")
	flagInteractive = flag.Bool("i", false, "interactive: s=show, h=hide, q=quit")
	flagTimeout     = flag.Duration("timeout", 10*time.Second, "request timeout")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: paycheck [flags] <token>")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *flagTimeout)
	defer cancel()

	cli := issuerdev.New(*flagServer, &http.Client{Timeout: *flagTimeout})
	res, err := cli.Resolve(ctx, flag.Arg(0))
	if errors.Is(err, issuerdev.ErrAccessDenied) {
		fmt.Fprintln(os.Stderr, "Access denied: this payment link is not valid.")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	tg := view.NewToggle(res.Card)
	if *flagShow {
		tg.Show()
	}
	render(os.Stdout, res, tg)

	if *flagInteractive {
		interact(os.Stdin, os.Stdout, res, tg)
	}
}

// interact applies toggle commands read from in until q or EOF. The card is
// never fetched again.
func interact(in io.Reader, out io.Writer, res *securepay.Resolution, tg *view.Toggle) {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "[%s] s/h/q> ", tg.State())
		if !sc.Scan() {
			return
		}
		switch strings.TrimSpace(sc.Text()) {
		case "s":
			tg.Show()
		case "h":
			tg.Hide()
		case "q":
			return
		default:
			continue
		}
		render(out, res, tg)
	}
}

func render(out io.Writer, res *securepay.Resolution, tg *view.Toggle) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, f := range tg.Fields(res.Payment.Currency) {
		fmt.Fprintf(tw, "%s:\t%s\n", f.Label, f.Value)
	}
	if res.CardExpired {
		fmt.Fprintln(tw, "Warning:\tcard is past its expiry date")
	}
	tw.Flush()
}
