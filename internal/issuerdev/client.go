// Package issuerdev is an HTTP client for a securepay server, used by the
// command line tools.
package issuerdev

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alovak/securepay/securepay"
	"github.com/alovak/securepay/securepay/models"
)

// ErrAccessDenied is returned when the server refuses a secure payment link.
var ErrAccessDenied = errors.New("access denied")

type Client struct {
	Base string
	HTTP *http.Client
}

func New(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{Base: strings.TrimRight(base, "/"), HTTP: hc}
}

// CreateCard registers a card through the dev route.
func (c *Client) CreateCard(ctx context.Context, req models.CreateCard) (*models.CreatedCard, error) {
	var out models.CreatedCard
	if err := c.post(ctx, "/dev/cards", req, &out); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	return &out, nil
}

// IssueToken mints a token through the dev route.
func (c *Client) IssueToken(ctx context.Context, req models.IssueToken) (*models.IssuedToken, error) {
	var out models.IssuedToken
	if err := c.post(ctx, "/dev/tokens", req, &out); err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &out, nil
}

// Resolve opens a secure payment link. Any refusal is ErrAccessDenied.
func (c *Client) Resolve(ctx context.Context, rawToken string) (*securepay.Resolution, error) {
	target := c.Base + "/secure-payment/" + url.PathEscape(rawToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("secure-payment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, ErrAccessDenied
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("secure-payment", resp)
	}
	var out securepay.Resolution
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode secure-payment: %w", err)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return statusError(path, resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%s status=%d body=%s", op, resp.StatusCode, strings.TrimSpace(string(body)))
}
