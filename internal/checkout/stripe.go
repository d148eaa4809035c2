package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StripeClient handles communication with the Stripe Checkout API
type StripeClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	stubMode   bool
}

// CheckoutSession is the subset of a Stripe Checkout Session this service
// cares about
type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
}

// NewStripeClient creates a new Stripe client. In stub mode sessions are
// fabricated locally and always verify as paid, for development and tests.
func NewStripeClient(secretKey string, stubMode bool) *StripeClient {
	return &StripeClient{
		baseURL:    "https://api.stripe.com",
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		stubMode:   stubMode,
	}
}

// CreateSession creates a Checkout Session for a single line item tied to
// the given slug. The slug rides along as client_reference_id so the
// session can be correlated back to the draft.
func (c *StripeClient) CreateSession(ctx context.Context, slug, productName string, amountCents int64, currency, successURL, cancelURL string) (*CheckoutSession, error) {
	if c.stubMode {
		id := "cs_test_" + strings.ReplaceAll(uuid.New().String(), "-", "")
		return &CheckoutSession{
			ID:            id,
			URL:           "https://checkout.stripe.com/c/pay/" + id,
			PaymentStatus: "unpaid",
		}, nil
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("client_reference_id", slug)
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(amountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", productName)

	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}

	return &session, nil
}

// VerifySession reports whether the given session has been paid
func (c *StripeClient) VerifySession(ctx context.Context, sessionID string) (bool, error) {
	if c.stubMode {
		return true, nil
	}

	var session CheckoutSession
	if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+sessionID, nil, &session); err != nil {
		return false, err
	}

	return session.PaymentStatus == "paid", nil
}

// do executes an authenticated form-encoded request against the Stripe API
func (c *StripeClient) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("stripe returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
