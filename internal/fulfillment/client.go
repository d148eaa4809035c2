package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client handles communication with the print-shop webhook for order
// fulfillment
type Client struct {
	webhookURL string
	secret     string
	httpClient *http.Client
	stubMode   bool
}

// NewClient creates a new fulfillment client with the given configuration
func NewClient(webhookURL, secret string, stubMode bool) *Client {
	return &Client{
		webhookURL: webhookURL,
		secret:     secret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		stubMode:   stubMode,
	}
}

// SubmitOrder posts a paid order to the print shop
func (c *Client) SubmitOrder(ctx context.Context, sub OrderSubmission) (*SubmissionReceipt, error) {
	if c.stubMode {
		return &SubmissionReceipt{
			Reference: "stub-print-" + sub.Slug,
			Accepted:  true,
		}, nil
	}

	jsonData, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.webhookURL+"/orders", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-PRINT-SHOP-SECRET", c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("print shop returned status %d: %s", resp.StatusCode, string(body))
	}

	var receipt SubmissionReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &receipt, nil
}
