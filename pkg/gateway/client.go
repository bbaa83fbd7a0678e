// Package gateway is the HTTP client for the commerce backend the
// capabilities ultimately talk to (transactional mail, customer records,
// shop data). The engine never imports this package directly; capabilities
// receive it behind their own narrow interfaces.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

func NewClient(baseURL, authToken string) *Client {
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// SendEmail submits a transactional email and returns the gateway message id.
func (c *Client) SendEmail(ctx context.Context, to, subject, body string) (string, error) {
	var response struct {
		MessageID string `json:"message_id"`
	}

	err := c.do(ctx, http.MethodPost, "/mail/send", map[string]any{
		"to":      to,
		"subject": subject,
		"body":    body,
	}, &response)
	if err != nil {
		return "", err
	}

	return response.MessageID, nil
}

// ApplyTag attaches a tag to a customer record.
func (c *Client) ApplyTag(ctx context.Context, customerID, tag string) error {
	return c.do(ctx, http.MethodPost, "/customers/"+customerID+"/tags", map[string]any{
		"tag": tag,
	}, nil)
}

// UpdateRecord patches fields on a backend record.
func (c *Client) UpdateRecord(ctx context.Context, entity, recordID string, fields map[string]any) error {
	return c.do(ctx, http.MethodPatch, "/"+entity+"/"+recordID, fields, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("gateway returned %d for %s %s: %s", resp.StatusCode, method, path, snippet)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return nil
}
