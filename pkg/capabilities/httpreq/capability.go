// Package httpreq provides a generic outbound HTTP request capability for
// integrating workflows with third-party services.
package httpreq

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const maxResponseBytes = 1 << 20

type Capability struct {
	client *http.Client
}

func (c *Capability) Invoke(ctx context.Context, args map[string]any, dryRun bool, logger *slog.Logger) (map[string]any, error) {
	url, _ := args["url"].(string)

	method, _ := args["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	method = strings.ToUpper(method)
	body, _ := args["body"].(string)

	if dryRun {
		logger.InfoContext(ctx, "Dry run, would perform HTTP request", "method", method, "url", url)

		return map[string]any{
			"would_request": true,
			"method":        method,
			"url":           url,
		}, nil
	}

	req, err := http.NewRequestWithContext(ctx, method, url, strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	if headers, ok := args["headers"].(map[string]any); ok {
		for key, value := range headers {
			if str, ok := value.(string); ok {
				req.Header.Set(key, str)
			}
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Performed HTTP request", "method", method, "url", url, "status", resp.StatusCode)

	result := map[string]any{
		"status_code": resp.StatusCode,
	}

	var parsed any
	if err := json.Unmarshal(responseBody, &parsed); err == nil {
		result["body"] = parsed
	} else {
		result["body"] = string(responseBody)
	}

	return result, nil
}
