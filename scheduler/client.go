package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoEligibleRecords is returned by CreateBatch when the settlement window
// contains no unpaid revenue. A scheduler tick treats it as a clean skip.
var ErrNoEligibleRecords = errors.New("no eligible records in window")

// Client calls the settlement HTTP API. The scheduler runs against the same
// public surface as any other caller, so a settlement run exercises auth and
// batch endpoints end to end.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the settlement API at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type apiError struct {
	Message string `json:"error"`
	Code    string `json:"code"`
}

// BatchSummary is the slice of a batch the scheduler cares about.
type BatchSummary struct {
	BatchID     string `json:"batch_id"`
	Status      string `json:"status"`
	TotalShops  int    `json:"total_shops"`
	TotalAmount string `json:"total_amount"`
}

// Login authenticates and returns a bearer token. Tokens are not cached
// between ticks; each settlement run logs in fresh.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, "/api/auth/login", "", body, &resp); err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	return resp.Token, nil
}

// CreateBatch asks the API to aggregate the default trailing window into a
// new pending batch. Returns ErrNoEligibleRecords when the window is empty.
func (c *Client) CreateBatch(ctx context.Context, token string) (*BatchSummary, error) {
	var resp struct {
		Batch BatchSummary `json:"batch"`
	}
	if err := c.post(ctx, "/api/revenue/batch/create", token, map[string]string{}, &resp); err != nil {
		return nil, err
	}
	return &resp.Batch, nil
}

// ProcessBatch settles a pending batch under the given transaction id and
// returns the number of revenue records marked paid.
func (c *Client) ProcessBatch(ctx context.Context, token, batchID, transactionID string) (int, error) {
	body := map[string]string{"transaction_id": transactionID}

	var resp struct {
		RecordsUpdated int `json:"records_updated"`
	}
	path := fmt.Sprintf("/api/revenue/batch/%s/process", batchID)
	if err := c.post(ctx, path, token, body, &resp); err != nil {
		return 0, err
	}
	return resp.RecordsUpdated, nil
}

func (c *Client) post(ctx context.Context, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Code == "no_eligible_records" {
			return ErrNoEligibleRecords
		}
		if apiErr.Message != "" {
			return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}
