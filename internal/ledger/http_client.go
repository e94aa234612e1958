// internal/ledger/http_client.go
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cmatc13/ledgerflow/internal/signing"
	"github.com/cmatc13/ledgerflow/pkg/errors"
)

// HTTPClient talks to a remote ledger service over plain HTTP JSON.
// A single client is safe for concurrent use; the underlying transport
// pools connections across independent requests.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a ledger client for the given base URL
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Submit implements Client
func (c *HTTPClient) Submit(ctx context.Context, tx *signing.SignedTransaction) (*SubmitReceipt, error) {
	body, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize signed transaction: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read submit response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted:
		var receipt SubmitReceipt
		if err := json.Unmarshal(data, &receipt); err != nil {
			return nil, fmt.Errorf("malformed submit receipt: %w", err)
		}
		return &receipt, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var rejection errorResponse
		if err := json.Unmarshal(data, &rejection); err != nil || rejection.Error == "" {
			rejection.Error = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, &RejectionError{Message: rejection.Error}
	}
	return nil, fmt.Errorf("unexpected submit status %d", resp.StatusCode)
}

// GetByAddress implements Client
func (c *HTTPClient) GetByAddress(ctx context.Context, address string) (*TransactionRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/transactions/"+address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var record TransactionRecord
		if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
			return nil, fmt.Errorf("malformed transaction record: %w", err)
		}
		if record.Status != StatusPending && !record.Terminal() {
			// Do not guess at statuses outside the known enumeration
			return nil, fmt.Errorf("unknown transaction status %q", record.Status)
		}
		return &record, nil
	case http.StatusNotFound:
		return nil, errors.ErrNotFound
	}
	return nil, fmt.Errorf("unexpected status request response %d", resp.StatusCode)
}
