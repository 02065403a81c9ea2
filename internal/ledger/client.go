// Package ledger provides an HTTP client for the ledger node's JSON API:
// account state lookup, transaction submission and transaction status.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	klog "github.com/spacemeshos/smh-collector/internal/log"
)

// API paths, relative to the node's base URL.
const (
	PathAccountList       = "/spacemesh.v2alpha1.AccountService/List"
	PathSubmitTransaction = "/spacemesh.v2alpha1.TransactionService/SubmitTransaction"
	PathTransactionList   = "/spacemesh.v2alpha1.TransactionService/List"
)

// MaxPerCall is the node's cap on addresses or ids in a single List call.
const MaxPerCall = 100

// DefaultTimeout bounds a single HTTP round-trip.
const DefaultTimeout = 10 * time.Second

// maxBodySize is the maximum accepted response body size (4 MB).
const maxBodySize = 4 << 20

// Client talks to one ledger node.
type Client struct {
	endpoint string
	http     *http.Client
	logger   zerolog.Logger
}

// New creates a new client targeting the given base URL.
func New(endpoint string) *Client {
	return NewWithTimeout(endpoint, DefaultTimeout)
}

// NewWithTimeout creates a new client with a custom HTTP timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
		logger: klog.Ledger,
	}
}

// Endpoint returns the base URL the client was created with.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// APIError is returned when the node answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (http %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

// gatewayError is the error body of the node's HTTP gateway.
type gatewayError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// post sends req as JSON to path and decodes the response into resp.
func (c *Client) post(ctx context.Context, path string, req, resp interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug().
		Str("path", path).
		Int("status", httpResp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("ledger call")

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: httpResp.StatusCode}
		var gw gatewayError
		if json.Unmarshal(data, &gw) == nil && gw.Message != "" {
			apiErr.Code = gw.Code
			apiErr.Message = gw.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if err := json.Unmarshal(data, resp); err != nil {
		return &ValidationError{Op: path, Reason: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}
