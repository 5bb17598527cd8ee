package sui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements ChainState using HTTP JSON-RPC 2.0.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// Compile-time interface check.
var _ ChainState = (*HTTPClient)(nil)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a Sui fullnode JSON-RPC client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error returned by the fullnode.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff.
// RPC-level errors are returned immediately.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	start := time.Now()
	defer func() {
		observability.RecordRPCLatency(method, time.Since(start).Seconds())
	}()

	reqID := c.requestID.Add(1)
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			return rpcResp.Error
		}

		if result != nil && len(rpcResp.Result) > 0 {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("%s: max retries exceeded: %w", method, lastErr)
}

// getObjectResult is the raw sui_getObject response.
type getObjectResult struct {
	Data *struct {
		ObjectID string `json:"objectId"`
		Type     string `json:"type"`
	} `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

// GetObjectType fetches an object with showType and returns its type string.
func (c *HTTPClient) GetObjectType(ctx context.Context, objectID string) (string, error) {
	params := []interface{}{
		objectID,
		map[string]interface{}{"showType": true},
	}

	var result getObjectResult
	if err := c.call(ctx, "sui_getObject", params, &result); err != nil {
		return "", err
	}

	if result.Data == nil {
		code := "missing data"
		if result.Error != nil {
			code = result.Error.Code
		}
		return "", fmt.Errorf("%w: %s (%s)", ErrObjectNotFound, objectID, code)
	}
	if result.Data.Type == "" {
		return "", fmt.Errorf("%w: %s has no type", ErrObjectNotFound, objectID)
	}

	return result.Data.Type, nil
}

type coinMetadataResult struct {
	ID          *string `json:"id"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Decimals    uint8   `json:"decimals"`
	Description string  `json:"description"`
	IconURL     *string `json:"iconUrl"`
}

// GetCoinMetadata fetches CoinMetadata for a coin type.
func (c *HTTPClient) GetCoinMetadata(ctx context.Context, coinType string) (*domain.CoinMetadata, error) {
	var result *coinMetadataResult
	if err := c.call(ctx, "suix_getCoinMetadata", []interface{}{coinType}, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: %s", ErrMetadataNotFound, coinType)
	}

	return &domain.CoinMetadata{
		ID:          result.ID,
		Name:        result.Name,
		Symbol:      result.Symbol,
		Decimals:    result.Decimals,
		Description: result.Description,
		IconURL:     result.IconURL,
	}, nil
}

// GetTotalSupply fetches the total supply of a coin type.
func (c *HTTPClient) GetTotalSupply(ctx context.Context, coinType string) (uint64, error) {
	var result struct {
		Value string `json:"value"`
	}
	if err := c.call(ctx, "suix_getTotalSupply", []interface{}{coinType}, &result); err != nil {
		return 0, err
	}

	v, err := strconv.ParseUint(result.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse total supply %q: %w", result.Value, err)
	}
	return v, nil
}

// GetBalance fetches the total balance of coinType owned by owner.
func (c *HTTPClient) GetBalance(ctx context.Context, owner, coinType string) (uint64, error) {
	var result struct {
		CoinType     string `json:"coinType"`
		TotalBalance string `json:"totalBalance"`
	}
	if err := c.call(ctx, "suix_getBalance", []interface{}{owner, coinType}, &result); err != nil {
		return 0, err
	}

	v, err := strconv.ParseUint(result.TotalBalance, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance %q: %w", result.TotalBalance, err)
	}
	return v, nil
}
