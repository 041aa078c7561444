package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Client is a JSON-RPC 2.0 client over HTTP with retry and throttle
// awareness for a single node endpoint.
type Client struct {
	name       string
	endpoint   string
	httpClient *http.Client

	mu           sync.RWMutex
	totalLatency time.Duration
	successCount int
	failureCount int
	requestCount int

	maxRetries   int
	retryBackoff time.Duration
}

// NewClient creates a new JSON-RPC client for endpoint.
func NewClient(name, endpoint string, timeout time.Duration) *Client {
	return &Client{
		name:     name,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxRetries:   3,
		retryBackoff: 200 * time.Millisecond,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call makes a single JSON-RPC call, retrying transient failures with
// linear backoff. RPC-level errors (the node answered, the method failed)
// are returned without retry.
func (c *Client) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * c.retryBackoff):
			}
		}

		result, retryable, err := c.doCall(ctx, method, params)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) doCall(ctx context.Context, method string, params []any) (json.RawMessage, bool, error) {
	start := time.Now()

	if params == nil {
		params = []any{}
	}
	jsonData, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	if err != nil {
		c.recordFailure()
		return nil, false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		c.recordFailure()
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure()
		return nil, true, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.recordFailure()
		return nil, true, fmt.Errorf("rate limited (429), retry after: %s", resp.Header.Get("Retry-After"))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordFailure()
		return nil, true, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.recordFailure()
		return nil, resp.StatusCode >= 500, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		c.recordFailure()
		return nil, false, fmt.Errorf("parse response: %w", err)
	}
	if rpcResp.Error != nil {
		c.recordFailure()
		return nil, false, rpcResp.Error
	}

	c.recordSuccess(time.Since(start))
	return rpcResp.Result, false, nil
}

// CallInto decodes the RPC result directly into out.
func (c *Client) CallInto(ctx context.Context, out any, method string, params []any) error {
	raw, err := c.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// Name returns the client's configured name.
func (c *Client) Name() string { return c.name }

// Stats reports request counters and the average success latency.
func (c *Client) Stats() (requests, successes, failures int, avgLatency time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.successCount > 0 {
		avgLatency = c.totalLatency / time.Duration(c.successCount)
	}
	return c.requestCount, c.successCount, c.failureCount, avgLatency
}

func (c *Client) recordSuccess(latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successCount++
	c.requestCount++
	c.totalLatency += latency
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failureCount++
	c.requestCount++
}
