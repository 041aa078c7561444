package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"
)

// Client fetches spot quotes from an external price oracle over HTTP.
// Callers treat any error as "no price available" and fail closed.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds price provider configuration.
type Config struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type quoteResponse struct {
	AmountOut string `json:"amount_out"`
}

// Quote returns the current expected output of swapping amountIn of tokenIn
// into tokenOut, in the output token's smallest unit.
func (c *Client) Quote(ctx context.Context, tokenIn, tokenOut string, amountIn *big.Int) (*big.Int, error) {
	if amountIn == nil {
		return nil, fmt.Errorf("amount in is required")
	}

	q := url.Values{}
	q.Set("token_in", tokenIn)
	q.Set("token_out", tokenOut)
	q.Set("amount_in", amountIn.String())

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote http %d: %s", resp.StatusCode, string(body))
	}

	var qr quoteResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, fmt.Errorf("parse quote: %w", err)
	}

	out, ok := new(big.Int).SetString(qr.AmountOut, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount_out: %q", qr.AmountOut)
	}
	return out, nil
}
