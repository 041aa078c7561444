package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestCallReturnsResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.JSONRPC != "2.0" || req.Method != "eth_blockNumber" {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 1, "result": "0x10"})
	}))
	defer srv.Close()

	c := NewClient("test", srv.URL, 5*time.Second)
	var got string
	if err := c.CallInto(context.Background(), &got, "eth_blockNumber", nil); err != nil {
		t.Fatalf("call: %v", err)
	}
	if got != "0x10" {
		t.Errorf("result = %q, want 0x10", got)
	}
}

func TestCallRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 1, "result": "0x1"})
	}))
	defer srv.Close()

	c := NewClient("test", srv.URL, 5*time.Second)
	c.retryBackoff = time.Millisecond
	if _, err := c.Call(context.Background(), "eth_blockNumber", nil); err != nil {
		t.Fatalf("call after retries: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("server saw %d calls, want 3", n)
	}

	requests, successes, failures, _ := c.Stats()
	if requests != 3 || successes != 1 || failures != 2 {
		t.Errorf("stats = (%d, %d, %d)", requests, successes, failures)
	}
}

func TestCallDoesNotRetryRPCErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": 1,
			"error": map[string]any{"code": -32601, "message": "method not found"},
		})
	}))
	defer srv.Close()

	c := NewClient("test", srv.URL, 5*time.Second)
	c.retryBackoff = time.Millisecond
	if _, err := c.Call(context.Background(), "eth_bogus", nil); err == nil {
		t.Fatal("expected rpc error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("rpc-level error retried: %d calls", n)
	}
}
