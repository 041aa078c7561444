package price

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("token_in") != "0xaa" || q.Get("token_out") != "0xbb" || q.Get("amount_in") != "1000" {
			t.Errorf("query = %v", q)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"amount_out":"987"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, APIKey: "secret"})
	out, err := c.Quote(context.Background(), "0xaa", "0xbb", big.NewInt(1000))
	if err != nil {
		t.Fatal(err)
	}
	if out.Cmp(big.NewInt(987)) != 0 {
		t.Errorf("out = %s, want 987", out)
	}
}

func TestQuoteErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("token_in") {
		case "unavailable":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "garbage":
			w.Write([]byte(`{"amount_out":"not a number"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL})
	for _, tokenIn := range []string{"unavailable", "garbage"} {
		if _, err := c.Quote(context.Background(), tokenIn, "0xbb", big.NewInt(1)); err == nil {
			t.Errorf("%s: expected error", tokenIn)
		}
	}
	if _, err := c.Quote(context.Background(), "0xaa", "0xbb", nil); err == nil {
		t.Error("nil amount: expected error")
	}
}
