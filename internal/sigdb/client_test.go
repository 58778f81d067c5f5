package sigdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestClientLookupCachesHit(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/signatures/0xa9059cbb" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"transfer","signature":"transfer(address,uint256)"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, NewCache(8), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		sig, ok := client.Lookup(ctx, "0xA9059CBB")
		if !ok || sig != "transfer(address,uint256)" {
			t.Fatalf("lookup %d: %q %v", i, sig, ok)
		}
	}
	if got := requests.Load(); got != 1 {
		t.Fatalf("cache must absorb repeat lookups, got %d requests", got)
	}
}

func TestClientLookupCachesNotFound(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, NewCache(8), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, ok := client.Lookup(ctx, "0xdeadbeef"); ok {
			t.Fatalf("404 must resolve to a miss")
		}
	}
	if got := requests.Load(); got != 1 {
		t.Fatalf("definitive miss must be cached, got %d requests", got)
	}
}

func TestClientLookupServerErrorNotCached(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, NewCache(8), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, ok := client.Lookup(ctx, "0x12345678"); ok {
			t.Fatalf("server error must resolve to a miss")
		}
	}
	if got := requests.Load(); got != 2 {
		t.Fatalf("transient failures must stay retryable, got %d requests", got)
	}
}
