package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "test" {
			t.Errorf("query q = %q, want %q", got, "test")
		}
		w.Write([]byte(`{"value": 42}`))
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	var out struct {
		Value int `json:"value"`
	}
	params := map[string][]string{"q": {"test"}}
	if err := c.GetJSON(context.Background(), srv.URL, params, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Value != 42 {
		t.Errorf("decoded value = %d, want 42", out.Value)
	}
}

func TestGetJSONRetriesOnServerError(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	c.retryDelay = time.Millisecond
	var out struct{}
	if err := c.GetJSON(context.Background(), srv.URL, nil, &out); err != nil {
		t.Fatalf("GetJSON should succeed on the third attempt: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestGetJSONGivesUpAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	c.retryDelay = time.Millisecond
	var out struct{}
	if err := c.GetJSON(context.Background(), srv.URL, nil, &out); err == nil {
		t.Fatal("GetJSON should fail after exhausting retries")
	}
}

func TestGetJSONHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(2 * time.Second)
	c.retryDelay = time.Minute
	var out struct{}
	start := time.Now()
	if err := c.GetJSON(ctx, srv.URL, nil, &out); err == nil {
		t.Fatal("GetJSON should fail with canceled context")
	}
	if time.Since(start) > time.Second {
		t.Error("canceled context should stop retry waits immediately")
	}
}
