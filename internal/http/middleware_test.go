package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httputils "github.com/twitsprout/tools/http"
	tm "github.com/twitsprout/tools/mock"
)

func TestRateLimitMiddleware(t *testing.T) {
	var served int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served++
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RateLimitMiddleware(1, tm.NopLogger)(next)

	wr := httptest.NewRecorder()
	handler.ServeHTTP(wr, httptest.NewRequest("GET", "/pictures/cursor", nil))
	if wr.Code != http.StatusNoContent {
		t.Fatalf("expected the first request to pass, got %d", wr.Code)
	}

	// The bucket is empty, so the next request waits longer than its deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	wr = httptest.NewRecorder()
	handler.ServeHTTP(wr, httptest.NewRequest("GET", "/pictures/cursor", nil).WithContext(ctx))
	if wr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", wr.Code)
	}
	var res httputils.JSONErrRes
	if err := jsonDecode(wr, &res); err != nil {
		t.Fatal(err)
	}
	if res.Error.Message != "rate limit exceeded" {
		t.Fatalf("unexpected message %q", res.Error.Message)
	}
	if served != 1 {
		t.Fatalf("expected one request served, got %d", served)
	}
}
