package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestTokenBucketAllow(t *testing.T) {
	now := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	l := NewTokenBucket(2, 60)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests must pass")
	}
	if l.Allow("a") {
		t.Fatal("third request must be limited")
	}
	if !l.Allow("b") {
		t.Fatal("keys must be independent")
	}

	now = now.Add(1500 * time.Millisecond)
	if !l.Allow("a") {
		t.Fatal("one token should refill after 1.5s at 60/min")
	}
	if l.Allow("a") {
		t.Fatal("refill must not exceed elapsed time")
	}

	now = now.Add(time.Hour)
	if !l.Allow("a") || !l.Allow("a") || l.Allow("a") {
		t.Fatal("refill must cap at capacity")
	}
}

func TestMiddlewareChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(), SecurityHeaders(), NewTokenBucket(1, 1).GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	do := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/ping", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodOptions)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin = %q", got)
	}

	w = do(http.MethodGet)
	if w.Code != http.StatusOK || w.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("first GET = %d, headers %v", w.Code, w.Header())
	}
	if w = do(http.MethodGet); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second GET = %d, want 429", w.Code)
	}
}
