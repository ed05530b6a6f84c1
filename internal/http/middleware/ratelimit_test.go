package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(rps float64, burst int) *gin.Engine {
	r := gin.New()
	rl := NewRateLimiter(rps, burst, KeyByUserOrIP())
	r.Use(rl.Handler())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func doGet(r http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	r := newLimitedRouter(0.001, 3) // effectively no refill during the test

	for i := 0; i < 3; i++ {
		if w := doGet(r, "203.0.113.7:1234"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, w.Code)
		}
	}
	w := doGet(r, "203.0.113.7:1234")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("over-burst status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("429 without Retry-After header")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	r := newLimitedRouter(0.001, 1)

	if w := doGet(r, "203.0.113.7:1234"); w.Code != http.StatusOK {
		t.Fatalf("first caller: %d", w.Code)
	}
	if w := doGet(r, "203.0.113.7:1234"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("first caller not limited: %d", w.Code)
	}
	// A different client IP has its own bucket.
	if w := doGet(r, "198.51.100.9:1234"); w.Code != http.StatusOK {
		t.Fatalf("second caller: %d", w.Code)
	}
}

func TestKeyByUserOrIP(t *testing.T) {
	keyFn := KeyByUserOrIP()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "203.0.113.7:1234"
	if got := keyFn(c); got != "ip:203.0.113.7" {
		t.Fatalf("anonymous key = %q", got)
	}

	c.Set(ctxKeyUserID, "user-42")
	if got := keyFn(c); got != "user:user-42" {
		t.Fatalf("authenticated key = %q", got)
	}
}

func TestNewRateLimiter_CoercesBurst(t *testing.T) {
	rl := NewRateLimiter(1, 0, KeyByUserOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst = %d, want 1", rl.burst)
	}
}
