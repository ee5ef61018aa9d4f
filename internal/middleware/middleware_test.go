package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.POST("/x", func(c *gin.Context) {
		c.String(http.StatusOK, Actor(c))
	})
	return r
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(CORSMiddleware())

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestCORSWithoutOrigin(t *testing.T) {
	r := newEngine(CORSMiddleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	token, err := tokens.Issue(&models.User{Username: "admin", Role: "admin"})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name     string
		required bool
		header   string
		status   int
		body     string
	}{
		{"required, missing", true, "", http.StatusUnauthorized, ""},
		{"required, garbage", true, "Bearer nope", http.StatusUnauthorized, ""},
		{"required, valid", true, "Bearer " + token, http.StatusOK, "admin"},
		{"optional, missing", false, "", http.StatusOK, ""},
		{"optional, garbage", false, "Bearer nope", http.StatusOK, ""},
		{"optional, valid", false, "bearer " + token, http.StatusOK, "admin"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newEngine(AuthMiddleware(tokens, tc.required))

			req := httptest.NewRequest(http.MethodPost, "/x", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
			if tc.status == http.StatusOK && w.Body.String() != tc.body {
				t.Fatalf("actor = %q, want %q", w.Body.String(), tc.body)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	r := newEngine(rl.Limit())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("other client limited: %d", w.Code)
	}
}

func TestRateLimiterSweepsOncePerIdlePeriod(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clock := start

	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return clock }
	rl.lastSweep = start

	rl.getLimiter("a")

	clock = start.Add(5 * time.Minute)
	rl.getLimiter("b")

	// "a" is idle past the limit, but the last sweep is too recent
	clock = start.Add(9 * time.Minute)
	rl.idle = 3 * time.Minute
	rl.lastSweep = start.Add(7 * time.Minute)
	rl.getLimiter("c")
	if _, ok := rl.visitors["a"]; !ok {
		t.Fatal("sweep ran before an idle period passed")
	}

	clock = start.Add(10 * time.Minute)
	rl.getLimiter("c")
	if _, ok := rl.visitors["a"]; ok {
		t.Fatal("idle visitor a not swept")
	}
	if _, ok := rl.visitors["b"]; ok {
		t.Fatal("idle visitor b not swept")
	}
	if _, ok := rl.visitors["c"]; !ok {
		t.Fatal("active visitor c swept")
	}
	if !rl.lastSweep.Equal(clock) {
		t.Fatalf("lastSweep = %v", rl.lastSweep)
	}
}
