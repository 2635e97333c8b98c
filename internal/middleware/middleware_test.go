package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ukydev/fleet-maintenance/internal/metrics"
)

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimitMiddleware()
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	handler := limiter.RateLimit(2, 60)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/vehicles", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("192.168.1.1:12345"))
	assert.Equal(t, http.StatusOK, send("192.168.1.1:12346"))
	assert.Equal(t, http.StatusTooManyRequests, send("192.168.1.1:12347"))

	// other clients are unaffected
	assert.Equal(t, http.StatusOK, send("192.168.1.2:12345"))

	now = now.Add(61 * time.Second)
	assert.Equal(t, http.StatusOK, send("192.168.1.1:12348"))
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]:5000"
	assert.Equal(t, "::1", getClientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	assert.Equal(t, "10.0.0.3", getClientIP(req))
}

func TestRequireCronSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"matching secret", "s3cret", "s3cret", http.StatusOK},
		{"wrong secret", "s3cret", "guess", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"endpoint disabled", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cron/maintenance", nil)
			if tt.header != "" {
				req.Header.Set(CronSecretHeader, tt.header)
			}
			w := httptest.NewRecorder()
			called := false
			RequireCronSecret(tt.secret)(recordingHandler(&called)).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.want == http.StatusOK, called)
		})
	}
}

func TestRecovery(t *testing.T) {
	handler := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/costs", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestRequestLogger_PassesStatusThrough(t *testing.T) {
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestInstrument(t *testing.T) {
	pattern := "GET /api/instrument-test"
	handler := Instrument(pattern)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(pattern, "201", "get"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/instrument-test", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(pattern, "201", "get")))
}

func TestCORS(t *testing.T) {
	called := false
	handler := CORS("https://fleet.example")(recordingHandler(&called))

	preflight := httptest.NewRequest(http.MethodOptions, "/api/users/1/active", nil)
	preflight.Header.Set("Origin", "https://fleet.example")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	preflight.Header.Set("Access-Control-Request-Headers", CronSecretHeader)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, preflight)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, called)
	assert.Equal(t, "https://fleet.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), strings.ToLower(CronSecretHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles", nil)
	req.Header.Set("Origin", "https://fleet.example")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.True(t, called)
	assert.Equal(t, "https://fleet.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_RejectsOtherOrigins(t *testing.T) {
	called := false
	handler := CORS("https://fleet.example")(recordingHandler(&called))

	preflight := httptest.NewRequest(http.MethodOptions, "/api/vehicles", nil)
	preflight.Header.Set("Origin", "https://evil.example")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, preflight)
	assert.False(t, called)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.True(t, called)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { order = append(order, "handler") }),
		mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
