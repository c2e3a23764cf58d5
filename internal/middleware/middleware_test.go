package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func token(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserID(r.Context())))
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc", seen)
}

func TestLogging_KeepsStatus(t *testing.T) {
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestAuthenticate(t *testing.T) {
	valid := jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"valid token", "Bearer " + token(t, jwt.SigningMethodHS256, secret, valid), http.StatusOK, "u1"},
		{"no header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic dTE6cGFzcw==", http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + token(t, jwt.SigningMethodHS256, []byte("other"), valid), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + token(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{
			Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}), http.StatusUnauthorized, ""},
		{"no expiry", "Bearer " + token(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: "u1"}), http.StatusUnauthorized, ""},
		{"no subject", "Bearer " + token(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}), http.StatusUnauthorized, ""},
		{"unsigned", "Bearer " + token(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid), http.StatusUnauthorized, ""},
	}

	h := Authenticate(secret, nil)(echoUser())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantUser, w.Body.String())
				return
			}
			var body map[string]any
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, "UNAUTHORIZED", body["error"])
		})
	}
}

func TestLimiter_PerIdentity(t *testing.T) {
	l := NewLimiter(RateLimitConfig{Requests: 2, Window: time.Minute, MaxClients: 10})
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow("u1")
	assert.True(t, ok)
	ok, _ = l.Allow("u1")
	assert.True(t, ok)
	ok, wait := l.Allow("u1")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))

	ok, _ = l.Allow("u2")
	assert.True(t, ok, "identities have separate budgets")

	now = now.Add(30 * time.Second)
	ok, _ = l.Allow("u1")
	assert.True(t, ok, "a token refills every window/requests")
}

func TestLimiter_Bounded(t *testing.T) {
	l := NewLimiter(RateLimitConfig{Requests: 1, Window: time.Minute, MaxClients: 2})
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(time.Second)
	l.Allow("b")
	now = now.Add(time.Second)
	l.Allow("c")
	assert.Equal(t, 2, l.Len())

	// "a" was least recently seen and got evicted, so it starts fresh
	ok, _ := l.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 2, l.Len())

	now = now.Add(2 * time.Minute)
	l.Allow("d")
	assert.Equal(t, 1, l.Len(), "expired clients are dropped")
}

func TestRateLimit_Middleware(t *testing.T) {
	l := NewLimiter(RateLimitConfig{Requests: 1, Window: time.Hour, MaxClients: 10})
	h := RateLimit(l)(echoUser())

	send := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		if user != "" {
			req = req.WithContext(WithUserID(req.Context(), user))
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("u1").Code)
	w := send("u1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("u2").Code, "same address, different user")
}

func TestAuthenticate_ThrottlesFailuresByAddress(t *testing.T) {
	failures := NewLimiter(RateLimitConfig{Requests: 2, Window: time.Hour, MaxClients: 10})
	h := Authenticate(secret, failures)(echoUser())
	valid := "Bearer " + token(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{
		Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	send := func(addr, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		req.RemoteAddr = addr
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, send("10.0.0.1:1000", "Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, send("10.0.0.1:1001", "").Code)

	w := send("10.0.0.1:1002", "Bearer garbage")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "RATE_LIMITED", body["error"])

	assert.Equal(t, http.StatusUnauthorized, send("10.0.0.2:1000", "").Code, "other addresses keep their budget")

	ok := send("10.0.0.1:1003", valid)
	assert.Equal(t, http.StatusOK, ok.Code, "a valid token is never throttled here")
	assert.Equal(t, "u1", ok.Body.String())
}

func TestRateLimit_PassesAnonymousThrough(t *testing.T) {
	l := NewLimiter(RateLimitConfig{Requests: 1, Window: time.Hour, MaxClients: 10})
	h := RateLimit(l)(echoUser())

	for range 3 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 0, l.Len())
}
