package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todoTracker/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            "0",
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: time.Second,
			CorsOrigins:     []string{"*"},
		},
		Repository: config.RepositoryConfig{Type: config.RepositoryInMemory},
		Auth:       config.AuthConfig{JWTSecret: secret},
		RateLimit:  config.RateLimitConfig{Requests: 100, Window: time.Minute, MaxClients: 100},
		Notify:     config.NotifyConfig{Buffer: 16, Workers: 1},
		Tasks:      config.TasksConfig{MaxSubtaskDepth: 4, Timezone: "UTC"},
	}
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func call(t *testing.T, h http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("Authorization", bearer(t, user))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestApp_EndToEnd(t *testing.T) {
	a, err := New(testConfig()).Init(context.Background())
	require.NoError(t, err)
	t.Cleanup(a.shutdown)

	h := a.Handler()

	w := call(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = call(t, h, http.MethodGet, "/tasks", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, h, http.MethodPost, "/tasks", "alice", `{"title":"Plan trip","priority":"high"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Task struct {
			ID       string `json:"id"`
			OwnerID  string `json:"owner_id"`
			Priority string `json:"priority"`
		} `json:"task"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, "alice", created.Task.OwnerID)
	assert.Equal(t, "high", created.Task.Priority)

	w = call(t, h, http.MethodPost, "/tasks/"+created.Task.ID+"/subtasks", "alice", `{"title":"Book flights"}`)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(t, h, http.MethodGet, "/tasks/"+created.Task.ID, "bob", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, h, http.MethodPost, "/tasks/"+created.Task.ID+"/share", "alice", `{"user_id":"bob","permission":"view"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(t, h, http.MethodGet, "/tasks/"+created.Task.ID, "bob", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, h, http.MethodPatch, "/tasks/"+created.Task.ID, "bob", `{"title":"Hijacked"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, h, http.MethodGet, "/tasks/stats", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Stats struct {
			Total int `json:"total"`
		} `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 1, stats.Stats.Total)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Worker = config.WorkerConfig{Enabled: true, Interval: 10 * time.Millisecond, BatchSize: 10}

	a, err := New(cfg).Init(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestNewRepository_Unknown(t *testing.T) {
	cfg := testConfig()
	cfg.Repository.Type = "mongo"
	_, _, err := newRepository(context.Background(), cfg)
	assert.Error(t, err)
}
