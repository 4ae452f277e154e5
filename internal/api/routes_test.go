package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/earnings-navigator/backend/internal/config"
	"github.com/earnings-navigator/backend/internal/db"
	"github.com/earnings-navigator/backend/internal/events"
	"github.com/earnings-navigator/backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", Env: "test", AllowOrigins: "*"},
		DB: config.DBConfig{
			URL:          "sqlite://",
			PoolRecycle:  300 * time.Second,
			PrePing:      true,
			MaxOpenConns: 1,
		},
		Session: config.SessionConfig{Secret: "test-secret"},
	}
}

func newTestStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	gdb, err := db.Connect(testConfig())
	require.NoError(t, err)
	s := store.New(gdb, opts...)
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func getJSON(t *testing.T, app *fiber.App, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestInfo(t *testing.T) {
	app, _ := New(testConfig(), newTestStore(t))

	resp, body := getJSON(t, app, "/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "earnings-navigator", body["service"])
	assert.Equal(t, "test", body["env"])
	assert.Len(t, body["entities"], 4)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestHealth(t *testing.T) {
	s := newTestStore(t)
	app, _ := New(testConfig(), s)

	resp, body := getJSON(t, app, "/api/health")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, "none", body["events"])

	require.NoError(t, s.Close())
	resp, body = getJSON(t, app, "/api/health")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unreachable", body["database"])
}

func TestHealth_RedisEvents(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	s := newTestStore(t, store.WithPublisher(events.NewRedisPublisher(client, "")))
	app, _ := New(testConfig(), s)

	resp, body := getJSON(t, app, "/api/health")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "redis", body["events"])

	mr.Close()
	resp, body = getJSON(t, app, "/api/health")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "connected", body["database"])
}

func TestGroups_AcceptHandlers(t *testing.T) {
	app, groups := New(testConfig(), newTestStore(t))
	groups.API.Get("/companies/:id", func(c *fiber.Ctx) error {
		return fmt.Errorf("lookup: %w", &store.Error{Op: "get", Entity: "company", Kind: store.ErrNotFound})
	})

	resp, body := getJSON(t, app, "/api/companies/1")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "record not found")

	resp, _ = getJSON(t, app, "/does-not-exist")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// no event stream without Redis
	resp, _ = getJSON(t, app, "/api/events")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSessionCookieIssued(t *testing.T) {
	app, _ := New(testConfig(), newTestStore(t))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	var found bool
	for _, c := range resp.Cookies() {
		found = found || c.Name == "session"
	}
	assert.True(t, found)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fiber.ErrBadRequest, fiber.StatusBadRequest},
		{&store.Error{Kind: store.ErrNotFound}, fiber.StatusNotFound},
		{&store.Error{Kind: store.ErrValidation}, fiber.StatusUnprocessableEntity},
		{&store.Error{Kind: store.ErrUniqueViolation}, fiber.StatusConflict},
		{&store.Error{Kind: store.ErrForeignKeyViolation}, fiber.StatusConflict},
		{&store.Error{Kind: store.ErrStorage, Err: errors.New("dial tcp: refused")}, fiber.StatusInternalServerError},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestErrorHandler_HidesInternalDetails(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/fail", func(c *fiber.Ctx) error {
		return &store.Error{Op: "list", Entity: "query", Kind: store.ErrStorage, Err: errors.New("password=hunter2")}
	})

	resp, body := getJSON(t, app, "/fail")
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", body["error"])
}
