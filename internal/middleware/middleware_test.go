package middleware_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/metrics"
	"storefront/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestApp(production bool) (*fiber.App, *observer.ObservedLogs, *metrics.Metrics) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	m := metrics.New(prometheus.NewRegistry())

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger, production)})
	app.Use(middleware.Metrics(m))
	app.Use(middleware.RequestLogger(logger))
	app.Use(recover.New())

	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/internal", func(c *fiber.Ctx) error {
		return apperr.Wrap(errors.New("db connection refused"))
	})
	app.Get("/gateway", func(c *fiber.Ctx) error {
		return apperr.GatewayErr("Unable to initialize payment. Please retry.", errors.New("breaker open")).
			WithField("orderId", "o-1")
	})
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("boom")
	})
	app.Use(middleware.NotFound)
	return app, logs, m
}

func get(t *testing.T, app *fiber.App, path string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func TestErrorHandlerDevelopment(t *testing.T) {
	app, _, _ := newTestApp(false)

	status, body := get(t, app, "/internal")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal Server Error", body["message"])
	assert.Contains(t, body["stack"], "db connection refused")

	status, body = get(t, app, "/gateway")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "o-1", body["orderId"])
	assert.Equal(t, "Unable to initialize payment. Please retry.", body["message"])
}

func TestErrorHandlerProduction(t *testing.T) {
	app, _, _ := newTestApp(true)

	status, body := get(t, app, "/internal")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal Server Error", body["message"])
	assert.NotContains(t, body, "stack")
}

func TestNotFound(t *testing.T) {
	app, _, m := newTestApp(false)

	status, body := get(t, app, "/nope?x=1")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not Found - /nope?x=1", body["message"])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("unmatched", "404")))
}

func TestRecoverRendersJSON(t *testing.T) {
	app, logs, _ := newTestApp(false)

	status, body := get(t, app, "/panic")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotEmpty(t, body["message"])
	assert.NotEmpty(t, logs.FilterMessage("http_request").FilterField(zap.Int("status", 500)).All())
}

func TestRequestLoggerLevels(t *testing.T) {
	app, logs, _ := newTestApp(false)

	get(t, app, "/ok")
	get(t, app, "/nope")
	get(t, app, "/internal")

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
}

func TestMetricsUseRoutePattern(t *testing.T) {
	app, _, m := newTestApp(false)

	get(t, app, "/ok")
	get(t, app, "/ok")
	get(t, app, "/gateway")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("/ok", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/gateway", "502")))
}
