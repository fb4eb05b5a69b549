package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/totegamma/wbconstraints/internal/domain"
)

func TestTraceIDAndAccessLog(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(t.Context())

	core, logs := observer.New(zap.InfoLevel)

	var seen string
	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tp.Tracer("test").Start(c.Request().Context(), "request")
			defer span.End()
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	e.Use(TraceID)
	e.Use(AccessLog(zap.New(core)))
	e.GET("/ping", func(c echo.Context) error {
		seen, _ = c.Request().Context().Value(domain.TraceIDCtxKey).(string)
		return c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, res.Header().Get(domain.TraceIDHeader))

	entries := logs.FilterMessage("request").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, int64(http.StatusOK), fields["status"])
		assert.Equal(t, seen, fields["traceId"])
	}
}

func TestTraceIDWithoutSpan(t *testing.T) {
	e := echo.New()
	e.Use(TraceID)
	e.GET("/ping", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.Empty(t, res.Header().Get(domain.TraceIDHeader))
}
