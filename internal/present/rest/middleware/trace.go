package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/totegamma/wbconstraints/internal/domain"
)

// TraceID exposes the trace id of the request span as a response header and
// stores it in the request context.
func TraceID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		span := trace.SpanFromContext(ctx)
		if sc := span.SpanContext(); sc.HasTraceID() {
			traceID := sc.TraceID().String()
			c.Response().Header().Set(domain.TraceIDHeader, traceID)
			ctx = context.WithValue(ctx, domain.TraceIDCtxKey, traceID)
			c.SetRequest(c.Request().WithContext(ctx))
		}
		return next(c)
	}
}

// AccessLog writes one structured line per request.
func AccessLog(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
			}
			if traceID, ok := c.Request().Context().Value(domain.TraceIDCtxKey).(string); ok {
				fields = append(fields, zap.String("traceId", traceID))
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}
			logger.Info("request", fields...)
			return nil
		}
	}
}
