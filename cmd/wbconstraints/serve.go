package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/totegamma/wbconstraints/internal/interface/rest"
	"github.com/totegamma/wbconstraints/internal/present/rest/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.Server.EnableTrace {
			shutdown, err := setupTraceProvider(ctx, cfg.Server.TraceEndpoint, "wbconstraints", Version)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Warn("failed to flush traces", zap.Error(err))
				}
			}()
		}

		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.signal != nil {
			go func() {
				err := a.signal.Subscribe(ctx, a.purge.PurgeLocal)
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Error("purge subscription stopped", zap.Error(err))
				}
			}()
		}

		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		e.Use(echomiddleware.Recover())
		e.Use(echomiddleware.CORS())
		if cfg.Server.EnableTrace {
			e.Use(otelecho.Middleware("wbconstraints"))
		}
		e.Use(middleware.TraceID)
		e.Use(middleware.AccessLog(log.Named("http")))

		rest.NewHandler(a.results, a.parameters, a.purge).RegisterRoutes(e)
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
		e.GET("/health", func(c echo.Context) error {
			return c.String(http.StatusOK, "ok")
		})

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				log.Warn("failed to shut down http server", zap.Error(err))
			}
		}()

		log.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("cacheBackend", cfg.Checks.CacheBackend))
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}
