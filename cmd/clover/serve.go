package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/routes/configuration"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	"github.com/Ramsey-B/clover/pkg/routes/records"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API. Pending migrations are applied on startup.

Examples:
  # Serve on the configured PORT
  clover serve

  # Also refresh stale estimates every 15 minutes
  clover serve --refresh-interval 15m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, appOptions{migrate: true, service: true, cache: true, events: true})
		if err != nil {
			return err
		}
		defer a.close()

		e := a.newServer()
		checker := health.NewChecker(a.db, a.redisPinger(), a.cfg.Version)
		checker.RegisterRoutes(e)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", a.cfg.Port),
			Handler:           e,
			ReadTimeout:       time.Duration(a.cfg.HttpServerReadTimeoutSeconds) * time.Second,
			WriteTimeout:      time.Duration(a.cfg.HttpServerWriteTimeoutSeconds) * time.Second,
			IdleTimeout:       time.Duration(a.cfg.HttpServerIdleTimeoutSeconds) * time.Second,
			ReadHeaderTimeout: time.Duration(a.cfg.ReadHeaderTimeoutSeconds) * time.Second,
			MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
		}

		errCh := make(chan error, 1)
		go func() {
			a.logger.WithField("addr", srv.Addr).Info("HTTP server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		if refreshInterval > 0 {
			go a.refreshEvery(ctx, refreshInterval)
		}
		checker.SetReady(true)

		select {
		case <-ctx.Done():
			a.logger.Info("Shutdown signal received")
		case err := <-errCh:
			if err != nil {
				return err
			}
		}

		checker.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().Duration("refresh-interval", 0, "refresh stale estimates on this interval (0 disables)")
	rootCmd.AddCommand(serveCmd)
}

func (a *app) newServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(a.logger)

	e.Use(echomw.Recover())
	e.Use(otelecho.Middleware(a.cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Container(a.containerID))
	e.Use(middleware.Logger(a.logger))
	e.Use(echomw.BodyLimit(a.cfg.MaxBodyBytes))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cfg.AllowOrigins,
		AllowMethods: a.cfg.AllowMethods,
	}))

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	configuration.Register(e.Group("/configurations"))
	records.Register(e.Group("/records"))
	return e
}

func (a *app) redisPinger() health.Pinger {
	if a.redis == nil {
		return nil
	}
	return health.PingerFunc(a.redis.Ping)
}

// refreshEvery runs the staleness refresh until ctx is done
func (a *app) refreshEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.service.RefreshAll(ctx); err != nil {
				a.logger.WithContext(ctx).WithError(err).Error("Scheduled refresh failed")
			}
		}
	}
}
