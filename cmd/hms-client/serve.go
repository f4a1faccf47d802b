package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/healthsync/hms-client/internal/domain/account"
	"github.com/healthsync/hms-client/internal/domain/billing"
	"github.com/healthsync/hms-client/internal/platform/middleware"
	"github.com/healthsync/hms-client/internal/platform/session"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the billing console HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(os.Stdout)
			if err != nil {
				return err
			}
			return runServer(a)
		},
	}
}

func newServer(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(a.cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(a.cfg.RequestTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "ok",
			"api":    a.cfg.APIBaseURL,
		})
	})

	apiV1 := e.Group("/api/v1")
	account.NewHandler(a.accounts).RegisterRoutes(apiV1)

	billingGroup := apiV1.Group("", session.RequireSession(a.store))
	billing.NewHandler(a.billing).RegisterRoutes(billingGroup)

	return e
}

func runServer(a *app) error {
	e := newServer(a)

	// Graceful shutdown
	go func() {
		addr := a.cfg.Addr()
		a.logger.Info().Str("addr", addr).Str("api", a.cfg.APIBaseURL).Msg("starting console")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			a.logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info().Msg("shutting down console")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return err
	}
	a.logger.Info().Msg("console stopped")
	return nil
}
