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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sanosuguru/sportup/internal/api"
	"github.com/sanosuguru/sportup/internal/api/handler"
	"github.com/sanosuguru/sportup/internal/api/middleware"
	"github.com/sanosuguru/sportup/internal/config"
	"github.com/sanosuguru/sportup/internal/infrastructure/postgres"
	"github.com/sanosuguru/sportup/internal/pkg/logger"
	"github.com/sanosuguru/sportup/internal/pkg/metrics"
	"github.com/sanosuguru/sportup/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "HTTPサーバーを起動する",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), c.cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "起動前にマイグレーションを適用する（postgres のみ）")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, migrate bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m := metrics.Init()

	a, err := buildApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("接続のクローズに失敗しました", zap.Error(err))
		}
	}()

	if migrate && a.db != nil {
		if err := postgres.RunMigrations(a.db.DB, cfg.Database.MigrationsPath); err != nil {
			return err
		}
		logger.Info("マイグレーションを適用しました")
	}

	eventService := a.eventService()
	profileService := a.profileService()

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	middleware.SetupMiddleware(e)
	e.Use(middleware.PrometheusMiddleware(m))

	metricsHandler := echo.WrapHandler(promhttp.Handler())
	if middleware.MetricsAuthEnabled(cfg.Metrics) {
		e.GET("/metrics", metricsHandler, middleware.MetricsBasicAuth(cfg.Metrics))
	} else {
		logger.Warn("METRICS_USER が未設定のため /metrics は認証なしで公開されます")
		e.GET("/metrics", metricsHandler)
	}

	handler.RegisterRoutes(e, handler.Handlers{
		Health:     handler.NewHealthHandler(a.pingers),
		Event:      handler.NewEventHandler(eventService),
		Profile:    handler.NewProfileHandler(profileService),
		Suggestion: handler.NewSuggestionHandler(a.suggestionService()),
	}, middleware.Authenticate(a.verifier, profileService))

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()
	reporter := worker.NewUpcomingEventsReporter(eventService, cfg.Worker.UpcomingReportInterval)
	go reporter.Start(workerCtx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("サーバーを起動します",
			zap.String("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Backend),
			zap.Bool("redis", a.redis != nil),
			zap.Bool("suggestions", a.generator != nil),
			zap.Bool("photoStorage", a.blobs != nil),
		)
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		reporter.Stop()
		return err
	case <-quit:
	}

	logger.Info("サーバーをシャットダウンしています...")
	reporter.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("サーバーが正常にシャットダウンしました")
	return nil
}
