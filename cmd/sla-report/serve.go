package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/billtrust/sla-monitor-report-lambda/internal/app"
	wsInfra "github.com/billtrust/sla-monitor-report-lambda/internal/infrastructure/notification/websocket"
	httpInterface "github.com/billtrust/sla-monitor-report-lambda/internal/interfaces/http"
	"github.com/billtrust/sla-monitor-report-lambda/internal/interfaces/http/handler"
	"github.com/billtrust/sla-monitor-report-lambda/internal/metrics"
	"github.com/billtrust/sla-monitor-report-lambda/internal/scheduler"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

const maxEventsBodyBytes = 1 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the report API and the periodic services list refresh",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	feedLog := logger.New(os.Getenv("LOG_LEVEL"))
	hub := wsInfra.NewHub(feedLog)
	go hub.Run(ctx)
	defer hub.Close()

	application, err := loadApp(ctx, app.WithEventPublisher(hub))
	if err != nil {
		return err
	}
	defer application.Close()

	cfg := application.Config
	log := application.Logger

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	runner := scheduler.NewRunner(application.RefreshServices, log, cfg.Server.ServicesRefreshInterval)
	go runner.Start(ctx)

	router := httpInterface.NewRouter(
		handler.NewReportAPIHandler(application.GetSummary, application.ListReports, log),
		handler.NewEventsAPIHandler(application.Queue, m, maxEventsBodyBytes, log),
		handler.NewServicesAPIHandler(runner, m, log),
		handler.NewReportStreamHandler(hub, cfg.Security.AllowedOrigins, log),
		registry,
		m,
		runner.Ready,
		cfg.Security,
		log,
	)
	router.StartCleanup(ctx)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error("HTTP server failed", err)
			return err
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received, starting graceful shutdown...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
		return err
	}

	log.Info("Server stopped gracefully")
	return nil
}
