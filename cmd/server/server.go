package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpc_logging "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"

	apiv1alpha1 "github.com/KirkDiggler/rpg-api-protos/gen/go/clients/api/v1alpha1"

	"github.com/KirkDiggler/rpg-advancement/internal/engine/rpgtoolkit"
	"github.com/KirkDiggler/rpg-advancement/internal/handlers/api/v1alpha1"
	"github.com/KirkDiggler/rpg-advancement/internal/handlers/webhook"
	"github.com/KirkDiggler/rpg-advancement/internal/metrics"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/clock"
)

const shutdownTimeout = 30 * time.Second

var (
	grpcPort int
	httpAddr string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the gRPC and webhook servers",
	Long: `Start the dice gRPC service and the HTTP webhook for the text-command
dice channel. Prometheus metrics are served on the webhook listener at /metrics.`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().IntVar(&grpcPort, "port", 50051, "gRPC server port (overrides ADVANCEMENT_GRPC_PORT)")
	serverCmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "Webhook listen address (overrides ADVANCEMENT_HTTP_ADDR)")
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.GRPCPort = grpcPort
	}
	if cmd.Flags().Changed("http-addr") {
		cfg.HTTPAddr = httpAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(registry)
	if err != nil {
		return err
	}

	bus := events.NewBus()
	m.Subscribe(bus)
	publisher, err := rpgtoolkit.NewPublisher(bus)
	if err != nil {
		return err
	}

	diceService, closeDice, err := openDice(ctx, cfg, publisher)
	if err != nil {
		return err
	}
	defer closeDice()

	diceHandler, err := v1alpha1.NewDiceHandler(&v1alpha1.DiceHandlerConfig{
		DiceService: diceService,
	})
	if err != nil {
		return fmt.Errorf("failed to create dice handler: %w", err)
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc_logging.UnaryServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.UnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			grpc_logging.StreamServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.StreamServerInterceptor(),
		),
	)
	apiv1alpha1.RegisterDiceServiceServer(srv, diceHandler)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(v1alpha1.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(srv)

	router, err := webhook.NewRouter(&webhook.Config{
		DiceService: diceService,
		Limiter: webhook.NewRateLimiter(webhook.RateLimiterOptions{
			Limit:  rate.Limit(cfg.WebhookRate),
			Burst:  cfg.WebhookBurst,
			Expiry: webhook.DefaultRateLimiterOptions().Expiry,
		}, clock.New()),
		Gatherer: registry,
	})
	if err != nil {
		return fmt.Errorf("failed to create webhook router: %w", err)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	errChan := make(chan error, 2)
	go func() {
		slog.Info("gRPC server starting", "port", cfg.GRPCPort)
		if err := srv.Serve(lis); err != nil {
			errChan <- fmt.Errorf("failed to serve grpc: %w", err)
		}
	}()
	go func() {
		slog.Info("webhook server starting", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("failed to serve http: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("received shutdown signal, gracefully stopping")
	case serveErr = <-errChan:
		slog.Error("server failed", "error", serveErr)
	}

	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("webhook shutdown incomplete", "error", err)
	}

	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()

	select {
	case <-shutdownCtx.Done():
		slog.Warn("graceful shutdown timeout exceeded, forcing stop")
		srv.Stop()
	case <-stopped:
		slog.Info("servers stopped gracefully")
	}

	return serveErr
}

// logFunc bridges the grpc logging interceptor onto slog; the interceptor
// levels share slog's numeric values.
func logFunc(ctx context.Context, level grpc_logging.Level, msg string, fields ...any) {
	slog.Log(ctx, slog.Level(level), msg, fields...)
}
