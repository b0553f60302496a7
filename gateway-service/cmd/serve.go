package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/investoriq/investoriq-api/gateway-service/internal/gateway"
	"github.com/investoriq/investoriq-api/pkg/config"
	"github.com/investoriq/investoriq-api/pkg/logger"
	"github.com/investoriq/investoriq-api/pkg/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway service",
	Long:  `Start the document gateway API and its health/metrics listener on the configured ports.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("health-port", 0, "Port for the plain HTTP health and metrics listener")
	v.BindPFlag("service.health_port", serveCmd.Flags().Lookup("health-port"))
}

type Config struct {
	config.CommonConfig `mapstructure:",squash"`
}

// loadConfig reads, validates and applies process-wide settings shared by every command
func loadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(v, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	config.LoadStoreConfigFromEnv(&cfg.Store)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	level, err := logger.ParseLevel(cfg.Service.LogLevel)
	if err != nil {
		return cfg, err
	}
	logger.SetLevel(level)
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(logger.ComponentGateway)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:       "gateway-service",
		Enabled:           cfg.OTel.Enabled,
		CollectorEndpoint: cfg.OTel.CollectorEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	store, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}

	svc := gateway.New(store, log, gateway.Options{RequestTimeout: cfg.Service.RequestTimeout})

	server := &http.Server{
		Addr:    cfg.Service.Addr(),
		Handler: telemetry.WrapHandler(svc.Handler(), "gateway-service"),
		// Leave room past the request timeout for the error response
		ReadTimeout:  cfg.Service.RequestTimeout,
		WriteTimeout: cfg.Service.RequestTimeout + 5*time.Second,
	}

	healthServer := &http.Server{
		Addr:         cfg.Service.HealthAddr(),
		Handler:      svc.HealthHandler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		log.Info("Shutting down gateway service...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Shutdown error", "error", err)
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Health server shutdown error", "error", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error("Tracing shutdown error", "error", err)
		}
		close(done)
	}()

	log.Section("STARTING GATEWAY SERVICE")
	log.Info("Gateway Service starting", "addr", cfg.Service.Addr())
	log.Info("Health server starting", "addr", cfg.Service.HealthAddr())
	log.Info("Document store", "backend", cfg.Store.Backend)
	log.Info("Request timeout", "timeout", cfg.Service.RequestTimeout)
	log.Warn("API endpoints are unauthenticated")

	go func() {
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health server error", "error", err)
		}
	}()

	serverErr := server.ListenAndServe()
	if !errors.Is(serverErr, http.ErrServerClosed) {
		store.Close()
		return fmt.Errorf("server error: %w", serverErr)
	}

	<-done
	if err := store.Close(); err != nil {
		log.Error("Store close error", "error", err)
	}
	log.Info("Gateway service stopped")
	return nil
}
