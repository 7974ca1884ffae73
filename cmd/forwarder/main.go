package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/user/gelf-forwarder/internal/adapter/metrics"
	"github.com/user/gelf-forwarder/internal/adapter/redisstream"
	"github.com/user/gelf-forwarder/internal/gelf"
	"github.com/user/gelf-forwarder/internal/pkg/config"
	"github.com/user/gelf-forwarder/internal/pkg/logger"
	"github.com/user/gelf-forwarder/internal/usecase"
)

const (
	consumerGroup = "gelf-forwarders"
	pollInterval  = 1 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)
	log.Info("starting gelf forwarder",
		"source", cfg.SourceHostname,
		"gelf_host", cfg.GelfHost,
		"gelf_port", cfg.GelfPort,
	)

	m := metrics.New()

	// --- Admin and Metrics Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminMux,
	}

	go func() {
		log.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Redis Connection ---
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to redis")

	consumerName, err := os.Hostname()
	if err != nil {
		log.Warn("could not get hostname for consumer name, using default", "error", err)
		consumerName = "forwarder-default"
	}

	source, err := redisstream.NewSource(redisClient, log, cfg.AuditStream, consumerGroup, consumerName)
	if err != nil {
		log.Error("failed to create audit event source", "error", err)
		os.Exit(1)
	}

	// The provider cannot exist without a usable socket; abort startup.
	sender, err := gelf.NewUDPSender(cfg.GelfHost, cfg.GelfPort, log)
	if err != nil {
		log.Error("failed to open gelf udp socket", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := sender.Close(); err != nil {
			log.Error("failed to close gelf udp socket", "error", err)
		}
	}()

	var limiter *rate.Limiter
	if cfg.MaxSendRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxSendRate), int(cfg.MaxSendRate)+1)
	}

	forwarder := usecase.NewForwardUseCase(
		gelf.NewBuilder(cfg.SourceHostname),
		sender,
		source,
		m,
		log,
		usecase.ForwardOptions{
			BatchSize:             cfg.BatchSize,
			IncludeRepresentation: cfg.IncludeRepresentation,
			Limiter:               limiter,
		},
	)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Info("forwarder started, draining audit events", "group", consumerGroup, "consumer", consumerName)

Loop:
	for {
		select {
		case <-ticker.C:
			if _, err := forwarder.ProcessBatch(ctx); err != nil {
				log.Error("error processing batch", "error", err)
			}
		case <-ctx.Done():
			log.Info("context cancelled, shutting down forwarder loop")
			break Loop
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Error("admin server shutdown failed", "error", err)
	}

	log.Info("gelf forwarder shut down gracefully")
}
