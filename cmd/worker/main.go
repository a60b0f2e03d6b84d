package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"geoattend/internal/config"
	"geoattend/internal/logger"
	"geoattend/internal/metrics"
	"geoattend/internal/queue"
	"geoattend/internal/roster"
	"geoattend/internal/store"
)

// Worker consumes attendance events and maintains the live roster in Redis.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Configure(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	if cfg.QueueBackend != "redis" {
		logger.Fatal().Str("queue", cfg.QueueBackend).Msg("worker needs QUEUE_BACKEND=redis; the api applies in-memory events itself")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisTimeout)
	defer redisClient.Close()

	pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
	if !redisClient.Healthy(pingCtx) {
		logger.Warn().Str("addr", cfg.RedisAddr).Msg("redis not reachable yet; consumer will keep retrying")
	}
	cancelPing()

	go serveMetrics(cfg.WorkerMetricsPort)

	q := queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	tracker := roster.NewRedis(redisClient.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("queue consume init failed")
	}

	log := logger.With("component", "roster-worker")
	log.Info().Str("key", queue.DefaultKey).Msg("worker started, waiting for messages")
	for msg := range messages {
		if msg.Type != roster.EventMarked {
			metrics.EventsProcessed.WithLabelValues("skipped").Inc()
			log.Debug().Str("type", msg.Type).Msg("ignoring message")
			continue
		}
		if err := roster.Apply(ctx, tracker, msg); err != nil {
			metrics.EventsProcessed.WithLabelValues("failed").Inc()
			log.Error().Err(err).Msg("apply attendance event")
			continue
		}
		metrics.EventsProcessed.WithLabelValues("applied").Inc()
	}

	log.Info().Msg("worker stopped")
}

func serveMetrics(port string) {
	if port == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server stopped")
	}
}
