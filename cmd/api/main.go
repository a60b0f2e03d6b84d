package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"geoattend/internal/attendance"
	"geoattend/internal/auth"
	"geoattend/internal/config"
	"geoattend/internal/course"
	"geoattend/internal/handler"
	"geoattend/internal/httpmiddleware"
	"geoattend/internal/ledger"
	"geoattend/internal/logger"
	"geoattend/internal/metrics"
	"geoattend/internal/qr"
	"geoattend/internal/queue"
	"geoattend/internal/roster"
	"geoattend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Configure(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	// Set Gin mode based on environment
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
}

type backends struct {
	db      *store.DB
	redis   *store.Redis
	courses course.Directory
	ledger  ledger.Ledger
	events  queue.Queue
	roster  roster.Tracker
}

func openBackends(ctx context.Context, cfg config.App) (*backends, error) {
	b := &backends{}

	switch cfg.StoreBackend {
	case "postgres":
		db, err := store.NewDB(ctx, cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		b.db = db
		b.courses = course.NewPostgresDirectory(db.Client)
		b.ledger = ledger.NewPostgres(db.Client)
	default:
		seed, err := course.LoadSeed(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		b.courses = course.NewMemoryDirectory(seed...)
		b.ledger = ledger.NewMemory()
		logger.Warn().Int("courses", len(seed)).Msg("using in-memory store; records are lost on restart")
	}

	switch cfg.QueueBackend {
	case "redis":
		b.redis = store.NewRedis(cfg.RedisAddr, cfg.RedisTimeout)
		b.events = queue.NewRedisQueue(b.redis.Client, queue.DefaultKey)
		b.roster = roster.NewRedis(b.redis.Client)
	default:
		mem := roster.NewMemory()
		q := queue.NewInMemory(256)
		b.events = q
		b.roster = mem
		go applyLocal(ctx, q, mem)
	}
	return b, nil
}

// applyLocal stands in for the worker when events never leave the process.
func applyLocal(ctx context.Context, q queue.Queue, t roster.Tracker) {
	messages, err := q.Consume(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("local event consumer failed")
		return
	}
	for msg := range messages {
		if err := roster.Apply(ctx, t, msg); err != nil {
			metrics.EventsProcessed.WithLabelValues("failed").Inc()
			logger.Warn().Err(err).Msg("apply attendance event")
			continue
		}
		metrics.EventsProcessed.WithLabelValues("applied").Inc()
	}
}

func (b *backends) close() {
	if err := b.db.Close(); err != nil {
		logger.Warn().Err(err).Msg("close postgres")
	}
	if err := b.redis.Close(); err != nil {
		logger.Warn().Err(err).Msg("close redis")
	}
}

func runHTTP(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	engine := attendance.NewEngine(b.courses, b.ledger, attendance.Options{
		Radius:   cfg.GeofenceRadius,
		Location: cfg.Location,
	})
	h := handler.New(handler.Deps{
		Engine:   engine,
		Issuer:   qr.NewIssuer(b.courses, cfg.QRRequireOwner),
		Courses:  b.courses,
		Ledger:   b.ledger,
		Roster:   b.roster,
		Events:   b.events,
		Location: cfg.Location,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.CORS())
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "ok", "store": cfg.StoreBackend, "queue": cfg.QueueBackend}
		if b.db != nil {
			healthy := b.db.Healthy(c.Request.Context())
			body["db"] = healthy
			if !healthy {
				status = http.StatusServiceUnavailable
			}
		}
		if b.redis != nil {
			healthy := b.redis.Healthy(c.Request.Context())
			body["redis"] = healthy
			if !healthy {
				status = http.StatusServiceUnavailable
			}
		}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		c.JSON(status, body)
	})

	h.Mount(r.Group("/api", auth.Authenticate(cfg.JWTSigningKey, cfg.JWTIssuer)))

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.HTTPPort).
			Float64("radius_m", engine.Radius()).
			Str("timezone", cfg.Location.String()).
			Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server forced shutdown")
	}

	logger.Info().Msg("server exited")
	return nil
}
