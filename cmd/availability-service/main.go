package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bhanuc/aexy-availability/internal/availability"
	"github.com/bhanuc/aexy-availability/internal/cache"
	"github.com/bhanuc/aexy-availability/internal/handlers"
	"github.com/bhanuc/aexy-availability/internal/outbox"
	"github.com/bhanuc/aexy-availability/internal/storage"
	"github.com/bhanuc/aexy-availability/libs/config"
	"github.com/bhanuc/aexy-availability/libs/db"
	"github.com/bhanuc/aexy-availability/libs/httpx"
	"github.com/bhanuc/aexy-availability/libs/kafkax"
	otelx "github.com/bhanuc/aexy-availability/libs/otel"
	"github.com/bhanuc/aexy-availability/libs/runtime"
)

func main() {
	service := config.String("SERVICE_NAME", "availability-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	var rdb *redis.Client
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		defer func() { _ = rdb.Close() }()
	}

	availRepo := storage.NewAvailabilityRepository(pool)
	bookingRepo := storage.NewBookingRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	weekCache := cache.NewWeekCache(rdb, logger, config.Seconds("WEEK_CACHE_TTL_SECONDS", 60*time.Second), "avail")
	composer := availability.NewComposer(availRepo, bookingRepo, weekCache, logger)

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: config.Seconds("OUTBOX_POLL_SECONDS", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	availHandler := handlers.NewAvailabilityHandler(availRepo, composer, outboxRepo, weekCache, logger)
	bookingHandler := handlers.NewBookingHandler(bookingRepo, composer, outboxRepo, weekCache, logger)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if rdb != nil {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: cache.ReadyCheck(rdb)})
	}
	if strings.TrimSpace(kafkaBrokers) != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}

	mux := runtime.NewBaseMux(readyChecks...)
	mux.HandleFunc("/api/v1/team/availability", availHandler.TeamAvailability)
	mux.HandleFunc("/api/v1/team/week", availHandler.TeamWeek)
	mux.HandleFunc("/api/v1/team/profile", availHandler.Profile)
	mux.HandleFunc("/api/v1/team/members", availHandler.Members)
	mux.HandleFunc("/api/v1/members/windows", availHandler.Windows)
	mux.HandleFunc("/api/v1/members/timeoff", availHandler.TimeOff)
	mux.HandleFunc("/api/v1/members/timeoff/delete", availHandler.DeleteTimeOff)
	mux.HandleFunc("/api/v1/team/book", bookingHandler.Create)
	mux.HandleFunc("/api/v1/team/bookings", bookingHandler.List)
	mux.HandleFunc("/api/v1/team/bookings/cancel", bookingHandler.Cancel)

	var corsOrigins []string
	for _, o := range strings.Split(config.String("CORS_ALLOWED_ORIGINS", ""), ",") {
		if o = strings.TrimSpace(o); o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	middlewares := []httpx.Middleware{
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Team-Id", "Idempotency-Key", "X-Request-Id"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1 << 20),
	}
	rateLimit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if rdb != nil {
		limiter := httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, service)
		middlewares = append(middlewares, limiter.Middleware(logger, true))
	} else {
		middlewares = append(middlewares, httpx.NewRateLimiter(rateLimit, time.Minute).Middleware())
	}

	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, "availability")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
