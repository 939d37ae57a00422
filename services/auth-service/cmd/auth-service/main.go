package main

import (
	"context"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	"github.com/md-rashed-zaman/barberbook/libs/metrics"
	otelx "github.com/md-rashed-zaman/barberbook/libs/otel"
	"github.com/md-rashed-zaman/barberbook/libs/runtime"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/account"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/handlers"
	authmetrics "github.com/md-rashed-zaman/barberbook/services/auth-service/internal/metrics"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/sessions"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/storage"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/migrations"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "auth-service")
	port, err := config.Port("PORT", "8081")
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
	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if config.Bool("MIGRATE_ON_START", false) {
		if err := db.Migrate(ctx, pool, migrations.Files, migrations.LockID); err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
		logger.Info("migrations applied")
	}

	reg := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTP(reg, service)

	brokers := config.String("KAFKA_BROKERS", "")
	outboxRepo := outbox.NewRepository()
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	accounts := account.NewService(
		storage.NewAccountRepository(pool, sessions.NewRefreshRepository(), outboxRepo),
		auth.NewSigner(jwtSecret, config.Duration("ACCESS_TOKEN_TTL", time.Hour)),
		account.Options{
			RefreshTTL: config.Duration("REFRESH_TOKEN_TTL", 720*time.Hour),
			HashCost:   config.Int("BCRYPT_COST", 0),
			Logger:     logger,
			Recorder:   authmetrics.NewAuth(reg),
		},
	)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	mux.Handle("GET /metrics", metrics.Handler(reg))
	handlers.Register(mux, handlers.NewAuthHandler(accounts, logger))

	httpHandler := httpx.Chain(httpMetrics.Instrument(mux),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "auth")
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
