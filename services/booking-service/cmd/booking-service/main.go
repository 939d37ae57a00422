package main

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/config"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/libs/grpcx"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	"github.com/md-rashed-zaman/barberbook/libs/metrics"
	otelx "github.com/md-rashed-zaman/barberbook/libs/otel"
	"github.com/md-rashed-zaman/barberbook/libs/runtime"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/cache"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/consumer"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/directory"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/inbox"
	bookingmetrics "github.com/md-rashed-zaman/barberbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/migrations"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	grpcPort, err := config.Port("GRPC_PORT", "9083")
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

	if config.Bool("MIGRATE_ON_START", false) {
		if err := db.Migrate(ctx, pool, migrations.Files, migrations.LockID); err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
		logger.Info("migrations applied")
	}

	var rdb *redis.Client
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       redisDB(),
		})
		defer func() { _ = rdb.Close() }()
		logger.Info("service cache enabled", "addr", addr)
	}

	reg := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTP(reg, service)

	outboxRepo := outbox.NewRepository()
	repo := storage.NewBookingRepository(pool, outboxRepo)
	services := cache.NewServices(
		storage.NewServiceRepository(pool, outboxRepo),
		rdb,
		config.Duration("SERVICE_CACHE_TTL", 5*time.Minute),
		logger,
	)

	manager := booking.NewManager(repo, services, booking.Options{
		EnforceWorkHours: config.Bool("ENFORCE_WORK_HOURS", false),
		SlotStep:         config.Duration("SLOT_STEP", 15*time.Minute),
		Logger:           logger,
		Recorder:         bookingmetrics.NewBooking(reg),
	})
	catalog := booking.NewCatalog(services, logger)

	brokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	if brokers != "" {
		projector := directory.NewProjector(pool, repo, inbox.NewRepository(), logger)
		directoryConsumer := consumer.New(logger, consumer.Config{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", "booking-service"),
			Topics: []string{
				config.String("KAFKA_TOPIC_PROVIDER_REGISTERED", directory.ProviderRegistered),
				config.String("KAFKA_TOPIC_PROVIDER_UPDATED", directory.ProviderUpdated),
				config.String("KAFKA_TOPIC_CLIENT_REGISTERED", directory.ClientRegistered),
			},
		}, projector.Handle)
		go directoryConsumer.Run(ctx)
	} else {
		logger.Warn("directory consumer disabled (no kafka brokers configured)")
	}

	grpcSrv, healthSrv := grpcx.NewServer()
	healthSrv.SetServingStatus(service, healthpb.HealthCheckResponse_SERVING)
	go func() {
		lis, err := net.Listen("tcp", ":"+grpcPort)
		if err != nil {
			logger.Error("grpc listen failed", "err", err)
			return
		}
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
		runtime.ReadyCheck{Name: "redis", Check: cache.ReadyCheck(rdb)},
	)
	mux.Handle("GET /metrics", metrics.Handler(reg))
	handlers.Register(mux,
		handlers.NewBookingHandler(manager, logger),
		handlers.NewServiceHandler(catalog, logger),
	)

	httpHandler := httpx.Chain(httpMetrics.Instrument(mux),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
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
	healthSrv.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	grpcSrv.GracefulStop()
	logger.Info("servers stopped")
}

func redisDB() int {
	n, err := strconv.Atoi(config.String("REDIS_DB", "0"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
