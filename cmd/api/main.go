package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/BruksfildServices01/booking-engine/internal/audit"
	"github.com/BruksfildServices01/booking-engine/internal/config"
	dbpkg "github.com/BruksfildServices01/booking-engine/internal/db"
	"github.com/BruksfildServices01/booking-engine/internal/events"
	infraRepo "github.com/BruksfildServices01/booking-engine/internal/infra/repository"
	"github.com/BruksfildServices01/booking-engine/internal/logger"
	"github.com/BruksfildServices01/booking-engine/internal/metrics"
	"github.com/BruksfildServices01/booking-engine/internal/middleware"
	"github.com/BruksfildServices01/booking-engine/internal/payment"
	"github.com/BruksfildServices01/booking-engine/internal/routes"
	"github.com/BruksfildServices01/booking-engine/internal/telemetry"
	ucAppointment "github.com/BruksfildServices01/booking-engine/internal/usecase/appointment"
)

func main() {
	boot := logger.New("info", "json")

	cfg, err := config.Load()
	if err != nil {
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}

	db, err := dbpkg.NewDB(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	if cfg.MetricsEnabled {
		metrics.Register()
	}

	gateway, err := payment.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure payment gateway")
	}

	var publisher events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	dispatcher := audit.NewDispatcher(audit.New(db), publisher, log)

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	// ======================================================
	// HOLD REAPER
	// ======================================================
	reaper := ucAppointment.NewExpireHolds(infraRepo.NewAppointmentGormRepository(db), dispatcher)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		reaper.Run(ctx, cfg.ReaperInterval(), log)
	}()

	// ======================================================
	// HTTP
	// ======================================================
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.AccessLog(log),
		middleware.CORSMiddleware(cfg.CORSAllowedOrigins),
		gin.Recovery(),
	)

	routes.RegisterRoutes(r, routes.Deps{
		DB:      db,
		Config:  cfg,
		Audit:   dispatcher,
		Gateway: gateway,
		Redis:   rdb,
		Log:     log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           otelhttp.NewHandler(r, "booking-engine"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Addr()).
			Str("gateway", gateway.Name()).
			Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdown(srv, &wg, dispatcher, shutdownTracing, log)
}

func shutdown(
	srv *http.Server,
	reaper *sync.WaitGroup,
	dispatcher *audit.Dispatcher,
	shutdownTracing telemetry.ShutdownFunc,
	log zerolog.Logger,
) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	// the reaper dispatches audit events, so it must stop first
	reaper.Wait()
	dispatcher.Close()

	if err := shutdownTracing(ctx); err != nil {
		log.Warn().Err(err).Msg("tracer shutdown")
	}
}
