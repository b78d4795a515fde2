package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	_ "github.com/vnvodich/tutor-api/api/swagger"
	"github.com/vnvodich/tutor-api/internal/handler"
	"github.com/vnvodich/tutor-api/internal/repository"
	"github.com/vnvodich/tutor-api/internal/service"
	"github.com/vnvodich/tutor-api/internal/worker"
	"github.com/vnvodich/tutor-api/migrations"
	"github.com/vnvodich/tutor-api/pkg/cache"
	"github.com/vnvodich/tutor-api/pkg/clock"
	"github.com/vnvodich/tutor-api/pkg/config"
	"github.com/vnvodich/tutor-api/pkg/database"
	"github.com/vnvodich/tutor-api/pkg/events"
	"github.com/vnvodich/tutor-api/pkg/export"
	"github.com/vnvodich/tutor-api/pkg/logger"
	"github.com/vnvodich/tutor-api/pkg/meeting"
	"github.com/vnvodich/tutor-api/pkg/middleware/ratelimit"
	"github.com/vnvodich/tutor-api/pkg/payment"
	"github.com/vnvodich/tutor-api/pkg/tracing"
)

// @title Tutor Marketplace API
// @version 1.0.0
// @description Tutors, courses, weekly availability, bookings, sessions, payments and refunds.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, cfg.Env)
	if err != nil {
		logr.Warn("tracing disabled", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clk := clock.New(loc)

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		version, err := database.Migrate(ctx, db, cfg.Database, migrations.FS)
		if err != nil {
			return err
		}
		logr.Info("database migrated", zap.Int64("version", version))
	}

	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		if cfg.Cache.Enabled || cfg.RateLimit.Enabled {
			return err
		}
		logr.Warn("redis unavailable; cache and rate limiting stay off", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	tutorRepo := repository.NewTutorRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	childRepo := repository.NewChildRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	var cacheRepo service.CacheRepository
	if rdb != nil {
		cacheRepo = repository.NewCacheRepository(rdb)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.AvailabilityTTL, logr.Named("cache"), cfg.Cache.Enabled && rdb != nil)

	stripeProvider := payment.NewStripeProvider(cfg.Stripe, nil)

	var meetings interface {
		CreateMeetingLink(context.Context, meeting.Request) (string, error)
	} = meeting.Disabled{}
	if cfg.Meet.Enabled {
		meetings = meeting.NewGoogleMeetProvider(cfg.Meet.CalendarID, cfg.Meet.AccessToken, cfg.Meet.Timeout)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr.Named("auth"), service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	}, clk)
	userSvc := service.NewUserService(userRepo, logr.Named("users"))
	tutorSvc := service.NewTutorService(tutorRepo, courseRepo, reviewRepo, cacheSvc, cfg.Cache.TutorListTTL, validate, logr.Named("tutors"))
	courseSvc := service.NewCourseService(courseRepo, cacheSvc, validate, logr.Named("courses"))
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, courseRepo, sessionRepo, cacheSvc, metrics, clk, service.AvailabilityConfig{
		HorizonDays:         cfg.Availability.HorizonDays,
		SlotDurationMinutes: cfg.Availability.SlotDurationMinutes,
		CacheTTL:            cfg.Cache.AvailabilityTTL,
	}, validate, logr.Named("availability"))
	childSvc := service.NewChildService(childRepo, validate, logr.Named("children"))
	bookingSvc := service.NewBookingService(service.BookingDeps{
		Repo:     bookingRepo,
		Courses:  courseRepo,
		Children: childRepo,
		Users:    userRepo,
		Sessions: sessionRepo,
		Meetings: meetings,
		Audit:    userRepo,
		Cache:    cacheSvc,
		Metrics:  metrics,
		Clock:    clk,
	}, validate, logr.Named("bookings"))
	sessionSvc := service.NewSessionService(sessionRepo, cacheSvc, clk, export.NewCSVExporter(), export.NewPDFExporter(), validate, logr.Named("sessions"))
	reviewSvc := service.NewReviewService(reviewRepo, bookingRepo, tutorRepo, courseRepo, cacheSvc, validate, logr.Named("reviews"))
	paymentSvc := service.NewPaymentService(stripeProvider, paymentRepo, userRepo, metrics, clk, cfg.Stripe.DefaultAmount, logr.Named("payments"))
	payoutSvc := service.NewPayoutService(stripeProvider, tutorRepo, metrics, logr.Named("payouts"))
	refundSvc := service.NewRefundService(refundRepo, stripeProvider, metrics, clk, service.RefundJobConfig{
		Workers:       cfg.Jobs.RefundWorkers,
		MaxRetries:    cfg.Jobs.RefundRetries,
		RetryDelay:    cfg.Jobs.RefundRetryDelay,
		SweepInterval: cfg.Jobs.RefundSweep,
	}, validate, logr.Named("refunds"))

	refundSvc.Start(ctx)
	defer refundSvc.Stop()

	var publisher worker.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers))
		defer kafkaPublisher.Close() //nolint:errcheck
		publisher = kafkaPublisher
	}
	outbox := worker.NewOutboxPublisher(outboxRepo, publisher, metrics, worker.OutboxConfig{
		PollInterval: cfg.Kafka.PollInterval,
		BatchSize:    cfg.Kafka.BatchSize,
	}, logr.Named("outbox"))
	go outbox.Run(ctx)

	checks := map[string]handler.ReadinessCheck{
		"postgres": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	deps := routerDeps{tokens: authSvc, observer: metrics, audit: userRepo}
	if cfg.RateLimit.Enabled && rdb != nil {
		deps.limiter = ratelimit.New(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window, "ratelimit", cfg.RateLimit.FailOpen, logr.Named("ratelimit"))
	}

	router := newRouter(cfg, handlers{
		auth:         handler.NewAuthHandler(authSvc),
		users:        handler.NewUserHandler(userSvc),
		tutors:       handler.NewTutorHandler(tutorSvc),
		courses:      handler.NewCourseHandler(courseSvc),
		availability: handler.NewAvailabilityHandler(availabilitySvc),
		children:     handler.NewChildHandler(childSvc),
		bookings:     handler.NewBookingHandler(bookingSvc),
		sessions:     handler.NewSessionHandler(sessionSvc),
		reviews:      handler.NewReviewHandler(reviewSvc),
		payments:     handler.NewPaymentHandler(paymentSvc, payoutSvc),
		refunds:      handler.NewRefundHandler(refundSvc),
		metrics:      handler.NewMetricsHandler(metrics, checks),
	}, deps, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           otelhttp.NewHandler(router, "tutor-api"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logr.Info("server stopped")
	return nil
}
