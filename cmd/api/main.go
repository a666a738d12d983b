package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/meditrax/clinical-core/internal/config"
	"github.com/meditrax/clinical-core/internal/email"
	alertHandler "github.com/meditrax/clinical-core/internal/handler/alert"
	appointmentHandler "github.com/meditrax/clinical-core/internal/handler/appointment"
	availabilityHandler "github.com/meditrax/clinical-core/internal/handler/availability"
	healthHandler "github.com/meditrax/clinical-core/internal/handler/health"
	observationHandler "github.com/meditrax/clinical-core/internal/handler/observation"
	queueHandler "github.com/meditrax/clinical-core/internal/handler/queue"
	"github.com/meditrax/clinical-core/internal/middleware"
	"github.com/meditrax/clinical-core/internal/repository/postgres"
	"github.com/meditrax/clinical-core/internal/router"
	alertService "github.com/meditrax/clinical-core/internal/service/alert"
	availabilityService "github.com/meditrax/clinical-core/internal/service/availability"
	bookingService "github.com/meditrax/clinical-core/internal/service/booking"
	evaluatorService "github.com/meditrax/clinical-core/internal/service/evaluator"
	notificationService "github.com/meditrax/clinical-core/internal/service/notification"
	observationService "github.com/meditrax/clinical-core/internal/service/observation"
	queueService "github.com/meditrax/clinical-core/internal/service/queue"
	"github.com/meditrax/clinical-core/pkg/logger"
	"github.com/meditrax/clinical-core/pkg/messaging/redis"
	"github.com/meditrax/clinical-core/pkg/metrics"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log.Zerolog())
	if err != nil {
		log.Fatal(err, "failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("clinical_core")

	// Repositories
	scheduleRepo := postgres.NewScheduleRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	queueRepo := postgres.NewQueueRepository(db)
	observationRepo := postgres.NewObservationRepository(db)
	rangeRepo := postgres.NewReferenceRangeRepository(db)
	alertRepo := postgres.NewAlertRepository(db)

	// Services
	availabilitySvc := availabilityService.NewService(scheduleRepo, appointmentRepo, cfg.Scheduling.DefaultSlotMinutes)
	bookingSvc := bookingService.NewService(appointmentRepo, queueRepo, availabilitySvc, m, log)
	queueSvc := queueService.NewService(queueRepo, appointmentRepo, m, log)
	evaluatorSvc := evaluatorService.NewService(rangeRepo, m)
	mailer := email.NewSMTPService(cfg.SMTP)
	notifier := notificationService.NewService(broker, mailer, cfg.Alerting.NotifyChannel, cfg.Alerting.OnCallEmails, log)
	alertSvc := alertService.NewService(alertRepo, notifier, m, log)
	observationSvc := observationService.NewService(observationRepo, evaluatorSvc, alertSvc, log)

	// Router and handlers
	r := router.NewRouter(log.Zerolog(), router.Config{
		RateLimit:      rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:      cfg.RateLimit.Burst,
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSConfig:     middleware.DefaultCORSConfig(),
		MetricsPrefix:  "clinical_core_http",
	})
	r.Setup(
		healthHandler.NewHandler(db),
		availabilityHandler.NewHandler(availabilitySvc),
		appointmentHandler.NewHandler(bookingSvc),
		queueHandler.NewHandler(queueSvc),
		observationHandler.NewHandler(observationSvc),
		alertHandler.NewHandler(alertSvc),
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}
