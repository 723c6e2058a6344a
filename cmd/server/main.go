package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	goredis "github.com/redis/go-redis/v9"

	"tribultz/internal/audit"
	auditHandler "tribultz/internal/audit/handler"
	"tribultz/internal/closing"
	closingHandler "tribultz/internal/closing/handler"
	"tribultz/internal/exception"
	exceptionHandler "tribultz/internal/exception/handler"
	"tribultz/internal/job"
	jobHandler "tribultz/internal/job/handler"
	"tribultz/internal/platform/config"
	"tribultz/internal/platform/httpserver"
	"tribultz/internal/platform/logger"
	"tribultz/internal/platform/metrics"
	"tribultz/internal/platform/middleware"
	platformRedis "tribultz/internal/platform/redis"
	httptransport "tribultz/internal/transport/http"
	validationHandler "tribultz/internal/validation/handler"
	validationMetrics "tribultz/internal/validation/metrics"
	validationService "tribultz/internal/validation/service"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	var (
		jobStore       job.Store       = job.NewInMemoryStore()
		auditStore     audit.Store     = audit.NewInMemoryStore()
		exceptionStore exception.Store = exception.NewInMemoryStore()
	)
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("pgx", cfg.Postgres.DSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}
		jobStore = job.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
		exceptionStore = exception.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		log.Info("using in-memory stores")
	}

	redisClient, err := platformRedis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher := audit.NewPublisher(auditStore, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		worker := audit.NewWorker(sink, publisher.EnableSink())
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit worker stopped", "error", err)
			}
		}()
		log.Info("audit kafka sink enabled", "topic", cfg.Kafka.Topic)
	}

	jobSvc := job.NewService(jobStore, publisher, log)
	validateSvc := validationService.New(jobStore, publisher, log, validationMetrics.New())
	exceptionSvc := exception.NewService(exceptionStore, publisher, log)

	var snapshotCache *goredis.Client
	if redisClient != nil {
		snapshotCache = redisClient.Client
	}
	closingSvc := closing.NewService(jobSvc, publisher, exceptionSvc, snapshotCache, cfg.ClosingCacheTTL, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Metrics:   metrics.New(),
		Validator: middleware.NewValidator(cfg.Server.JWTSigningKey),
		Handlers: []httptransport.Registrar{
			validationHandler.New(validateSvc, log),
			jobHandler.New(jobSvc, publisher, log),
			auditHandler.New(publisher, log),
			exceptionHandler.New(exceptionSvc, log),
			closingHandler.New(closingSvc, log),
		},
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	go func() {
		log.Info("starting tribultz", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
