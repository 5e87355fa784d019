package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/config"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/infra"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/repository"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/router"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/worker"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// NewDatabase runs the schema migrations as part of connecting.
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Worker pool for async tasks (audit trail, close reports). Handlers are
	// wired here (composition root) so the pool has full access to all
	// infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := infra.NewAuditSinkClient(cfg.AuditSinkURL)
	sinkCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)
	auditRepo := repository.NewAuditRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	userRepo := repository.NewUserRepository(db)

	workerHandlers := &worker.Handlers{
		Audit:       worker.NewAuditWorker(auditRepo, sink, sinkCB),
		CloseReport: worker.NewCloseReportWorker(sessionRepo, userRepo, mailer, cfg.ReportStoragePath, cfg.ReportEmailTo),
	}
	worker.StartWorkerPool(ctx, rdb, workerHandlers, cfg.WorkerPoolSize)
	worker.StartRetryCron(ctx, worker.RetryCronConfig{RDB: rdb, SinkCB: sinkCB})

	r := router.New(cfg, db, rdb, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("cash ledger backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
