package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gatehouse/internal/facts"
	gatehandler "gatehouse/internal/gate/handler"
	gatemetrics "gatehouse/internal/gate/metrics"
	"gatehouse/internal/gate/ports"
	"gatehouse/internal/gate/session"
	httpapi "gatehouse/internal/http"
	"gatehouse/internal/platform/config"
	"gatehouse/internal/platform/httpserver"
	"gatehouse/internal/platform/logger"
	platformredis "gatehouse/internal/platform/redis"
	"gatehouse/internal/platform/token"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := gatemetrics.New()

	memory := facts.NewMemoryStore()

	// Every collector port defaults to the in-memory store; configured
	// backing services replace individual families.
	collectors := ports.Collectors{
		Calibration: memory,
		Cleanliness: memory,
		Serials:     memory,
		Verdicts:    memory,
		FinalQC:     memory,
		Approvals:   memory,
		Steps:       memory,
		Documents:   memory,
	}

	var approvalStore facts.ApprovalStore = memory

	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := facts.NewPostgresStore(pool)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Error("failed to ensure postgres schema", "error", err)
			os.Exit(1)
		}
		approvalStore = pg
		collectors.Steps = pg
	}

	redisClient, err := platformredis.New(context.Background(), cfg.RedisAddr)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		collectors.Serials = facts.NewRedisLedger(redisClient.Client)
	}

	var events facts.EventPublisher = facts.NopPublisher{}
	if cfg.KafkaBrokers != "" {
		publisher, err := facts.NewKafkaPublisher(strings.Split(cfg.KafkaBrokers, ","), "gatehouse.approvals")
		if err != nil {
			log.Error("failed to create kafka publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		events = publisher
	}

	approvals := facts.NewApprovalService(approvalStore, events, cfg.PreventSelfApproval, log)
	collectors.Approvals = approvals

	sessions := session.NewManager(collectors, cfg.FetchTimeout, cfg.AutoRefreshInterval, log, m)
	defer sessions.Close()

	jwtService := token.NewJWTService(cfg.JWTSigningKey, "gatehouse", "gatehouse-dashboard")
	handler := gatehandler.New(collectors, approvals, sessions, cfg.PreventSelfApproval, cfg.FetchTimeout, log, m)
	router := httpapi.NewRouter(handler, jwtService, log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting gatehouse", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
