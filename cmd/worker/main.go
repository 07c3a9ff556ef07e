package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/hospitalops/etrack-api/internal/config"
	"github.com/hospitalops/etrack-api/internal/email"
	"github.com/hospitalops/etrack-api/internal/repository/postgres"
	internalworker "github.com/hospitalops/etrack-api/internal/worker"
	"github.com/hospitalops/etrack-api/pkg/logger"
	redisbroker "github.com/hospitalops/etrack-api/pkg/messaging/redis"
	"github.com/hospitalops/etrack-api/pkg/metrics"
	"github.com/hospitalops/etrack-api/pkg/worker"
)

// deployEnv holds the deployment knobs that come from the environment
// rather than the shared config file.
type deployEnv struct {
	HealthPort        int           `envconfig:"HEALTH_PORT" default:"8081"`
	RetentionInterval time.Duration `envconfig:"RETENTION_INTERVAL" default:"1h"`
	OutboxKeep        time.Duration `envconfig:"OUTBOX_KEEP" default:"168h"`
	AuditKeep         time.Duration `envconfig:"AUDIT_KEEP" default:"2160h"`
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	var env deployEnv
	if err := envconfig.Process("ETRACK_WORKER", &env); err != nil {
		log.Fatal().Err(err).Msg("Failed to process environment")
	}

	lg := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		lg.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, lg.Zerolog())
	if err != nil {
		lg.Fatal(err, "Failed to create Redis broker")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			Channel:      cfg.Worker.Channel,
			BatchSize:    cfg.Worker.BatchSize,
			PollInterval: cfg.Worker.PollInterval,
			MaxRetries:   cfg.Worker.MaxRetries,
			RetryDelay:   cfg.Worker.RetryDelay,
		},
		lg,
		metrics.NewMetrics("etrack", "worker"),
	)

	notifier := internalworker.NewNotifier(
		broker,
		email.NewSMTPService(cfg.SMTP),
		lg,
		cfg.Worker.Channel,
	)

	retention := internalworker.NewRetention(
		outboxRepo,
		auditRepo,
		lg,
		env.RetentionInterval,
		env.OutboxKeep,
		env.AuditKeep,
	)

	startHealthServer(lg, env.HealthPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		lg.Info("Shutting down...")
		cancel()
	}()

	go retention.Start(ctx)
	go func() {
		if err := notifier.Run(ctx); err != nil && ctx.Err() == nil {
			lg.Error(err, "Notifier stopped")
		}
	}()

	processor.Start(ctx)
}

func startHealthServer(lg *logger.Logger, port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			lg.Error(err, "Health check server failed")
			os.Exit(1)
		}
	}()
}
