package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hospitalops/etrack-api/internal/config"
	"github.com/hospitalops/etrack-api/internal/handler"
	analyticsHandler "github.com/hospitalops/etrack-api/internal/handler/analytics"
	authHandler "github.com/hospitalops/etrack-api/internal/handler/auth"
	evaluationHandler "github.com/hospitalops/etrack-api/internal/handler/evaluation"
	requestHandler "github.com/hospitalops/etrack-api/internal/handler/request"
	staffHandler "github.com/hospitalops/etrack-api/internal/handler/staff"
	"github.com/hospitalops/etrack-api/internal/middleware"
	"github.com/hospitalops/etrack-api/internal/repository/postgres"
	"github.com/hospitalops/etrack-api/internal/router"
	analyticsService "github.com/hospitalops/etrack-api/internal/service/analytics"
	auditService "github.com/hospitalops/etrack-api/internal/service/audit"
	authService "github.com/hospitalops/etrack-api/internal/service/auth"
	evaluationService "github.com/hospitalops/etrack-api/internal/service/evaluation"
	eventService "github.com/hospitalops/etrack-api/internal/service/event"
	requestService "github.com/hospitalops/etrack-api/internal/service/request"
	staffService "github.com/hospitalops/etrack-api/internal/service/staff"
	pkgauth "github.com/hospitalops/etrack-api/pkg/auth"
	"github.com/hospitalops/etrack-api/pkg/metrics"
	"github.com/hospitalops/etrack-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	requestRepo := postgres.NewRequestRepository(db)
	staffRepo := postgres.NewStaffRepository(db)
	evaluationRepo := postgres.NewEvaluationRepository(db)
	userRepo := postgres.NewUserRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	auditSvc := auditService.NewService(auditRepo)
	eventSvc := eventService.NewService(outboxRepo)

	jwtSvc := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	hasher := security.NewBcryptHasher(0)

	m := metrics.NewMetrics("etrack", "api")

	authSvc := authService.NewService(userRepo, jwtSvc, hasher, auditSvc)
	requestSvc := requestService.NewService(requestRepo, staffRepo, eventSvc, auditSvc, m)
	staffSvc := staffService.NewService(staffRepo, requestRepo, cfg.Cache.StaffTTL, cfg.Cache.CleanupInterval)
	evaluationSvc := evaluationService.NewService(evaluationRepo, requestRepo, eventSvc, auditSvc)
	analyticsSvc := analyticsService.NewService(requestRepo)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	h := handler.NewHandler(db)
	authH := authHandler.NewHandler(authSvc)
	requestH := requestHandler.NewHandler(requestSvc)
	staffH := staffHandler.NewHandler(staffSvc)
	evaluationH := evaluationHandler.NewHandler(evaluationSvc)
	analyticsH := analyticsHandler.NewHandler(analyticsSvc)

	r := router.NewRouter(
		authMiddleware,
		authH,
		requestH,
		staffH,
		evaluationH,
		analyticsH,
		h,
		router.RouterConfig{
			RateLimit:     rate.Limit(cfg.Server.RateLimitRPS),
			RateBurst:     cfg.Server.RateLimitBurst,
			Timeout:       time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "etrack_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
