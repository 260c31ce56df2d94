package app

import (
	"classcrew/internal/config"
	"classcrew/internal/db"
	"classcrew/internal/handlers"
	"classcrew/internal/logger"
	"classcrew/internal/metrics"
	"classcrew/internal/models"
	"classcrew/internal/repository"
	"classcrew/internal/routes"
	"classcrew/internal/services"
	"classcrew/internal/sms"
	"classcrew/internal/utils"
	"context"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// InitApp wires storage, services and routes. The returned func closes the pool.
func InitApp(ctx context.Context, cfg *config.Config) (*mux.Router, func(), error) {
	conn, err := db.NewPostgresConnection(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Log.Info("Connected to Postgres", zap.String("dsn", cfg.GetDSNSafe()))

	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, err
	}

	sender, err := sms.NewSender(cfg)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	// Repositories
	userRepo := repository.NewUserRepository(conn)
	sessionRepo := repository.NewRecoverySessionRepository(conn)

	// Services
	accessTTL, refreshTTL := cfg.Durations()
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, accessTTL, refreshTTL)
	passwordService := services.NewPasswordService(userRepo)
	signer := utils.NewResetTokenSigner(cfg.JWTSecret, models.RecoveryTokenTTL)
	recoveryService := services.NewRecoveryService(userRepo, sessionRepo, sender, signer)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	interval, _ := time.ParseDuration(cfg.RecoveryCleanupInterval)
	StartRecoveryCleaner(ctx, recoveryService, interval)

	router := mux.NewRouter()
	routes.InitRoutes(router, routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Password: handlers.NewPasswordHandler(passwordService),
		Recovery: handlers.NewRecoveryHandler(recoveryService),
	}, cfg.JWTSecret, cfg.RecoveryInitiateLimit)

	return router, conn.Close, nil
}

type expiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// StartRecoveryCleaner purges expired recovery sessions every interval until ctx is done.
func StartRecoveryCleaner(ctx context.Context, p expiredPurger, interval time.Duration) {
	if interval <= 0 {
		logger.Log.Warn("Recovery cleaner disabled", zap.Duration("interval", interval))
		return
	}
	t := time.NewTicker(interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				_, _ = p.PurgeExpired(ctx)
			}
		}
	}()
}
