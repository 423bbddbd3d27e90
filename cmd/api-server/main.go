// cmd/api-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lifesure/internal/api"
	"lifesure/internal/common/auth"
	"lifesure/internal/common/aws"
	"lifesure/internal/common/config"
	"lifesure/internal/common/database"
	"lifesure/internal/common/logger"
	"lifesure/internal/common/observability"
	"lifesure/internal/common/validation"
	"lifesure/internal/lifecycle"
	"lifesure/internal/notify"
	"lifesure/internal/payment"
	"lifesure/internal/search"
	"lifesure/internal/session"
	"lifesure/internal/store"
	"lifesure/internal/upload"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting api server...",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("api-server")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if err := pg.Migrate(cfg.Database.MigrationsDir); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}
	zapLog.Info("Schema migrations applied")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Repositories ---
	applications := store.NewApplicationRepo(pg.DB, log)
	claims := store.NewClaimRepo(pg.DB, log)
	policies := store.NewPolicyRepo(pg.DB, log)
	transactions := store.NewTransactionRepo(pg.DB, log)
	users := store.NewUserRepo(pg.DB, log)
	content := store.NewContentRepo(pg.DB, log)

	// --- External Service Clients ---
	gateway := payment.NewGateway(cfg.Payment, log)
	uploader := upload.NewClient(cfg.Upload, log)
	policyIndex := search.NewPolicyIndex(esClient.Client, log)

	var sesClient *aws.SESClient
	var snsClient *aws.SNSClient
	if cfg.Notifications.Email.Enabled {
		sesClient, err = aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
	}
	if cfg.Notifications.SMS.Enabled {
		snsClient, err = aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
	}
	notifier := notify.NewService(cfg.Notifications, sesClient, snsClient, users, log)
	zapLog.Info("All external service clients initialized")

	// --- Core Services ---
	orchestrator := lifecycle.NewOrchestrator(applications, claims, policies, transactions, gateway, notifier, log)
	sessions := session.NewStore(redisClient.Client, time.Duration(cfg.Auth.SessionTTL)*time.Second, log)

	validator, err := validation.New()
	if err != nil {
		zapLog.Fatal("schema compilation failed", zap.Error(err))
	}

	server := api.NewServer(api.Deps{
		Config:    cfg.Server,
		Logger:    log,
		Verifier:  auth.NewVerifier(cfg.Auth),
		Validator: validator,
		Sessions:  sessions,
		Lifecycle: orchestrator,
		Gateway:   gateway,
		Uploader:  uploader,
		Search:    policyIndex,

		Applications: applications,
		Claims:       claims,
		Policies:     policies,
		Transactions: transactions,
		Users:        users,
		Content:      content,
	})

	// --- Payment Reconciler ---
	reconciler := payment.NewReconciler(cfg.Payment.ReconcileSchedule, transactions, log)
	if err := reconciler.Start(); err != nil {
		zapLog.Fatal("reconciler failed to start", zap.Error(err))
	}
	zapLog.Info("Payment reconciler started", zap.String("schedule", cfg.Payment.ReconcileSchedule))

	// --- HTTP Server ---
	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	reconciler.Stop()

	zapLog.Info("API server stopped gracefully")
}
