package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ewhitmore/campuspay/internal/backup"
	"github.com/ewhitmore/campuspay/internal/database"
	"github.com/ewhitmore/campuspay/internal/logging"
	"github.com/ewhitmore/campuspay/internal/server"
	"github.com/ewhitmore/campuspay/internal/stripe"
)

func main() {
	logger := logging.Setup(os.Getenv("CAMPUSPAY_LOG_LEVEL"), os.Getenv("CAMPUSPAY_LOG_FORMAT"))
	slog.SetDefault(logger)

	port := os.Getenv("CAMPUSPAY_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("CAMPUSPAY_DB_PATH")
	if dbPath == "" {
		dbPath = "campuspay.db"
	}

	baseURL := os.Getenv("CAMPUSPAY_BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%s", port)
	}

	jwtSecret := os.Getenv("CAMPUSPAY_JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("CAMPUSPAY_JWT_SECRET is required")
		os.Exit(1)
	}

	currency := os.Getenv("CAMPUSPAY_CURRENCY")
	if currency == "" {
		currency = "usd"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg := server.Config{
		JWTSecret: []byte(jwtSecret),
		Stripe: stripe.Config{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			Currency:      currency,
			SuccessURL:    baseURL + "/wallet?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:     baseURL + "/wallet",
		},
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  os.Getenv("CAMPUSPAY_S3_ENDPOINT"),
				Bucket:    os.Getenv("CAMPUSPAY_S3_BUCKET"),
				Region:    os.Getenv("CAMPUSPAY_S3_REGION"),
				AccessKey: os.Getenv("CAMPUSPAY_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("CAMPUSPAY_S3_SECRET_KEY"),
			},
			Passphrase: os.Getenv("CAMPUSPAY_BACKUP_PASSPHRASE"),
		},
	}

	srv := server.New(db, cfg, logger)

	// Expired rate-limit entries pile up without an occasional sweep.
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("campuspay starting", "addr", ":"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
