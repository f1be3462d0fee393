package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tuitionhub/server/internal/auth"
	"github.com/tuitionhub/server/internal/config"
	"github.com/tuitionhub/server/internal/db"
	"github.com/tuitionhub/server/internal/handlers"
	"github.com/tuitionhub/server/internal/logging"
	"github.com/tuitionhub/server/internal/notify"
	"github.com/tuitionhub/server/internal/ratelimit"
	"github.com/tuitionhub/server/internal/reminders"
	"github.com/tuitionhub/server/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewStdLogger(os.Stderr, false).Fatal("config", err)
	}
	logger := logging.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(cfg.Database)
	if err != nil {
		logger.Fatal("db init", err)
	}
	if sqlDB, err := conn.DB(); err == nil {
		defer sqlDB.Close()
	}

	env := &handlers.Env{
		DB:       conn,
		Log:      logger,
		Mailer:   notify.New(cfg.Mail, logger),
		Sessions: auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL, strings.HasPrefix(cfg.PublicBaseURL, "https://")),
		BaseURL:  cfg.PublicBaseURL,
		Loc:      cfg.Location(),
	}

	// without redis the public sign-up endpoints are not throttled
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Fatal("redis ping failed", err)
		}
		cancel()
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("redis close", err)
			}
		}()
		env.Limiter = ratelimit.NewRedisLimiter(rdb, "register", cfg.RegisterRateLimit, cfg.RegisterRateWindow)
	}

	if env.Mailer != nil {
		jobs := &reminders.Job{DB: conn, Mailer: env.Mailer, Log: logger, Gap: cfg.ReminderGap}
		jobs.Start(ctx, cfg.ReminderInterval)
	} else if cfg.ReminderInterval > 0 {
		logger.Warn("reminders need SENDGRID_API_KEY, not starting")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.Router(env),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("tuition desk listening", map[string]string{"addr": cfg.Addr, "env": cfg.Env, "build": cfg.Build})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", err)
	}
	logger.Info("stopped")
	logging.Flush()
}
