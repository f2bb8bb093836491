package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reservation-caller/internal/auth"
	"reservation-caller/internal/calls"
	"reservation-caller/internal/config"
	"reservation-caller/internal/notify"
	"reservation-caller/internal/revision"
	"reservation-caller/internal/telephony"
	"reservation-caller/pkg/logger"
	"reservation-caller/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	// Call store: Postgres when configured, in-memory otherwise.
	var repo calls.Repo
	if cfg.HasDB() {
		db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()

		pg := calls.NewPostgresRepo(db)
		if err := pg.Migrate(rootCtx); err != nil {
			log.Error("postgres migrate failed", "err", err)
			os.Exit(1)
		}
		repo = pg
	} else {
		log.Info("no DB configured, using in-memory call store")
		repo = calls.NewMemoryRepo()
	}

	var rdb *redis.Client
	if cfg.HasRedis() {
		rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
	}

	// Revision sessions: Redis-backed when available.
	var revisions revision.Tracker
	if rdb != nil {
		revisions = revision.NewRedisTracker(rdb, revision.DefaultSessionTTL)
	} else {
		revisions = revision.NewMemoryTracker()
	}

	// Dialer: nil means simulation mode.
	var dialer calls.Dialer
	if cfg.HasTwilio() {
		dialer = telephony.NewTwilioDialer(
			cfg.Twilio.AccountSID,
			cfg.Twilio.AuthToken,
			cfg.Twilio.PhoneNumber,
			cfg.App.BaseURL,
		)
	} else {
		log.Info("no Twilio credentials, outbound calls are simulated")
	}

	var approvals calls.ApprovalNotifier
	var telegram *notify.Telegram
	if cfg.HasTelegram() {
		telegram = notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		approvals = telegram
	}

	var events calls.EventSink
	if cfg.Callback.URL != "" {
		events = notify.NewWebhookSink(cfg.Callback.URL, cfg.Callback.Token)
	}

	callService := calls.NewService(repo, dialer, approvals, events)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		cfg:       cfg,
		auth:      authManager,
		calls:     callService,
		telegram:  telegram,
		revisions: revisions,
		redis:     rdb,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "twilio", cfg.HasTwilio(), "telegram", cfg.HasTelegram())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
