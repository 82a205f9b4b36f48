package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/interceptor/internal/api"
	"github.com/TimurManjosov/interceptor/internal/audit"
	"github.com/TimurManjosov/interceptor/internal/auth"
	"github.com/TimurManjosov/interceptor/internal/config"
	"github.com/TimurManjosov/interceptor/internal/engine"
	"github.com/TimurManjosov/interceptor/internal/logging"
	"github.com/TimurManjosov/interceptor/internal/operator"
	"github.com/TimurManjosov/interceptor/internal/session"
	"github.com/TimurManjosov/interceptor/internal/store"
	"github.com/TimurManjosov/interceptor/internal/telemetry"
	"github.com/TimurManjosov/interceptor/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config")
	}
	logger := logging.New("interceptor", cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewStore(ctx, store.Options{
		Type:       cfg.StoreType,
		DSN:        cfg.DatabaseDSN,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.StoreType).Msg("store")
	}
	defer st.Close()

	ids, _ := cfg.AdminIdentities() // validated above
	admins := session.NewAdminSet(ids...)
	if _, err := os.Stat(config.DefaultEnvFile); err == nil {
		go func() {
			err := config.WatchAdmins(ctx, config.DefaultEnvFile, logger, admins.Replace)
			if err != nil {
				logger.Error().Err(err).Msg("admin list watcher stopped")
			}
		}()
	}

	sessions := session.NewRegistry[*store.RuleSet](cfg.EditSessionTTL)
	telemetry.Init()
	telemetry.SetActiveSessionsSource(sessions.ActiveCount)

	var sink audit.AuditSink = audit.NewLogSink(logger)
	if cfg.WebhookURL != "" {
		// deliveries share the audit worker's 5s write deadline
		hook := webhook.NewDispatcher(cfg.WebhookURL, cfg.WebhookSecret, webhook.Options{
			MaxRetries: 2,
			Timeout:    2 * time.Second,
			RetryWait:  250 * time.Millisecond,
		}, logger)
		sink = audit.MultiSink{sink, hook}
		logger.Info().Str("url", cfg.WebhookURL).Msg("webhook notifications enabled")
	}
	auditSvc := audit.NewService(sink, nil, nil, nil, logger, cfg.AuditQueueSize)

	srvAPI := api.NewServer(api.Deps{
		Store:          st,
		Interceptor:    engine.NewInterceptor(st, admins, logger),
		Console:        operator.NewConsole(st, admins, sessions, auditSvc, logger),
		Sessions:       sessions,
		Admins:         admins,
		Auth:           auth.NewAuthenticator(cfg.AdminAPIKey, cfg.ClientAPIKey),
		Audit:          auditSvc,
		Logger:         logger,
		RateLimitPerIP: cfg.RateLimitPerIP,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreType).Int("admins", admins.Len()).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server")
		}
	}()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux, ReadTimeout: 3 * time.Second}
	go func() {
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server")
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	_ = metricsSrv.Shutdown(ctxShut)
	_ = auditSvc.Close()
	logger.Info().Msg("stopped")
}
