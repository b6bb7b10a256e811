// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/scylla/scylla/internal/auth"
	"github.com/scylla/scylla/internal/auth/postgres"
	"github.com/scylla/scylla/internal/config"
	"github.com/scylla/scylla/internal/httpapi"
	"github.com/scylla/scylla/internal/logging"
	"github.com/scylla/scylla/internal/notify"
	"github.com/scylla/scylla/internal/observability"
	"github.com/scylla/scylla/internal/session"
	"github.com/scylla/scylla/internal/store"
)

// shutdownTimeout bounds graceful shutdown of the servers and background work.
const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the identity API",
		Long: `Start the HTTP API serving /api/auth, backed by PostgreSQL for users,
credentials and tokens and Redis for sessions. Metrics and health checks are
served on metrics.addr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err //nolint:wrapcheck // already coded
			}
			logger, err := logging.Setup(serviceName, version, cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())
			if err != nil {
				return oops.With("operation", "set up logging").Wrap(err)
			}
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}
}

// runServe wires the service from cfg and serves until ctx is done or a
// server fails.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting scylla",
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"mail_transport", cfg.Mail.Transport)

	pool, err := store.Connect(ctx, poolConfig(cfg.Database), logger)
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	defer pool.Close()
	logger.Info("connected to database")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Debug("error closing redis client", "error", err)
		}
	}()
	sessionStore := session.NewRedisStore(rdb, session.DefaultKeyPrefix)

	obs := observability.NewServer(cfg.Metrics.Addr,
		readiness(pool.Ping, sessionStore.Ping),
		observability.WithLogger(logger))
	metrics := obs.Metrics()

	dispatcher, closeDispatcher, err := newDispatcher(cfg.Mail, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDispatcher(); err != nil {
			logger.Warn("error closing dispatcher", "error", err)
		}
	}()

	svc, err := newService(cfg, pool, sessionStore, notify.Instrument(dispatcher, cfg.Mail.Transport, metrics), logger, metrics)
	if err != nil {
		return err
	}

	router, err := httpapi.NewRouter(svc, routerConfig(cfg),
		httpapi.WithLogger(logger),
		httpapi.WithRecorder(metrics))
	if err != nil {
		return oops.With("operation", "build router").Wrap(err)
	}

	listener, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return oops.Code("LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}
	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	errCh := make(chan error, 2)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
	}()
	logger.Info("api listening", "addr", listener.Addr().String())

	if cfg.Metrics.Addr != "" {
		obsErr, err := obs.Start()
		if err != nil {
			shutdown(logger, httpServer, svc, obs)
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go func() {
			if err, ok := <-obsErr; ok && err != nil {
				errCh <- err
			}
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case serveErr = <-errCh:
		logger.Error("server failed", "error", serveErr)
	}

	shutdown(logger, httpServer, svc, obs)
	return serveErr
}

// shutdown stops accepting requests, then drains background dispatches.
func shutdown(logger *slog.Logger, httpServer *http.Server, svc *auth.Service, obs *observability.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}
	svc.Close()
	if err := obs.Stop(ctx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}
	logger.Info("shutdown complete")
}

func newService(
	cfg *config.Config,
	db postgres.DB,
	sessionStore session.Store,
	dispatcher notify.Dispatcher,
	logger *slog.Logger,
	metrics auth.Metrics,
) (*auth.Service, error) {
	bounded := postgres.Bounded(db, cfg.Database.AcquireTimeout)

	users, err := postgres.NewUserRepository(bounded)
	if err != nil {
		return nil, oops.With("operation", "create user repository").Wrap(err)
	}
	accounts, err := postgres.NewAccountRepository(bounded)
	if err != nil {
		return nil, oops.With("operation", "create account repository").Wrap(err)
	}
	tokens, err := postgres.NewTokenRepository(bounded)
	if err != nil {
		return nil, oops.With("operation", "create token repository").Wrap(err)
	}

	sessions, err := session.NewManagerWithLogger(sessionStore, session.Policy{
		TTL:          cfg.Session.TTL,
		AllowRelogin: cfg.Session.AllowRelogin,
	}, logger)
	if err != nil {
		return nil, oops.With("operation", "create session manager").Wrap(err)
	}

	svc, err := auth.NewService(auth.ServiceDeps{
		Users:      users,
		Accounts:   accounts,
		Tokens:     tokens,
		Hasher:     auth.NewArgon2idHasher(),
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Tx:         postgres.NewTransactor(bounded),
	}, serviceConfig(cfg), auth.WithLogger(logger), auth.WithMetrics(metrics))
	if err != nil {
		return nil, oops.With("operation", "create auth service").Wrap(err)
	}
	return svc, nil
}

// newDispatcher builds the dispatcher for the configured transport. The
// returned func releases its resources.
func newDispatcher(cfg config.MailConfig, logger *slog.Logger) (notify.Dispatcher, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Transport {
	case config.TransportSMTP:
		mode, err := notify.ParseTLSMode(cfg.SMTP.TLSMode)
		if err != nil {
			return nil, nil, err //nolint:wrapcheck // already coded
		}
		d, err := notify.NewSMTPDispatcher(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			TLSMode:  mode,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			return nil, nil, err //nolint:wrapcheck // already coded
		}
		return d, noop, nil
	case config.TransportKafka:
		d, err := notify.NewKafkaDispatcher(notify.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			Username:     cfg.Kafka.Username,
			Password:     cfg.Kafka.Password,
			WriteTimeout: cfg.Timeout,
		})
		if err != nil {
			return nil, nil, err //nolint:wrapcheck // already coded
		}
		return d, d.Close, nil
	case config.TransportLog:
		return notify.NewLogDispatcher(logger), noop, nil
	default:
		return nil, nil, oops.Code("CONFIG_INVALID").With("key", "mail.transport").
			Errorf("unknown mail transport %q", cfg.Transport)
	}
}

// readiness reports the first failing check.
func readiness(checks ...func(context.Context) error) observability.ReadinessChecker {
	return func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func poolConfig(cfg config.DatabaseConfig) store.PoolConfig {
	return store.PoolConfig{
		URL:             cfg.URL,
		MaxConns:        int32(cfg.MaxConns), //nolint:gosec // validated small
		ConnectAttempts: cfg.ConnectAttempts,
	}
}

func serviceConfig(cfg *config.Config) auth.ServiceConfig {
	return auth.ServiceConfig{
		From:            cfg.Mail.From,
		FrontendURL:     cfg.Mail.FrontendURL,
		VerificationTTL: cfg.Tokens.VerificationTTL,
		ResetTTL:        cfg.Tokens.ResetTTL,
		DispatchTimeout: cfg.Mail.Timeout,
		ResetWorkers:    cfg.Mail.ResetWorkers,
		AllowRelogin:    cfg.Session.AllowRelogin,
	}
}

func routerConfig(cfg *config.Config) httpapi.Config {
	return httpapi.Config{
		Cookie: httpapi.CookieConfig{
			Name:   cfg.Session.CookieName,
			Domain: cfg.Session.CookieDomain,
			Secure: cfg.Session.CookieSecure,
		},
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	}
}
