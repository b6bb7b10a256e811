// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/scylla/scylla/internal/auth"
	"github.com/scylla/scylla/internal/session"
)

// AuthService is the part of *auth.Service the API drives.
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.User, error)
	Login(ctx context.Context, c session.Carrier, in auth.LoginInput) (*auth.User, error)
	Logout(ctx context.Context, c session.Carrier) error
	CurrentUser(ctx context.Context, c session.Carrier) (*auth.User, error)
	RequestEmailVerification(ctx context.Context, userID ulid.ULID) error
	VerifyEmail(ctx context.Context, rawToken string) error
	ForgotPassword(ctx context.Context, in auth.ForgotPasswordInput) error
	ResetPassword(ctx context.Context, in auth.ResetPasswordInput) error
}

var _ AuthService = (*auth.Service)(nil)

// Config configures the router.
type Config struct {
	Cookie         CookieConfig
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// Option configures the router.
type Option func(*router)

// WithLogger sets the access and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRecorder reports per-request metrics to rec.
func WithRecorder(rec Recorder) Option {
	return func(r *router) { r.recorder = rec }
}

type router struct {
	svc      AuthService
	cfg      Config
	logger   *slog.Logger
	recorder Recorder
}

// NewRouter builds the gin engine serving /api/auth.
func NewRouter(svc AuthService, cfg Config, opts ...Option) (*gin.Engine, error) {
	if svc == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if cfg.Cookie.Name == "" {
		return nil, oops.Errorf("session cookie name is required")
	}

	r := &router{svc: svc, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(requestID(), accessLog(r.logger, r.recorder), recovery(r.logger))
	corsMW, err := corsMiddleware(cfg.CORSOrigins)
	if err != nil {
		return nil, err
	}
	if corsMW != nil {
		engine.Use(corsMW)
	}
	engine.Use(requestTimeout(cfg.RequestTimeout))

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, Envelope{Status: http.StatusNotFound, Message: "not found"})
	})
	engine.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, Envelope{Status: http.StatusMethodNotAllowed, Message: "method not allowed"})
	})

	api := engine.Group("/api/auth")
	{
		api.POST("/register", r.register)
		api.POST("/login", r.login)
		api.POST("/logout", r.logout)
		api.GET("/me", r.me)
		api.POST("/request-verification", r.requestVerification)
		api.POST("/verify", r.verify)
		api.POST("/forgot-password", r.forgotPassword)
		api.POST("/reset-password", r.resetPassword)
	}
	return engine, nil
}

func (r *router) carrier(c *gin.Context) session.Carrier {
	return newCookieCarrier(c, r.cfg.Cookie)
}
