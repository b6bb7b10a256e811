// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gobwas/glob"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/scylla/scylla/internal/auth"
)

// RequestIDHeader carries the per-request id back to the client.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// Recorder receives one observation per request.
type Recorder interface {
	RecordHTTP(method, route string, status int, elapsed time.Duration)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ulid.Make().String()
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// requestTimeout bounds the request context handed to the service.
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// routeLabel is the matched route pattern; unmatched paths share one label.
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

func accessLog(logger *slog.Logger, rec Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		status := c.Writer.Status()

		if rec != nil {
			rec.RecordHTTP(c.Request.Method, routeLabel(c), status, elapsed)
		}

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", elapsed),
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.String("client_ip", c.ClientIP()),
		}
		level := slog.LevelInfo
		if last := c.Errors.Last(); last != nil {
			attrs = append(attrs, slog.String("code", auth.ErrorCode(last.Err)))
		}
		if status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.LogAttrs(c.Request.Context(), level, "http request", attrs...)
	}
}

func recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.ErrorContext(c.Request.Context(), "panic serving request",
			"panic", recovered,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(requestIDKey))
		respondError(c, oops.Code(auth.CodeInternal).Errorf("internal error"))
	})
}

// corsMiddleware allows credentialed requests from origins matching one of
// the glob patterns. It returns nil when no pattern is configured.
func corsMiddleware(patterns []string) (gin.HandlerFunc, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '.')
		if err != nil {
			return nil, oops.Code("HTTP_INVALID_CORS_ORIGIN").With("pattern", p).Wrap(err)
		}
		globs = append(globs, g)
	}

	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			for _, g := range globs {
				if g.Match(origin) {
					return true
				}
			}
			return false
		},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}), nil
}
