// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scylla/scylla/internal/session"
)

// CookieConfig shapes the session cookie.
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

// cookieCarrier is a session.Carrier over the request and response cookies.
type cookieCarrier struct {
	c   *gin.Context
	cfg CookieConfig
}

var _ session.Carrier = (*cookieCarrier)(nil)

func newCookieCarrier(c *gin.Context, cfg CookieConfig) *cookieCarrier {
	return &cookieCarrier{c: c, cfg: cfg}
}

func (cc *cookieCarrier) SessionToken() string {
	token, err := cc.c.Cookie(cc.cfg.Name)
	if err != nil {
		return ""
	}
	return token
}

func (cc *cookieCarrier) SetSessionToken(token string, ttl time.Duration) {
	cc.set(token, int(ttl.Seconds()))
}

func (cc *cookieCarrier) ClearSessionToken() {
	cc.set("", -1)
}

func (cc *cookieCarrier) set(value string, maxAge int) {
	cc.c.SetSameSite(http.SameSiteLaxMode)
	cc.c.SetCookie(cc.cfg.Name, value, maxAge, "/", cc.cfg.Domain, cc.cfg.Secure, true)
}
