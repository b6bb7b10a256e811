// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package notify

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/samber/oops"
	mail "gopkg.in/mail.v2"
)

// TLSMode selects how the SMTP connection is secured.
type TLSMode string

// TLS modes.
const (
	TLSNone          TLSMode = "none"
	TLSRequired      TLSMode = "required"
	TLSOpportunistic TLSMode = "opportunistic"
)

// ParseTLSMode parses a mode name case-insensitively. Empty means opportunistic.
func ParseTLSMode(s string) (TLSMode, error) {
	switch mode := TLSMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return TLSOpportunistic, nil
	case TLSNone, TLSRequired, TLSOpportunistic:
		return mode, nil
	default:
		return "", oops.Code("NOTIFY_INVALID_TLS_MODE").With("tls_mode", s).
			Errorf("tls mode must be none, required or opportunistic")
	}
}

// SMTPConfig configures the SMTP transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLSMode  TLSMode
	Timeout  time.Duration
}

// sender abstracts the dialer so tests don't need an SMTP server.
type sender interface {
	DialAndSend(m ...*mail.Message) error
}

// SMTPDispatcher sends messages over SMTP.
type SMTPDispatcher struct {
	sender  sender
	timeout time.Duration
}

// NewSMTPDispatcher builds an SMTP dispatcher. The TLS mode is fixed here.
func NewSMTPDispatcher(cfg SMTPConfig) (*SMTPDispatcher, error) {
	if cfg.Host == "" {
		return nil, oops.Code("NOTIFY_INVALID_CONFIG").Errorf("smtp host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, oops.Code("NOTIFY_INVALID_CONFIG").With("port", cfg.Port).Errorf("smtp port out of range")
	}
	mode, err := ParseTLSMode(string(cfg.TLSMode))
	if err != nil {
		return nil, err
	}

	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	d.StartTLSPolicy = startTLSPolicy(mode)
	if cfg.Timeout > 0 {
		d.Timeout = cfg.Timeout
	}

	return &SMTPDispatcher{sender: d, timeout: d.Timeout}, nil
}

func startTLSPolicy(mode TLSMode) mail.StartTLSPolicy {
	switch mode {
	case TLSNone:
		return mail.NoStartTLS
	case TLSRequired:
		return mail.MandatoryStartTLS
	default:
		return mail.OpportunisticStartTLS
	}
}

// Send delivers msg. It returns when the server accepted the message, the
// dialer timed out, or ctx ended.
func (s *SMTPDispatcher) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").With("transport", "smtp").Wrap(err)
	}

	m := mail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	done := make(chan error, 1)
	go func() {
		done <- s.sender.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return oops.Code("NOTIFY_SEND_FAILED").With("transport", "smtp").Wrap(err)
		}
		return nil
	case <-ctx.Done():
		return oops.Code("NOTIFY_SEND_FAILED").
			With("transport", "smtp").
			With("timeout", s.timeout.String()).
			Wrap(ctx.Err())
	}
}

// Compile-time interface check.
var _ Dispatcher = (*SMTPDispatcher)(nil)
