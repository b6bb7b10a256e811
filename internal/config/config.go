// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

// Package config loads Scylla's layered configuration: built-in defaults,
// an optional YAML file, SCYLLA_ environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"slices"
	"time"

	"github.com/samber/oops"
)

// Mail transports.
const (
	TransportSMTP  = "smtp"
	TransportKafka = "kafka"
	TransportLog   = "log"
)

// Config is the complete runtime configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http" json:"http,omitempty"`
	Metrics  MetricsConfig  `koanf:"metrics" json:"metrics,omitempty"`
	Database DatabaseConfig `koanf:"database" json:"database,omitempty"`
	Redis    RedisConfig    `koanf:"redis" json:"redis,omitempty"`
	Session  SessionConfig  `koanf:"session" json:"session,omitempty"`
	Tokens   TokenConfig    `koanf:"tokens" json:"tokens,omitempty"`
	Mail     MailConfig     `koanf:"mail" json:"mail,omitempty"`
	Log      LogConfig      `koanf:"log" json:"log,omitempty"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr           string        `koanf:"addr" json:"addr,omitempty"`
	CORSOrigins    []string      `koanf:"cors_origins" json:"cors_origins,omitempty" jsonschema:"description=Glob patterns of allowed browser origins"`
	RequestTimeout time.Duration `koanf:"request_timeout" json:"request_timeout,omitempty"`
}

// MetricsConfig configures the metrics and health listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL             string        `koanf:"url" json:"url,omitempty"`
	MaxConns        int           `koanf:"max_conns" json:"max_conns,omitempty" jsonschema:"minimum=1"`
	AcquireTimeout  time.Duration `koanf:"acquire_timeout" json:"acquire_timeout,omitempty"`
	ConnectAttempts int           `koanf:"connect_attempts" json:"connect_attempts,omitempty" jsonschema:"minimum=1"`
}

// RedisConfig configures the session store.
type RedisConfig struct {
	Addr     string `koanf:"addr" json:"addr,omitempty"`
	Password string `koanf:"password" json:"password,omitempty"`
	DB       int    `koanf:"db" json:"db,omitempty" jsonschema:"minimum=0"`
}

// SessionConfig configures session lifetime and the session cookie.
type SessionConfig struct {
	TTL          time.Duration `koanf:"ttl" json:"ttl,omitempty"`
	CookieName   string        `koanf:"cookie_name" json:"cookie_name,omitempty"`
	CookieDomain string        `koanf:"cookie_domain" json:"cookie_domain,omitempty"`
	CookieSecure bool          `koanf:"cookie_secure" json:"cookie_secure,omitempty"`
	AllowRelogin bool          `koanf:"allow_relogin" json:"allow_relogin,omitempty"`
}

// TokenConfig sets the lifetime of emailed tokens.
type TokenConfig struct {
	VerificationTTL time.Duration `koanf:"verification_ttl" json:"verification_ttl,omitempty"`
	ResetTTL        time.Duration `koanf:"reset_ttl" json:"reset_ttl,omitempty"`
}

// MailConfig selects and configures the notification transport.
type MailConfig struct {
	Transport    string        `koanf:"transport" json:"transport,omitempty" jsonschema:"enum=smtp,enum=kafka,enum=log"`
	From         string        `koanf:"from" json:"from,omitempty"`
	FrontendURL  string        `koanf:"frontend_url" json:"frontend_url,omitempty"`
	Timeout      time.Duration `koanf:"timeout" json:"timeout,omitempty"`
	ResetWorkers int           `koanf:"reset_workers" json:"reset_workers,omitempty" jsonschema:"minimum=1,description=Password reset deliveries running at once; extra requests are dropped"`
	SMTP         SMTPConfig    `koanf:"smtp" json:"smtp,omitempty"`
	Kafka        KafkaConfig   `koanf:"kafka" json:"kafka,omitempty"`
}

// SMTPConfig configures the SMTP transport.
type SMTPConfig struct {
	Host     string `koanf:"host" json:"host,omitempty"`
	Port     int    `koanf:"port" json:"port,omitempty" jsonschema:"minimum=1,maximum=65535"`
	Username string `koanf:"username" json:"username,omitempty"`
	Password string `koanf:"password" json:"password,omitempty"`
	TLSMode  string `koanf:"tls_mode" json:"tls_mode,omitempty" jsonschema:"enum=none,enum=required,enum=opportunistic"`
}

// KafkaConfig configures the Kafka transport.
type KafkaConfig struct {
	Brokers  []string `koanf:"brokers" json:"brokers,omitempty"`
	Topic    string   `koanf:"topic" json:"topic,omitempty"`
	Username string   `koanf:"username" json:"username,omitempty"`
	Password string   `koanf:"password" json:"password,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// defaults is keyed by flat koanf path.
func defaults() map[string]any {
	return map[string]any{
		"http.addr":                 ":3000",
		"http.cors_origins":         []string{},
		"http.request_timeout":      15 * time.Second,
		"metrics.addr":              "127.0.0.1:9100",
		"database.url":              "",
		"database.max_conns":        10,
		"database.acquire_timeout":  5 * time.Second,
		"database.connect_attempts": 5,
		"redis.addr":                "localhost:6379",
		"redis.password":            "",
		"redis.db":                  0,
		"session.ttl":               24 * time.Hour,
		"session.cookie_name":       "scylla_session",
		"session.cookie_domain":     "",
		"session.cookie_secure":     false,
		"session.allow_relogin":     false,
		"tokens.verification_ttl":   30 * time.Minute,
		"tokens.reset_ttl":          30 * time.Minute,
		"mail.transport":            TransportLog,
		"mail.from":                 "",
		"mail.frontend_url":         "http://localhost:8080",
		"mail.timeout":              10 * time.Second,
		"mail.reset_workers":        8,
		"mail.smtp.host":            "sandbox.smtp.mailtrap.io",
		"mail.smtp.port":            2525,
		"mail.smtp.username":        "",
		"mail.smtp.password":        "",
		"mail.smtp.tls_mode":        "opportunistic",
		"mail.kafka.brokers":        []string{},
		"mail.kafka.topic":          "scylla.notifications",
		"mail.kafka.username":       "",
		"mail.kafka.password":       "",
		"log.format":                "json",
		"log.level":                 "info",
	}
}

// Validate reports the first missing or out-of-range value.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return invalid("database.url", "is required")
	}
	if c.Database.MaxConns < 1 {
		return invalid("database.max_conns", "must be at least 1")
	}
	if c.Database.ConnectAttempts < 1 {
		return invalid("database.connect_attempts", "must be at least 1")
	}
	if c.Redis.Addr == "" {
		return invalid("redis.addr", "is required")
	}
	if c.Session.CookieName == "" {
		return invalid("session.cookie_name", "is required")
	}
	if c.Mail.From == "" {
		return invalid("mail.from", "is required")
	}
	if c.Mail.ResetWorkers < 1 {
		return invalid("mail.reset_workers", "must be at least 1")
	}

	positive := []struct {
		key string
		val time.Duration
	}{
		{"http.request_timeout", c.HTTP.RequestTimeout},
		{"database.acquire_timeout", c.Database.AcquireTimeout},
		{"session.ttl", c.Session.TTL},
		{"tokens.verification_ttl", c.Tokens.VerificationTTL},
		{"tokens.reset_ttl", c.Tokens.ResetTTL},
		{"mail.timeout", c.Mail.Timeout},
	}
	for _, p := range positive {
		if p.val <= 0 {
			return invalid(p.key, "must be a positive duration")
		}
	}

	switch c.Mail.Transport {
	case TransportLog:
	case TransportSMTP:
		if c.Mail.SMTP.Host == "" {
			return invalid("mail.smtp.host", "is required for the smtp transport")
		}
		if c.Mail.SMTP.Port < 1 || c.Mail.SMTP.Port > 65535 {
			return invalid("mail.smtp.port", "must be between 1 and 65535")
		}
		if !slices.Contains([]string{"", "none", "required", "opportunistic"}, c.Mail.SMTP.TLSMode) {
			return invalid("mail.smtp.tls_mode", "must be none, required or opportunistic")
		}
	case TransportKafka:
		if len(c.Mail.Kafka.Brokers) == 0 {
			return invalid("mail.kafka.brokers", "is required for the kafka transport")
		}
		if c.Mail.Kafka.Topic == "" {
			return invalid("mail.kafka.topic", "is required for the kafka transport")
		}
	default:
		return invalid("mail.transport", "must be smtp, kafka or log")
	}

	if !slices.Contains([]string{"json", "text"}, c.Log.Format) {
		return invalid("log.format", "must be json or text")
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		return invalid("log.level", "must be debug, info, warn or error")
	}
	return nil
}

func invalid(key, problem string) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf("%s %s", key, problem)
}
