// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/scylla/scylla/pkg/errutil"
)

func writeYAML(t *testing.T, doc map[string]any) string {
	t.Helper()
	data, err := yaml.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "scylla.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load("", nil)
	require.NoError(t, err)
	cfg.Database.URL = "postgres://scylla@localhost/scylla"
	cfg.Mail.From = "noreply@scylla.test"
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, 15*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.Database.AcquireTimeout)
	assert.Equal(t, 5, cfg.Database.ConnectAttempts)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "scylla_session", cfg.Session.CookieName)
	assert.False(t, cfg.Session.AllowRelogin)
	assert.Equal(t, 30*time.Minute, cfg.Tokens.VerificationTTL)
	assert.Equal(t, 30*time.Minute, cfg.Tokens.ResetTTL)
	assert.Equal(t, TransportLog, cfg.Mail.Transport)
	assert.Equal(t, "http://localhost:8080", cfg.Mail.FrontendURL)
	assert.Equal(t, 10*time.Second, cfg.Mail.Timeout)
	assert.Equal(t, 8, cfg.Mail.ResetWorkers)
	assert.Equal(t, "sandbox.smtp.mailtrap.io", cfg.Mail.SMTP.Host)
	assert.Equal(t, 2525, cfg.Mail.SMTP.Port)
	assert.Equal(t, "opportunistic", cfg.Mail.SMTP.TLSMode)
	assert.Equal(t, "scylla.notifications", cfg.Mail.Kafka.Topic)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeYAML(t, map[string]any{
		"http":     map[string]any{"addr": ":4000", "request_timeout": "20s"},
		"database": map[string]any{"url": "postgres://file/scylla", "max_conns": 4},
		"log":      map[string]any{"level": "debug"},
	})
	t.Setenv("SCYLLA_DATABASE__URL", "postgres://env/scylla")
	t.Setenv("SCYLLA_SESSION__ALLOW_RELOGIN", "true")
	t.Setenv("SCYLLA_HTTP__CORS_ORIGINS", "https://*.scylla.dev, http://localhost:*")
	t.Setenv("SCYLLA_TOKENS__RESET_TTL", "45m")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--log-level=warn"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.HTTP.Addr, "file overrides defaults")
	assert.Equal(t, 20*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, 4, cfg.Database.MaxConns)
	assert.Equal(t, "postgres://env/scylla", cfg.Database.URL, "env overrides file")
	assert.True(t, cfg.Session.AllowRelogin)
	assert.Equal(t, []string{"https://*.scylla.dev", "http://localhost:*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 45*time.Minute, cfg.Tokens.ResetTTL)
	assert.Equal(t, "warn", cfg.Log.Level, "flags override file")
	assert.Equal(t, "json", cfg.Log.Format, "unset flags leave values alone")
}

func TestLoad_RejectsUnknownFileKeys(t *testing.T) {
	path := writeYAML(t, map[string]any{
		"database": map[string]any{"uri": "postgres://typo/scylla"},
	})
	_, err := Load(path, nil)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}

func TestValidateYAML(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{"empty", "", true},
		{"durations as strings", "session:\n  ttl: 12h\nmail:\n  timeout: 1m30s\n", true},
		{"transport enum", "mail:\n  transport: kafka\n  kafka:\n    brokers: [a:9092]\n", true},
		{"bad transport", "mail:\n  transport: pigeon\n", false},
		{"bad duration", "session:\n  ttl: forever\n", false},
		{"port out of range", "mail:\n  smtp:\n    port: 70000\n", false},
		{"unknown section", "plugins:\n  enabled: true\n", false},
		{"not yaml", "http: [", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateYAML([]byte(tt.doc))
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		})
	}
}

func TestGenerateSchema(t *testing.T) {
	raw, err := GenerateSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, SchemaID, schema["$id"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, section := range []string{"http", "metrics", "database", "redis", "session", "tokens", "mail", "log"} {
		assert.Contains(t, props, section)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing database url", func(c *Config) { c.Database.URL = "" }, "database.url"},
		{"missing sender", func(c *Config) { c.Mail.From = "" }, "mail.from"},
		{"zero max conns", func(c *Config) { c.Database.MaxConns = 0 }, "database.max_conns"},
		{"zero reset workers", func(c *Config) { c.Mail.ResetWorkers = 0 }, "mail.reset_workers"},
		{"zero session ttl", func(c *Config) { c.Session.TTL = 0 }, "session.ttl"},
		{"negative reset ttl", func(c *Config) { c.Tokens.ResetTTL = -time.Minute }, "tokens.reset_ttl"},
		{"unknown transport", func(c *Config) { c.Mail.Transport = "fax" }, "mail.transport"},
		{"smtp without host", func(c *Config) {
			c.Mail.Transport = TransportSMTP
			c.Mail.SMTP.Host = ""
		}, "mail.smtp.host"},
		{"smtp bad tls mode", func(c *Config) {
			c.Mail.Transport = TransportSMTP
			c.Mail.SMTP.TLSMode = "always"
		}, "mail.smtp.tls_mode"},
		{"kafka without brokers", func(c *Config) { c.Mail.Transport = TransportKafka }, "mail.kafka.brokers"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.key == "" {
				require.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			errutil.AssertErrorContext(t, err, "key", tt.key)
		})
	}
}
