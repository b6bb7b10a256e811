// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvPrefix marks the environment variables read by Load. A double
// underscore separates nesting levels: SCYLLA_DATABASE__URL sets
// database.url.
const EnvPrefix = "SCYLLA_"

// listKeys hold comma-separated values when set from the environment.
var listKeys = map[string]bool{
	"http.cors_origins":  true,
	"mail.kafka.brokers": true,
}

// flagKeys maps the flags registered by RegisterFlags to config keys.
var flagKeys = map[string]string{
	"http-addr":      "http.addr",
	"metrics-addr":   "metrics.addr",
	"database-url":   "database.url",
	"mail-transport": "mail.transport",
	"log-format":     "log.format",
	"log-level":      "log.level",
}

// RegisterFlags adds the config override flags to fs. Flags only take
// effect when set explicitly.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", "", "API listen address (http.addr)")
	fs.String("metrics-addr", "", "metrics listen address, empty disables (metrics.addr)")
	fs.String("database-url", "", "PostgreSQL connection URL (database.url)")
	fs.String("mail-transport", "", "notification transport: smtp, kafka or log (mail.transport)")
	fs.String("log-format", "", "log format: json or text (log.format)")
	fs.String("log-level", "", "log level: debug, info, warn or error (log.level)")
}

// Load builds a Config from the defaults, the YAML file at path (skipped
// when path is empty), the environment and the flags in fs (may be nil).
// The result is not validated; call Validate before use.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	if path != "" {
		fp := file.Provider(path)
		raw, err := fp.ReadBytes()
		if err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "file").With("path", path).Wrap(err)
		}
		if err := ValidateYAML(raw); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
		if err := k.Load(fp, yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "file").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if fs != nil {
		flags := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(flags, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "unmarshal").Wrap(err)
	}
	return &cfg, nil
}

func envKey(name, value string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if listKeys[key] {
		return key, splitList(value)
	}
	return key, value
}

func splitList(value string) []string {
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
