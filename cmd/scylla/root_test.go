// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scylla/scylla/pkg/errutil"
)

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	configFile = ""
	t.Cleanup(func() { configFile = "" })

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"serve", "migrate", "config"} {
		assert.Contains(t, out, sub, "help missing %q command", sub)
	}
	for _, flag := range []string{"--config", "--database-url", "--http-addr", "--log-level", "--mail-transport"} {
		assert.Contains(t, out, flag, "help missing %q flag", flag)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFlag string
	}{
		{"separate value", []string{"--config", "/path/to/config.yaml", "--help"}, "/path/to/config.yaml"},
		{"with equals", []string{"--config=/etc/scylla.yaml", "--help"}, "/etc/scylla.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile = ""
			cmd := NewRootCmd()
			cmd.SetOut(io.Discard)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.wantFlag, configFile)
			configFile = ""
		})
	}
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "test-version")
}

func TestConfigSchema(t *testing.T) {
	out, err := execute(t, "config", "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, "https://scylla.dev/schemas/config.schema.json", schema["$id"])
}

func TestConfigValidate(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		_, err := execute(t, "config", "validate")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	})

	t.Run("complete", func(t *testing.T) {
		t.Setenv("SCYLLA_MAIL__FROM", "no-reply@scylla.dev")
		out, err := execute(t, "config", "validate", "--database-url", "postgres://localhost/scylla")
		require.NoError(t, err)
		assert.Contains(t, out, "configuration is valid")
	})
}

func TestConfigFile_DiscoveredUnderXDG(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "scylla")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("database:\n  url: postgres://xdg/scylla\nmail:\n  from: no-reply@scylla.dev\n"), 0o600))

	f := &fakeRunner{all: []uint{1}}
	gotURL := useFakeRunner(t, f)

	configFile = ""
	t.Cleanup(func() { configFile = "" })
	t.Setenv("XDG_CONFIG_HOME", base)
	cmd := NewRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"migrate", "version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "postgres://xdg/scylla", *gotURL)
}

func TestServe_RejectsInvalidConfigBeforeConnecting(t *testing.T) {
	t.Setenv("SCYLLA_MAIL__FROM", "no-reply@scylla.dev")

	_, err := execute(t, "serve", "--database-url", "postgres://localhost/scylla", "--log-level", "loud")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}
