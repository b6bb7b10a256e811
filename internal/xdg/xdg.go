// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

// Package xdg locates Scylla's files under the XDG base directories.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const (
	appName        = "scylla"
	configFileName = "config.yaml"
)

// ConfigDir returns the Scylla config directory. XDG_CONFIG_HOME is checked
// first, then ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the path of config.yaml in ConfigDir, or "" when no
// such file exists. Any other stat failure is returned.
func ConfigFile() (string, error) {
	path := filepath.Join(ConfigDir(), configFileName)
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	case err != nil:
		return "", oops.Code("CONFIG_LOOKUP_FAILED").With("path", path).Wrap(err)
	case info.IsDir():
		return "", oops.Code("CONFIG_LOOKUP_FAILED").With("path", path).Errorf("config path is a directory")
	}
	return path, nil
}
