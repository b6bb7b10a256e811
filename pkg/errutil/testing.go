// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package errutil

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode fails t unless err carries the oops code want.
func AssertErrorCode(t testing.TB, err error, want string) {
	t.Helper()
	require.Error(t, err, "expected an error coded %s", want)
	_, ok := oops.AsOops(err)
	require.True(t, ok, "expected an oops error coded %s, got %T: %v", want, err, err)
	assert.Equal(t, want, Code(err), "wrong code on %q", err.Error())
}

// AssertErrorContext fails t unless err carries key in its oops context with
// the given value.
func AssertErrorContext(t testing.TB, err error, key string, want any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected an oops error, got %T", err)
	ctx := oopsErr.Context()
	got, present := ctx[key]
	require.True(t, present, "context key %q missing, have %v", key, contextKeys(ctx))
	assert.Equal(t, want, got, "context key %q", key)
}

// AssertNoLeak fails t if any fragment shows up in the message or context of
// err. Errors returned to callers must not echo causes such as hosts, SMTP
// replies or raw tokens.
func AssertNoLeak(t testing.TB, err error, fragments ...string) {
	t.Helper()
	require.Error(t, err)
	surface := err.Error()
	if oopsErr, ok := oops.AsOops(err); ok {
		surface += " " + fmt.Sprint(oopsErr.Context())
	}
	for _, f := range fragments {
		assert.False(t, strings.Contains(surface, f), "error exposes %q: %s", f, surface)
	}
}

func contextKeys(ctx map[string]any) []string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
