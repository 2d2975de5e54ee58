package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSteps(t *testing.T) {
	steps, err := parseSteps(nil)
	require.NoError(t, err)
	require.Equal(t, 1, steps)

	steps, err = parseSteps([]string{" 3 "})
	require.NoError(t, err)
	require.Equal(t, 3, steps)

	_, err = parseSteps([]string{"0"})
	require.Error(t, err)

	_, err = parseSteps([]string{"two"})
	require.Error(t, err)
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("2")
	require.NoError(t, err)
	require.Equal(t, 2, v)

	_, err = parseVersion("-1")
	require.Error(t, err)
}

func TestParseTarget(t *testing.T) {
	v, err := parseTarget("1")
	require.NoError(t, err)
	require.Equal(t, uint(1), v)

	_, err = parseTarget("-1")
	require.Error(t, err)
}

func TestResolveMigrationsDir(t *testing.T) {
	dir := t.TempDir()

	got, err := resolveMigrationsDir(dir)
	require.NoError(t, err)
	require.Equal(t, dir, got)

	t.Setenv("MIGRATIONS_DIR", "")
	t.Chdir(t.TempDir())
	_, err = resolveMigrationsDir("")
	require.Error(t, err)
}
