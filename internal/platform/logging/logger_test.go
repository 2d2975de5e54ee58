package logging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_WritesKeyValueFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := FromZap(zap.New(core))

	logger.With("component", "profile").InfoContext(context.Background(), "profile updated",
		"user_id", "user-1",
		"skills", 3,
		"error", errors.New("boom"),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "profile", fields["component"])
	require.Equal(t, "user-1", fields["user_id"])
	require.EqualValues(t, 3, fields["skills"])
	require.Equal(t, "boom", fields["error"])
}

func TestLogger_OddArgsAndNonStringKeys(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := FromZap(zap.New(core))

	logger.Warn("odd", 42, "value", "dangling")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "value", fields["arg"])
	require.Contains(t, fields, "dangling")
}

func TestLogger_NilReceiverFallsBackToDefault(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	SetDefault(FromZap(zap.New(core)))
	t.Cleanup(func() { SetDefault(nil) })

	var logger *Logger
	logger.Info("from nil")

	require.Equal(t, 1, logs.FilterMessage("from nil").Len())
}
