package logger_test

import (
	"errors"
	"testing"

	"taskHierarchy/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() { logger.Set(nil) })

	require.NoError(t, logger.Init(true))
	assert.NotNil(t, logger.Logger)

	require.NoError(t, logger.Init(false))
	assert.NotNil(t, logger.Logger)
}

func TestError_AttachesErrorField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })

	logger.Error("Repository: query failed", errors.New("boom"), zap.String("query", "tasks"))
	logger.Error("Repository: nothing attached", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])
	assert.Equal(t, "tasks", entries[0].ContextMap()["query"])
	_, hasErr := entries[1].ContextMap()["error"]
	assert.False(t, hasErr)
}

func TestLog_Level(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })

	logger.Debug("hidden")
	logger.Log(zapcore.WarnLevel, "shown")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}
