package zapadapter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lumetric/darkroom-engine-go/editsession"
	"github.com/lumetric/darkroom-engine-go/zapadapter"
)

// compile-time interface checks
var (
	_ editsession.Logger           = (*zapadapter.Logger)(nil)
	_ editsession.ContextualLogger = (*zapadapter.Logger)(nil)
)

func Test_Logger_ForwardsLevelsAndKeyValuePairs(t *testing.T) {
	// arrange
	core, observed := observer.New(zapcore.DebugLevel)
	logger := zapadapter.NewLogger(zap.New(core))

	// act
	logger.Debug("debug msg", "operation", "ApplyEdit")
	logger.Info("info msg", "asset_id", "asset-1")
	logger.Warn("warn msg")
	logger.Error("error msg", "error", "boom")

	// assert
	entries := observed.All()
	assert.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)

	assert.Equal(t, "info msg", entries[1].Message)
	assert.Equal(t, "asset-1", entries[1].ContextMap()["asset_id"])
}

func Test_Logger_ContextVariantsForward(t *testing.T) {
	// arrange
	core, observed := observer.New(zapcore.DebugLevel)
	logger := zapadapter.NewLogger(zap.New(core))
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "debug msg")
	logger.InfoContext(ctx, "info msg")
	logger.WarnContext(ctx, "warn msg")
	logger.ErrorContext(ctx, "error msg")

	// assert
	assert.Len(t, observed.All(), 4)
}

func Test_NewDevelopmentLogger(t *testing.T) {
	logger, err := zapadapter.NewDevelopmentLogger()

	assert.NoError(t, err)
	assert.NotNil(t, logger)
	logger.Sync()
}
