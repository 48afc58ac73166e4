package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewService(t *testing.T) {
	t.Run("default configuration", func(t *testing.T) {
		service, err := NewService(Config{Level: Info, Format: "json", OutputPath: "stdout"})

		require.NoError(t, err)
		assert.NotNil(t, service)
		assert.NotNil(t, service.logger)
	})

	t.Run("console format", func(t *testing.T) {
		service, err := NewService(Config{Level: Debug, Format: "console", OutputPath: "stdout"})

		require.NoError(t, err)
		assert.NotNil(t, service.logger)
	})

	t.Run("unknown format", func(t *testing.T) {
		service, err := NewService(Config{Level: Info, Format: "xml"})

		assert.Error(t, err)
		assert.Nil(t, service)
	})

	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "auth.log")

		service, err := NewService(Config{Level: Warn, Format: "json", OutputPath: logFile, Name: "authcore"})
		require.NoError(t, err)

		service.Warn("lockout triggered", UserID(7))
		_ = service.Sync()

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "lockout triggered")
		assert.Contains(t, string(data), `"user_id":7`)
		assert.Contains(t, string(data), `"logger":"authcore"`)
	})
}

func TestService_NilSafety(t *testing.T) {
	var service *Service

	assert.NotPanics(t, func() {
		service.Debug("debug")
		service.Info("info")
		service.Warn("warn")
		service.Error("error")
		assert.NoError(t, service.Sync())
	})
	assert.Nil(t, service.Logger())
	assert.Nil(t, service.With(UserID(1)))
	assert.Nil(t, service.Named("refresh"))
}

func TestService_LoggingMethods(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	service := NewFromZap(zap.New(core))

	service.Debug("debug message")
	service.Info("info message")
	service.Warn("warn message")
	service.Error("error message")

	entries := recorded.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestService_With(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	service := NewFromZap(zap.New(core)).Named("refresh").With(FamilyID("fam-1"))

	service.Info("rotated", TokenID(3))

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "refresh", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	assert.Equal(t, "fam-1", fields["family_id"])
	assert.Equal(t, uint64(3), fields["token_id"])
}

func TestTokenHash_Truncates(t *testing.T) {
	field := TokenHash("0123456789abcdef0123456789abcdef")
	assert.Equal(t, "token_hash_prefix", field.Key)
	assert.Equal(t, "01234567", field.String)

	short := TokenHash("abc")
	assert.Equal(t, "abc", short.String)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zapcore.Level
	}{
		{Debug, zapcore.DebugLevel},
		{Info, zapcore.InfoLevel},
		{Warn, zapcore.WarnLevel},
		{Error, zapcore.ErrorLevel},
		{"invalid", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}
