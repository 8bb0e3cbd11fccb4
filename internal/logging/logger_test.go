package logging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/internx-match/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestNew_ConsoleAndJSON(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		log, err := New(config.LoggingConfig{Level: "debug", Format: format})
		require.NoError(t, err, format)
		assert.True(t, log.Core().Enabled(zap.DebugLevel))
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "match.log")
	log, err := New(config.LoggingConfig{Level: "info", Format: "json", File: path, MaxSize: 1})
	require.NoError(t, err)

	log.Info("hello", zap.String("k", "v"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("  abc  ", 5))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	gl := NewGormLogger(zap.New(core))

	sql := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len(), "record not found is not logged at warn level")

	gl.Trace(context.Background(), time.Now(), sql, errors.New("disk I/O error"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "query failed", logs.All()[0].Message)

	gl.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "slow query", logs.All()[1].Message)

	silent := gl.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), sql, errors.New("ignored"))
	assert.Equal(t, 2, logs.Len())
}
