/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesJSONToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	cfg := NewDefaultConfig()
	cfg.Level = LevelDebug
	cfg.Output = OutputFile
	cfg.File.Path = logPath

	logger, closeFn := NewLogger(cfg)
	logger.Info("hello", String("component", "test"))
	logger.With(Int("attempt", 2)).Warnf("retrying %s", "request")
	closeFn()

	file, err := os.Open(logPath)
	require.NoError(t, err)
	defer func() { require.NoError(t, file.Close()) }()

	var entries []map[string]interface{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, entries, 2)

	require.Equal(t, "info", entries[0]["level"])
	require.Equal(t, "hello", entries[0]["msg"])
	require.Equal(t, "test", entries[0]["component"])
	require.EqualValues(t, os.Getpid(), entries[0]["pid"])
	require.NotEmpty(t, entries[0]["time"])

	require.Equal(t, "warn", entries[1]["level"])
	require.Equal(t, "retrying request", entries[1]["msg"])
	require.EqualValues(t, 2, entries[1]["attempt"])
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	cfg := NewDefaultConfig()
	cfg.Level = LevelWarn
	cfg.Output = OutputFile
	cfg.File.Path = logPath

	logger, closeFn := NewLogger(cfg)
	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.AtLevel(LevelDebug, func(logFn LogFunc) {
		logFn("must not be called")
	})
	logger.Error("kept")
	closeFn()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "kept")
	require.NotContains(t, string(data), "dropped")
	require.NotContains(t, string(data), "must not be called")
}

func TestNewLoggerTextFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	cfg := NewDefaultConfig()
	cfg.Format = FormatText
	cfg.NoColor = true
	cfg.Output = OutputFile
	cfg.File.Path = logPath

	logger, closeFn := NewLogger(cfg)
	logger.Info("text entry", String("key", "value"))
	closeFn()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "text entry")
	require.Contains(t, string(data), `key="value"`)
}

func TestResolvePlaceholders(t *testing.T) {
	resolved := resolvePlaceholders("/var/log/app-{{pid}}-{{starttime}}.log")
	require.NotContains(t, resolved, "{{pid}}")
	require.NotContains(t, resolved, "{{starttime}}")

	// paths without placeholders are left intact
	require.Equal(t, "/var/log/app.log", resolvePlaceholders("/var/log/app.log"))
}

func TestNewDisabledLogger(t *testing.T) {
	logger := NewDisabledLogger()
	logger.Debug("nothing")
	logger.Info("nothing")
	logger.Warn("nothing")
	logger.Error("nothing")
	logger.Errorf("nothing %d", 42)
	logger.With(String("k", "v")).Info("nothing")
	logger.AtLevel(LevelError, func(logFn LogFunc) {
		logFn("nothing")
	})
}
