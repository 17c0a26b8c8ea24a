package log_test

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ketohub/crawler/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func readLines(t *testing.T, path string) []map[string]interface{} {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	s := bufio.NewScanner(f)
	for s.Scan() {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(s.Bytes(), &m))
		lines = append(lines, m)
	}
	require.NoError(t, s.Err())

	return lines
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawler.log")

	var p, c = log.NewFilePlugin(path, zapcore.InfoLevel)
	var logger = log.NewLogger(p)
	logger.Debug("hidden")
	logger.Info("recipe archived", zap.String("key", "ruled-me-easy-keto-cordon-bleu"))
	logger.Warn("recipe image not found")
	require.NoError(t, c.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "recipe archived", lines[0]["msg"])
	assert.Equal(t, "ruled-me-easy-keto-cordon-bleu", lines[0]["key"])
	assert.Contains(t, lines[0], "caller")
	assert.Equal(t, "WARN", lines[1]["level"])
}

func TestNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawler.log")

	logger, c, err := log.New("warn", path)
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Error("request failed")
	require.NoError(t, c.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "ERROR", lines[0]["level"])

	_, _, err = log.New("loud", "")
	assert.Error(t, err)

	logger, c, err = log.New("debug", "")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.NoError(t, c.Close())
}
