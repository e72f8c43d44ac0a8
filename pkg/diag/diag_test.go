package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLevelLabels(t *testing.T) {
	var buf bytes.Buffer
	var tally Tally
	log := New(&buf, false, &tally)
	log.Debug("hidden")
	log.Info("converted", zap.Int("objects", 3))
	log.Warn("no equivalent in PennMUSH, dropped", zap.String("name", "HEAD"))
	log.Error("fatal finding")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "INFO: converted"), lines[0])
	assert.Contains(t, lines[0], `"objects": 3`)
	assert.True(t, strings.HasPrefix(lines[1], "WARNING: no equivalent"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "ERROR: fatal finding"), lines[2])
	assert.Equal(t, int64(1), tally.Warnings.Load())
	assert.Equal(t, int64(1), tally.Errors.Load())
}

func TestVerboseShowsDebug(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true, nil).Debug("detail")
	assert.Equal(t, "DEBUG: detail\n", buf.String())
}
