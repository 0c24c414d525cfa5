package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := FromCore(core, false).Named("chapters")

	l.Debugf("hidden %d", 1)
	l.Infof("found %d chapters", 12)
	l.Errorf("chapter %s failed", "3")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "found 12 chapters", entries[0].Message)
	assert.Equal(t, "chapters", entries[0].LoggerName)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestLoggerDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromCore(core, true)

	l.Debugf("fetching %s", "https://example.com")
	assert.Equal(t, 1, logs.FilterMessage("fetching https://example.com").Len())
	assert.True(t, l.Debug)
}

func TestNopLogger(t *testing.T) {
	l := NopLogger()
	l.Infof("nothing %s", "here")
	l.Sync()
}

func TestStatsSummary(t *testing.T) {
	var s Stats
	s.TotalChapters.Add(2)
	s.TotalImages.Add(40)
	s.TotalBytes.Add(3 << 20)
	s.FailedChapters.Add(1)

	var buf bytes.Buffer
	s.Summary(&buf, 1500*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "Chapters: 2\n")
	assert.Contains(t, out, "Failed:   1\n")
	assert.Contains(t, out, "Data:     3.00 MB\n")
	assert.Contains(t, out, "Time:     2s\n")
	assert.NotContains(t, out, "Skipped")
}
