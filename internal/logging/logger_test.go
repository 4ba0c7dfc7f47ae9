package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{"username", "fern", "api_key", "abc123", "access_token", "xyz", "dangling"})
	assert.Equal(t, []interface{}{"username", "fern", "api_key", "[REDACTED]", "access_token", "[REDACTED]", "dangling"}, out)
}

func TestLoggerWritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "perenual").Warn("lookup failed", "term", "ficus", "password", "hunter2")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "perenual", fields["component"])
		assert.Equal(t, "ficus", fields["term"])
		assert.Equal(t, "[REDACTED]", fields["password"])
		assert.Equal(t, "lookup failed", entries[0].Message)
	}
}

func TestNopDoesNotPanic(t *testing.T) {
	l := Nop()
	l.Info("quiet", "k", "v")
	l.Sync()
}
