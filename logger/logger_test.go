package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{"password", "hunter2", "course_id", 7, "Card_Number", "4242", "dangling"})

	assert.Equal(t, []interface{}{"password", "[REDACTED]", "course_id", 7, "Card_Number", "[REDACTED]", "dangling"}, out)
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"production", "development"} {
		l, err := New(mode)
		assert.NoError(t, err)
		assert.NotNil(t, l.With("component", "test"))
	}
}
