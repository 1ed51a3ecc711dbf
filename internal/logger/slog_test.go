package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("debug records dropped at info level", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, false)
		l.Debug("hidden")
		l.Info("shown", "handler", "getToken")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=shown")
		assert.Contains(t, buf.String(), "handler=getToken")
	})

	t.Run("debug enabled", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, true).Debug("visible")
		assert.Contains(t, buf.String(), "visible")
	})
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	JSON(&buf, false).Warn("duplicate response", "responseId", "cb_1_1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "duplicate response", rec["msg"])
	assert.Equal(t, "cb_1_1", rec["responseId"])
}
