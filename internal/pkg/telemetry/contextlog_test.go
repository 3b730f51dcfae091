package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestLogger_ContextStackPrefixesMessages(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(NewSlog(&buf, LogOptions{Level: "debug"}))

	logger.Info("no context")
	logger.AppendContext("Pipeline")
	logger.AppendContext("SignUp")
	logger.Debug("creating user", "user_id", "u1")
	logger.PopContext()
	logger.Warn("after pop")
	logger.PopContext()
	logger.PopContext()
	logger.Error("empty again")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 4)

	assert.Equal(t, "no context", recs[0]["msg"])
	assert.NotContains(t, recs[0], "context")

	assert.Equal(t, "Pipeline: SignUp: creating user", recs[1]["msg"])
	assert.Equal(t, "Pipeline: SignUp", recs[1]["context"])
	assert.Equal(t, "u1", recs[1]["user_id"])
	assert.Equal(t, "DEBUG", recs[1]["level"])

	assert.Equal(t, "Pipeline: after pop", recs[2]["msg"])
	assert.Equal(t, "empty again", recs[3]["msg"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(NewSlog(&buf, LogOptions{Level: "warn"}))

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "shown", recs[0]["msg"])
}

func TestLogger_ForkIsIndependent(t *testing.T) {
	parent := Discard()
	parent.AppendContext("Service")

	child := parent.Fork(context.Background())
	child.AppendContext("Request")

	assert.Equal(t, []string{"Service"}, parent.Contexts())
	assert.Equal(t, []string{"Service", "Request"}, child.Contexts())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLevel("DEBUG").String())
	assert.Equal(t, "INFO", ParseLevel("bogus").String())
	assert.Equal(t, "ERROR", ParseLevel("error").String())
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "collector:4317", stripScheme("http://collector:4317"))
	assert.Equal(t, "collector:4317", stripScheme("https://collector:4317"))
	assert.Equal(t, "collector:4317", stripScheme("collector:4317"))
}
