package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_AutoIsJSONForPipes(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Config{}).Info("wrote", "path", "src/a.txt")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "wrote", rec["msg"])
	assert.Equal(t, "src/a.txt", rec["path"])
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Config{Format: FormatText}).Debug("hidden")
	assert.Empty(t, buf.String())

	New(&buf, Config{Format: FormatText, Verbose: true}).Debug("shown", "n", 3)
	assert.Contains(t, buf.String(), "msg=shown n=3")
}
