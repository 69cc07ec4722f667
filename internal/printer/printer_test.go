package printer

import (
	"bytes"
	"testing"

	"github.com/agentic-research/fsbuild/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintTree(t *testing.T) {
	entries := []api.Entry{
		{Path: "src", Kind: api.EntryDirectory},
		{Path: "src/bin/run.sh", Kind: api.EntryFile, Content: []byte("#!/bin/sh\n"), Mode: 0o755},
		{Path: "src/main.cpp", Kind: api.EntryFile, Content: []byte("int main() {}\n")},
	}

	var buf bytes.Buffer
	require.NoError(t, PrintTree(&buf, "out", entries, []string{"src/keep.txt"}))

	out := buf.String()
	assert.Contains(t, out, "out\n")
	assert.Contains(t, out, "src/")
	assert.Contains(t, out, "bin/")
	assert.Contains(t, out, "run.sh (10 B, executable)")
	assert.Contains(t, out, "main.cpp (14 B)")
	assert.Contains(t, out, "keep.txt [kept]")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("bin/")), bytes.Index(buf.Bytes(), []byte("run.sh")))
}

func TestPrintTree_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTree(&buf, "out", nil, nil))
	assert.Equal(t, "out\n", buf.String())
}
