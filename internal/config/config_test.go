package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentic-research/fsbuild/api"
	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_YAML(t *testing.T) {
	cfg, err := Parse([]byte(dedent.Dedent(`
		file_contents:
		  main.cpp: "int main() { return 0; }\n"
		  "test[0-9]+\\.cpp": "// generated\n"
		templates:
		  header: "#pragma once\n"
		defaults:
		  encoding: cp1251
		  replaceifexists: false
		  type: TEXT
		  permissions: "600"
		  max_iterations: 500
	`)), ".yaml")
	require.NoError(t, err)

	assert.Equal(t, "int main() { return 0; }\n", cfg.FileContents["main.cpp"])
	assert.Equal(t, []string{"main.cpp", `test[0-9]+\.cpp`}, cfg.PatternKeys())

	tmpl, ok := cfg.Template("header")
	require.True(t, ok)
	assert.Equal(t, "#pragma once\n", tmpl)

	fd := cfg.FileDefaults()
	assert.Equal(t, "cp1251", fd.Encoding)
	assert.False(t, fd.AllowOverwrite)
	assert.Equal(t, api.FileText, fd.Type)
	assert.Equal(t, fs.FileMode(0o600), fd.Mode)
	assert.Equal(t, 500, cfg.MaxIterations())
}

func TestParse_JSON(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"templates": {"cpp": "// ${i}\n"},
		"defaults": {"permissions": 755, "executable": true}
	}`), ".json")
	require.NoError(t, err)

	fd := cfg.FileDefaults()
	assert.True(t, fd.AllowOverwrite, "replaceifexists defaults to true")
	assert.Equal(t, fs.FileMode(0o755), fd.Mode)
	assert.True(t, fd.Executable)
	assert.Equal(t, api.DefaultEncoding, fd.Encoding)

	got, ok, err := cfg.Query("$.templates.cpp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "// ${i}\n", got)

	_, ok, err = cfg.Query("$.templates.missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = cfg.Query("$.defaults")
	assert.Error(t, err, "non-string selections are rejected")
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]struct {
		data string
		ext  string
	}{
		"unsupported ext":   {`{}`, ".toml"},
		"broken json":       {`{"templates":`, ".json"},
		"top level list":    {`[1, 2]`, ".json"},
		"bad type":          {`{"defaults": {"type": "pdf"}}`, ".json"},
		"bad permissions":   {`{"defaults": {"permissions": "rwx"}}`, ".json"},
		"negative cap":      {`{"defaults": {"max_iterations": -1}}`, ".json"},
		"unknown default":   {`{"defaults": {"colour": "red"}}`, ".json"},
		"non string body":   {`{"file_contents": {"a": 1}}`, ".json"},
		"templates not map": {"templates: [a, b]\n", ".yml"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data), tc.ext)
			require.Error(t, err)
			assert.ErrorIs(t, err, api.ErrInvalidDescription)
		})
	}
}

func TestLoad_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fsbuild.yml")
	require.NoError(t, os.WriteFile(path, []byte("templates:\n  a: A\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	tmpl, ok := cfg.Template("a")
	assert.True(t, ok)
	assert.Equal(t, "A", tmpl)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNilConfigIsUsable(t *testing.T) {
	var cfg *Config
	assert.Equal(t, api.DefaultFileDefaults(), cfg.FileDefaults())
	assert.Zero(t, cfg.MaxIterations())
	assert.Nil(t, cfg.PatternKeys())
	_, ok := cfg.Template("x")
	assert.False(t, ok)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("0755")
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o755), m)

	m, err = ParseMode("0o600")
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o600), m)

	_, err = ParseMode("9")
	assert.Error(t, err)
	_, err = ParseMode("77777")
	assert.Error(t, err)
}
