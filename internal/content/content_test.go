package content

import (
	"encoding/xml"
	"testing"

	"github.com/agentic-research/fsbuild/api"
	"github.com/agentic-research/fsbuild/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(`{
		"file_contents": {
			"main.cpp": "int main() {}\n",
			"test[0-9]+\\.cpp": "// test ${i}\n",
			"t.*": "// catch-all t\n"
		},
		"templates": {"header": "#pragma once\n"}
	}`), ".json")
	require.NoError(t, err)
	return cfg
}

func TestResolve_Order(t *testing.T) {
	r, err := NewResolver(testConfig(t))
	require.NoError(t, err)

	tests := []struct {
		name   string
		file   api.File
		as     string
		want   string
		source Source
	}{
		{"inline wins", api.File{Body: "inline", Template: "header"}, "main.cpp", "inline", SourceInline},
		{"template by name", api.File{Template: "header"}, "x.h", "#pragma once\n", SourceTemplate},
		{"template by jsonpath", api.File{Template: "$.templates.header"}, "x.h", "#pragma once\n", SourceTemplate},
		{"exact name", api.File{}, "main.cpp", "int main() {}\n", SourceExact},
		{"first sorted pattern", api.File{}, "test3.cpp", "// catch-all t\n", SourcePattern},
		{"type default", api.File{Type: api.FileText}, "notes.txt", "# File: notes.txt\n", SourceDefault},
		{"nothing", api.File{}, "empty.txt", "", SourceNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(&tt.file, tt.as)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Text)
			assert.Equal(t, tt.source, got.Source)
		})
	}
}

func TestResolve_PatternAnchoredAtStart(t *testing.T) {
	cfg, err := config.Parse([]byte(`{"file_contents": {"test[0-9]+\\.cpp": "T"}}`), ".json")
	require.NoError(t, err)
	r, err := NewResolver(cfg)
	require.NoError(t, err)

	got, err := r.Resolve(&api.File{}, "mytest1.cpp")
	require.NoError(t, err)
	assert.Equal(t, SourceNone, got.Source)

	got, err = r.Resolve(&api.File{}, "test12.cpp")
	require.NoError(t, err)
	assert.Equal(t, "T", got.Text)
	assert.True(t, got.Templated)
}

func TestResolve_UnknownTemplate(t *testing.T) {
	r, err := NewResolver(nil)
	require.NoError(t, err)

	_, err = r.Resolve(&api.File{Template: "nope"}, "a")
	assert.ErrorIs(t, err, api.ErrInvalidDescription)

	_, err = r.Resolve(&api.File{Template: "$.templates.nope"}, "a")
	assert.ErrorIs(t, err, api.ErrInvalidDescription)
}

func TestNewResolver_BadPattern(t *testing.T) {
	cfg, err := config.Parse([]byte(`{"file_contents": {"([": "x"}}`), ".json")
	require.NoError(t, err)
	_, err = NewResolver(cfg)
	assert.ErrorIs(t, err, api.ErrInvalidDescription)
}

func TestDefault(t *testing.T) {
	assert.Equal(t, "{\n  \"name\": \"a.json\"\n}\n", Default(api.FileJSON, "a.json"))
	assert.Contains(t, Default(api.FileXML, "a.xml"), "<file>a.xml</file>")
	assert.Equal(t, "# c.yaml\nname: c.yaml\n", Default(api.FileYAML, "c.yaml"))
	assert.Empty(t, Default(api.FileBinary, "b.bin"))
}

func TestDefault_EscapesName(t *testing.T) {
	for _, name := range []string{"a: b.yaml", "#x.yaml", "- [1].yaml", "two\nlines.yaml", "'q\".yaml"} {
		var doc map[string]string
		require.NoError(t, yaml.Unmarshal([]byte(Default(api.FileYAML, name)), &doc), name)
		assert.Equal(t, map[string]string{"name": name}, doc)
	}

	for _, name := range []string{"a&b.xml", "<x>.xml", `q"'.xml`} {
		var doc struct {
			File string `xml:"file"`
		}
		require.NoError(t, xml.Unmarshal([]byte(Default(api.FileXML, name)), &doc), name)
		assert.Equal(t, name, doc.File)
	}
	assert.Contains(t, Default(api.FileXML, "a&b.xml"), "<file>a&amp;b.xml</file>")
}
