package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSegment(t *testing.T) {
	for _, name := range []string{"src", "test0.cpp", ".hidden", "a b"} {
		assert.True(t, IsSegment(name), name)
	}
	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		assert.False(t, IsSegment(name), name)
	}
}

func TestIsIdent(t *testing.T) {
	for _, name := range []string{"i", "_", "idx2", "Outer_loop"} {
		assert.True(t, IsIdent(name), name)
	}
	for _, name := range []string{"", "2i", "a-b", "i j", "ё"} {
		assert.False(t, IsIdent(name), name)
	}
}

func TestValidate(t *testing.T) {
	d := DefaultFileDefaults()
	tests := []struct {
		name  string
		decls []Declaration
		ok    bool
	}{
		{"valid tree", []Declaration{
			&Folder{Name: "src", Children: []Declaration{
				&Loop{Var: "i", Init: "0", Cond: "i < 2", Step: "i++", Body: []Declaration{d.NewFile("f${i}")}},
			}},
		}, true},
		{"folder with separator", []Declaration{&Folder{Name: "a/b"}}, false},
		{"empty file name", []Declaration{d.NewFile("")}, false},
		{"nested bad name", []Declaration{&Folder{Name: "a", Children: []Declaration{d.NewFile("..")}}}, false},
		{"bad loop variable", []Declaration{&Loop{Var: "1i", Init: "0", Cond: "1", Step: "1"}}, false},
		{"missing step", []Declaration{&Loop{Var: "i", Init: "0", Cond: "i < 1"}}, false},
		{"bad type", []Declaration{&File{Name: "a", Type: "pdf"}}, false},
		{"nil declaration", []Declaration{nil}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&Description{Decls: tt.decls})
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidDescription)
		})
	}
	assert.ErrorIs(t, Validate(nil), ErrInvalidDescription)
}

func TestExport(t *testing.T) {
	d := DefaultFileDefaults()
	run := d.NewFile("run.sh")
	run.Body = "#!/bin/sh\n"
	run.Attributes = Attributes{Mode: 0o700, Executable: true}

	desc := &Description{Decls: []Declaration{
		&Folder{Name: "bin", Attributes: Attributes{Mode: 0o755}, Children: []Declaration{run}},
		&Loop{Var: "i", Init: "0", Cond: "i < 2", Step: "i++"},
	}}
	data, err := json.Marshal(Export(desc))
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type": "folder", "name": "bin", "attributes": {"permissions": "755"}, "children": [
			{"type": "file", "name": "run.sh", "attributes": {
				"encoding": "UTF-8", "replaceifexists": true, "content": "#!/bin/sh\n",
				"permissions": "700", "executable": true}}
		]},
		{"type": "for_loop", "var_name": "i", "init": "0", "cond": "i < 2", "step": "i++", "children": []}
	]`, string(data))
}
