package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGo_Formats(t *testing.T) {
	input := []byte("package main\n\nfunc A()  {\nreturn\n}\n")
	got, ok := Go(input, "main.go", Options{})
	assert.True(t, ok)
	assert.Equal(t, "package main\n\nfunc A() {\n\treturn\n}\n", string(got))
}

func TestGo_InvalidPassthrough(t *testing.T) {
	input := []byte("func broken {{{")
	got, ok := Go(input, "broken.go", Options{})
	assert.False(t, ok)
	assert.Equal(t, input, got, "unparseable Go is written as is")
}

func TestHCL_AlignsAttributes(t *testing.T) {
	input := []byte("resource \"x\" \"y\" {\nname = \"a\"\ncount   =   2\n}\n")
	got, ok := Source(input, "main.tf", Options{})
	assert.True(t, ok)
	assert.Equal(t, "resource \"x\" \"y\" {\n  name  = \"a\"\n  count = 2\n}\n", string(got))
}

func TestHCL_InvalidPassthrough(t *testing.T) {
	input := []byte("block {\n")
	got, ok := Source(input, "broken.hcl", Options{})
	assert.False(t, ok)
	assert.Equal(t, input, got)
}

func TestSource_UnsupportedPassthrough(t *testing.T) {
	input := []byte("int main() {   return 0; }\n")
	got, ok := Source(input, "main.cpp", Options{})
	assert.False(t, ok)
	assert.Equal(t, input, got)
}

func TestApplies(t *testing.T) {
	assert.True(t, Applies("x.go"))
	assert.True(t, Applies("vars.TF"))
	assert.True(t, Applies("job.hcl"))
	assert.False(t, Applies("x.go.txt"))
	assert.False(t, Applies("go"))
}
