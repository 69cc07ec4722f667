// Package format post-processes generated sources: Go with gofumpt, HCL
// and Terraform with hclwrite.
package format

import (
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"mvdan.cc/gofumpt/format"
)

// Options configure gofumpt.
type Options struct {
	// LangVersion is the Go version the sources target, e.g. "go1.22".
	LangVersion string
	// ExtraRules enables gofumpt's optional rules.
	ExtraRules bool
}

// Applies reports whether name is a file Source knows how to format.
func Applies(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".go", ".hcl", ".tf":
		return true
	}
	return false
}

// Source formats content according to the extension of name. It returns
// the formatted bytes and true, or content unchanged and false when the
// file type is not supported or content does not parse.
func Source(content []byte, name string, opts Options) ([]byte, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".go":
		return Go(content, name, opts)
	case ".hcl", ".tf":
		return HCL(content, name)
	}
	return content, false
}

// Go formats Go source with gofumpt.
func Go(content []byte, name string, opts Options) ([]byte, bool) {
	if !strings.HasSuffix(name, ".go") {
		return content, false
	}
	formatted, err := format.Source(content, format.Options{
		LangVersion: opts.LangVersion,
		ExtraRules:  opts.ExtraRules,
	})
	if err != nil {
		return content, false
	}
	return formatted, true
}

// HCL formats HCL native syntax. hclwrite only fixes layout, so content
// is parsed first and left alone when it is not valid.
func HCL(content []byte, name string) ([]byte, bool) {
	if _, diags := hclsyntax.ParseConfig(content, name, hcl.InitialPos); diags.HasErrors() {
		return content, false
	}
	return hclwrite.Format(content), true
}
