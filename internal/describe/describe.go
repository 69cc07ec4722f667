// Package describe loads tree descriptions. Four source formats are
// supported, selected by file extension: the fsb block language (.fsb),
// HCL (.hcl), and a JSON or YAML document (.json, .yaml, .yml) whose shape
// matches the exported syntax tree.
package describe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentic-research/fsbuild/api"
)

// DefaultVersion is reported for sources that do not declare a version.
const DefaultVersion = "1"

// Format identifies a description syntax.
type Format string

const (
	FormatFSB  Format = "fsb"
	FormatHCL  Format = "hcl"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor returns the format selected by the extension of path.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fsb", ".sttfs":
		return FormatFSB, nil
	case ".hcl":
		return FormatHCL, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", &api.Error{
			Op:   "describe",
			Kind: api.KindInvalidDescription,
			Path: path,
			Err:  fmt.Errorf("unsupported description format %q", filepath.Ext(path)),
		}
	}
}

// Load reads and parses the description at path. Files take their unset
// attributes from defaults.
func Load(path string, defaults api.FileDefaults) (*api.Description, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, api.Annotate(err, "describe.read", path, "")
	}
	d, err := Parse(data, format, path, defaults)
	if err != nil {
		return nil, api.Annotate(err, "describe", path, "")
	}
	return d, nil
}

// Parse parses src in the given format. filename is only used in
// diagnostics. The result has been validated with api.Validate.
func Parse(src []byte, format Format, filename string, defaults api.FileDefaults) (*api.Description, error) {
	var (
		d   *api.Description
		err error
	)
	switch format {
	case FormatFSB:
		d, err = parseFSB(src, filename, defaults)
	case FormatHCL:
		d, err = parseHCL(src, filename, defaults)
	case FormatJSON, FormatYAML:
		d, err = parseDocument(src, format, defaults)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, invalid(err)
	}
	if err := api.Validate(d); err != nil {
		return nil, err
	}
	return d, nil
}

func invalid(err error) error {
	var ae *api.Error
	if errors.As(err, &ae) {
		return err
	}
	return &api.Error{Op: "describe", Kind: api.KindInvalidDescription, Err: err}
}
