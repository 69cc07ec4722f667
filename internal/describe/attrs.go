package describe

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/agentic-research/fsbuild/api"
	"github.com/agentic-research/fsbuild/internal/config"
	"golang.org/x/text/encoding/htmlindex"
)

// Attribute names shared by every source format.
const (
	attrContent         = "content"
	attrTemplate        = "template"
	attrReplaceIfExists = "replaceifexists"
	attrEncoding        = "encoding"
	attrType            = "type"
	attrPermissions     = "permissions"
	attrExecutable      = "executable"
	attrFormat          = "format"
	attrHidden          = "hidden"
)

// applyFileAttrs sets attributes on f. Keys are case-insensitive; a nil
// value leaves the attribute at its default.
func applyFileAttrs(f *api.File, attrs map[string]any) error {
	for _, k := range sortedKeys(attrs) {
		v := attrs[k]
		if v == nil {
			continue
		}
		var err error
		switch strings.ToLower(k) {
		case attrContent:
			f.Body, err = config.AsString(k, v)
		case attrTemplate:
			f.Template, err = config.AsString(k, v)
		case attrReplaceIfExists:
			f.AllowOverwrite, err = config.AsBool(k, v)
		case attrEncoding:
			var enc string
			if enc, err = config.AsString(k, v); err == nil {
				err = checkEncoding(enc)
				f.Encoding = enc
			}
		case attrType:
			var t string
			t, err = config.AsString(k, v)
			f.Type = api.FileType(strings.ToLower(t))
		case attrPermissions:
			f.Attributes.Mode, err = mode(k, v)
		case attrExecutable:
			f.Attributes.Executable, err = config.AsBool(k, v)
		case attrFormat:
			f.Format, err = config.AsBool(k, v)
		case attrHidden:
			// Windows-only, accepted and ignored.
		default:
			err = fmt.Errorf("unknown file attribute %q", k)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", f.Label(), err)
		}
	}
	return nil
}

func applyFolderAttrs(f *api.Folder, attrs map[string]any) error {
	for _, k := range sortedKeys(attrs) {
		v := attrs[k]
		if v == nil {
			continue
		}
		var err error
		switch strings.ToLower(k) {
		case attrPermissions:
			f.Attributes.Mode, err = mode(k, v)
		case attrHidden:
		default:
			err = fmt.Errorf("unknown folder attribute %q", k)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", f.Label(), err)
		}
	}
	return nil
}

func mode(k string, v any) (fs.FileMode, error) {
	s, err := config.AsString(k, v)
	if err != nil {
		return 0, err
	}
	return config.ParseMode(s)
}

func checkEncoding(name string) error {
	if _, err := htmlindex.Get(name); err != nil {
		return fmt.Errorf("unknown encoding %q", name)
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
