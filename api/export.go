package api

import (
	"io/fs"
	"strconv"
)

// Export converts d into plain maps and slices tagged by declaration type,
// suitable for JSON encoding (the --export-ast output).
func Export(d *Description) []map[string]any {
	if d == nil {
		return nil
	}
	return exportDecls(d.Decls)
}

func exportDecls(decls []Declaration) []map[string]any {
	out := make([]map[string]any, 0, len(decls))
	for _, decl := range decls {
		switch d := decl.(type) {
		case *Folder:
			m := map[string]any{
				"type":     "folder",
				"name":     d.Name,
				"children": exportDecls(d.Children),
			}
			if d.Attributes.Mode != 0 {
				m["attributes"] = map[string]any{"permissions": formatMode(d.Attributes.Mode)}
			}
			out = append(out, m)
		case *File:
			attrs := map[string]any{
				"encoding":        d.Encoding,
				"replaceifexists": d.AllowOverwrite,
			}
			if d.Body != "" {
				attrs["content"] = d.Body
			}
			if d.Template != "" {
				attrs["template"] = d.Template
			}
			if d.Type != "" {
				attrs["type"] = string(d.Type)
			}
			if d.Format {
				attrs["format"] = true
			}
			if d.Attributes.Mode != 0 {
				attrs["permissions"] = formatMode(d.Attributes.Mode)
			}
			if d.Attributes.Executable {
				attrs["executable"] = true
			}
			out = append(out, map[string]any{
				"type":       "file",
				"name":       d.Name,
				"attributes": attrs,
			})
		case *Loop:
			out = append(out, map[string]any{
				"type":     "for_loop",
				"var_name": d.Var,
				"init":     d.Init,
				"cond":     d.Cond,
				"step":     d.Step,
				"children": exportDecls(d.Body),
			})
		case *Output:
			out = append(out, map[string]any{"type": "stdout", "message": d.Text})
		case *Input:
			out = append(out, map[string]any{"type": "stdin", "var_name": d.Var})
		}
	}
	return out
}

func formatMode(m fs.FileMode) string {
	return strconv.FormatUint(uint64(m.Perm()), 8)
}
