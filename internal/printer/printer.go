// Package printer renders planned output as a directory tree.
package printer

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/agentic-research/fsbuild/api"
	"github.com/ddddddO/gtree"
	"github.com/dustin/go-humanize"
)

// PrintTree writes entries as a tree under root. Entries must be sorted
// by path, as sink.Plan.Final returns them. Paths in skipped are marked.
func PrintTree(w io.Writer, root string, entries []api.Entry, skipped []string) error {
	tree := gtree.NewRoot(root)
	nodes := map[string]*gtree.Node{".": tree}
	skip := make(map[string]bool, len(skipped))
	for _, p := range skipped {
		skip[filepath.Clean(p)] = true
	}

	var node func(path string) *gtree.Node
	node = func(path string) *gtree.Node {
		if n, ok := nodes[path]; ok {
			return n
		}
		n := node(filepath.Dir(path)).Add(filepath.Base(path) + "/")
		nodes[path] = n
		return n
	}

	for _, e := range entries {
		path := filepath.Clean(e.Path)
		if e.Kind == api.EntryDirectory {
			node(path)
			continue
		}
		parent := node(filepath.Dir(path))
		nodes[path] = parent.Add(label(e, skip[path]))
	}
	for _, p := range skipped {
		path := filepath.Clean(p)
		if _, ok := nodes[path]; !ok {
			nodes[path] = node(filepath.Dir(path)).Add(filepath.Base(path) + " [kept]")
		}
	}
	return gtree.OutputFromRoot(w, tree)
}

func label(e api.Entry, skipped bool) string {
	var b strings.Builder
	b.WriteString(filepath.Base(e.Path))
	b.WriteString(" (")
	b.WriteString(humanize.Bytes(uint64(len(e.Content))))
	if e.Mode&0o111 != 0 {
		b.WriteString(", executable")
	}
	b.WriteString(")")
	if skipped {
		b.WriteString(" [kept]")
	}
	return b.String()
}
