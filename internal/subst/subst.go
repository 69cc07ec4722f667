// Package subst replaces ${name} references in file names and bodies with
// the integer bound to name in a scope.
package subst

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agentic-research/fsbuild/api"
	"github.com/agentic-research/fsbuild/internal/scope"
)

// Substitute resolves every ${name} reference in template against sc.
//
// Whitespace inside the braces is ignored, "$${" produces a literal "${",
// and a "$" not followed by "{" is copied as is. Substituted values are
// never re-scanned. A reference to a name with no binding is a hard error.
func Substitute(template string, sc *scope.Scope) (string, error) {
	// Fast path: no token start.
	if !strings.Contains(template, "${") {
		return template, nil
	}

	var b strings.Builder
	b.Grow(len(template) + 16)

	err := scan(template, func(lit string, name string) error {
		b.WriteString(lit)
		if name == "" {
			return nil
		}
		v, ok := sc.Lookup(name)
		if !ok {
			return &api.Error{
				Op:   "subst",
				Kind: api.KindUnboundVariable,
				Err:  fmt.Errorf("unbound variable: %s", name),
			}
		}
		b.WriteString(strconv.FormatInt(v, 10))
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// References returns the names referenced by template, in order of first
// appearance.
func References(template string) ([]string, error) {
	var names []string
	seen := map[string]bool{}
	err := scan(template, func(_ string, name string) error {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return nil
	})
	return names, err
}

// scan splits s into literal runs and references, calling emit for each
// reference with the literal text preceding it, and once more with the
// trailing literal and an empty name.
func scan(s string, emit func(lit, name string) error) error {
	var lit strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '$' {
			lit.WriteByte(s[i])
			i++
			continue
		}
		// Escape: "$${" -> "${"
		if strings.HasPrefix(s[i:], "$${") {
			lit.WriteString("${")
			i += 3
			continue
		}
		if !strings.HasPrefix(s[i:], "${") {
			lit.WriteByte('$')
			i++
			continue
		}

		start := i + 2
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			return &api.Error{Op: "subst", Kind: api.KindInvalidTemplate, Err: errors.New("unclosed reference")}
		}
		end += start

		name := strings.TrimSpace(s[start:end])
		if !api.IsIdent(name) {
			return &api.Error{
				Op:   "subst",
				Kind: api.KindInvalidTemplate,
				Err:  fmt.Errorf("invalid reference ${%s}", s[start:end]),
			}
		}
		if err := emit(lit.String(), name); err != nil {
			return err
		}
		lit.Reset()
		i = end + 1
	}
	return emit(lit.String(), "")
}
