package subst

import (
	"testing"

	"github.com/agentic-research/fsbuild/api"
	"github.com/agentic-research/fsbuild/internal/scope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstitute(t *testing.T) {
	sc := scope.FromMap(map[string]int64{"i": 3, "j": 12, "neg": -5})

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"no references", "plain text", "plain text"},
		{"single", "test${i}.cpp", "test3.cpp"},
		{"multiple", "${i}_${j}", "3_12"},
		{"whitespace in braces", "v${ i }", "v3"},
		{"negative", "${neg}", "-5"},
		{"lone dollar", "cost: $5 ${i}", "cost: $5 3"},
		{"escape", "$${i} is ${i}", "${i} is 3"},
		{"trailing dollar", "x$", "x$"},
		{"multiline body", "int f${i}() {\n  return ${j};\n}\n", "int f3() {\n  return 12;\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Substitute(tt.template, sc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubstitute_Shadowing(t *testing.T) {
	sc := (*scope.Scope)(nil).Bind("i", 1).Bind("i", 2)
	got, err := Substitute("${i}", sc)
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestSubstitute_UnboundIsHardError(t *testing.T) {
	_, err := Substitute("file${k}.txt", scope.FromMap(map[string]int64{"i": 0}))
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnboundVariable)
	assert.Contains(t, err.Error(), "k")
}

func TestSubstitute_InvalidTemplates(t *testing.T) {
	for _, tmpl := range []string{"${i", "${}", "${i+1}", "${ 9x }"} {
		_, err := Substitute(tmpl, scope.FromMap(map[string]int64{"i": 0}))
		assert.ErrorIs(t, err, api.ErrInvalidTemplate, tmpl)
	}
}

func TestSubstitute_NoRecursiveExpansion(t *testing.T) {
	// The escaped literal must survive a single pass untouched.
	got, err := Substitute("$${${i}}", scope.FromMap(map[string]int64{"i": 7}))
	require.NoError(t, err)
	assert.Equal(t, "${7}", got)
}

func TestSubstitute_Deterministic(t *testing.T) {
	sc := scope.FromMap(map[string]int64{"a": 1, "b": 2})
	first, err := Substitute("${a}-${b}-${a}", sc)
	require.NoError(t, err)
	second, err := Substitute("${a}-${b}-${a}", sc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReferences(t *testing.T) {
	names, err := References("${b}/${a}/${b} $${c}")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, names)

	_, err = References("${")
	assert.ErrorIs(t, err, api.ErrInvalidTemplate)
}
