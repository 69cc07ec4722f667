package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_NilIsEmptyRoot(t *testing.T) {
	var s *Scope
	_, ok := s.Lookup("i")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Depth())
	assert.Empty(t, s.Vars())
	assert.Nil(t, s.Parent())
	assert.Equal(t, "", s.String())
}

func TestScope_ShadowingResolvesInnermost(t *testing.T) {
	outer := (*Scope)(nil).Bind("i", 1)
	inner := outer.Bind("i", 7)

	v, ok := inner.Lookup("i")
	require.True(t, ok)
	assert.Equal(t, int64(7), v)

	v, ok = outer.Lookup("i")
	require.True(t, ok)
	assert.Equal(t, int64(1), v, "binding a child must not touch the parent")

	assert.Equal(t, map[string]int64{"i": 7}, inner.Vars())
	assert.Same(t, outer, inner.Parent())
}

func TestScope_SiblingsDoNotAlias(t *testing.T) {
	root := (*Scope)(nil).Bind("n", 10)
	a := root.Bind("i", 0)
	b := root.Bind("i", 1)

	va, _ := a.Lookup("i")
	vb, _ := b.Lookup("i")
	assert.Equal(t, int64(0), va)
	assert.Equal(t, int64(1), vb)

	n, ok := b.Lookup("n")
	require.True(t, ok)
	assert.Equal(t, int64(10), n)
}

func TestScope_FromMapIsDeterministic(t *testing.T) {
	vars := map[string]int64{"b": 2, "a": 1, "c": 3}
	s1 := FromMap(vars)
	s2 := FromMap(vars)
	assert.Equal(t, "a=1 b=2 c=3", s1.String())
	assert.Equal(t, s1.String(), s2.String())
	assert.Equal(t, 3, s1.Depth())
}
