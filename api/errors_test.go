package api

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("build: %w", &Error{Op: "subst", Kind: KindUnboundVariable, Err: errors.New(`"i" is not bound`)})

	assert.ErrorIs(t, err, ErrUnboundVariable)
	assert.NotErrorIs(t, err, ErrLoopBound)
	assert.True(t, IsKind(err, KindUnboundVariable))
	assert.Equal(t, KindUnboundVariable, KindOf(err))
}

func TestError_UnwrapsCause(t *testing.T) {
	err := &Error{Op: "sink.write", Kind: KindPermission, Path: "src/a", Err: fs.ErrPermission}
	assert.ErrorIs(t, err, ErrPermission)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Equal(t, "sink.write: permission (path=src/a): permission denied", err.Error())
}

func TestKindOf_PlainErrorIsIO(t *testing.T) {
	assert.Equal(t, KindIO, KindOf(errors.New("disk on fire")))
	assert.False(t, IsKind(nil, KindIO))
}

func TestAnnotate(t *testing.T) {
	assert.NoError(t, Annotate(nil, "op", "p", "d"))

	inner := &Error{Op: "loop", Kind: KindLoopBound, Decl: "for [i = 0; i < 9; i++]"}
	got := Annotate(inner, "materialize", "src", "file \"x\"")
	var e *Error
	assert.ErrorAs(t, got, &e)
	assert.Equal(t, "src", e.Path)
	assert.Equal(t, "for [i = 0; i < 9; i++]", e.Decl, "existing declaration is kept")
	assert.Empty(t, inner.Path, "the input error is left unchanged")

	plain := Annotate(errors.New("boom"), "materialize", "src", "folder \"a\"")
	assert.ErrorIs(t, plain, ErrIO)
	assert.Contains(t, plain.Error(), "(at folder \"a\")")
}
