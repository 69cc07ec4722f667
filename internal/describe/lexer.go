package describe

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokPunct
	// tokHeader is the raw text between '[' and ']' of a loop header.
	tokHeader
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokNumber:
		return "number"
	case tokPunct:
		return "punctuation"
	case tokHeader:
		return "loop header"
	}
	return "token"
}

// Pos is a 1-based line and column in a source file.
type Pos struct {
	Line, Col int
}

type token struct {
	kind tokenKind
	text string
	pos  Pos
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return t.kind.String()
	case tokString:
		return fmt.Sprintf("string %q", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// SyntaxError reports a malformed fsb source.
type SyntaxError struct {
	File string
	Pos  Pos
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Pos.Line, e.Pos.Col, e.Msg)
}

type lexer struct {
	file string
	src  string
	off  int
	line int
	col  int
}

func newLexer(file, src string) *lexer {
	return &lexer{file: file, src: src, line: 1, col: 1}
}

func (l *lexer) errorf(pos Pos, format string, args ...any) error {
	return &SyntaxError{File: l.file, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) peekRune() rune {
	if l.off >= len(l.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return r
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) pos() Pos { return Pos{Line: l.line, Col: l.col} }

// skip consumes whitespace and '#' comments.
func (l *lexer) skip() {
	for l.off < len(l.src) {
		r := l.peekRune()
		switch {
		case r == '#':
			for l.off < len(l.src) && l.peekRune() != '\n' {
				l.advance()
			}
		case unicode.IsSpace(r):
			l.advance()
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skip()
	start := l.pos()
	if l.off >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	r := l.peekRune()
	switch {
	case r == '"':
		return l.str(start)
	case r == '[':
		return l.header(start)
	case isDigit(r) || r == '-':
		return l.number(start)
	case r == '_' || unicode.IsLetter(r):
		begin := l.off
		for r := l.peekRune(); r == '_' || unicode.IsLetter(r) || isDigit(r); r = l.peekRune() {
			l.advance()
		}
		return token{kind: tokIdent, text: l.src[begin:l.off], pos: start}, nil
	case strings.ContainsRune("(){},=", r):
		l.advance()
		return token{kind: tokPunct, text: string(r), pos: start}, nil
	case r == '<' || r == '>':
		// Only the stream operators << and >> exist.
		l.advance()
		if l.peekRune() != r {
			return token{}, l.errorf(start, "unexpected character %q", r)
		}
		l.advance()
		return token{kind: tokPunct, text: string(r) + string(r), pos: start}, nil
	}
	return token{}, l.errorf(start, "unexpected character %q", r)
}

func (l *lexer) number(start Pos) (token, error) {
	begin := l.off
	if l.peekRune() == '-' {
		l.advance()
	}
	if !isDigit(l.peekRune()) {
		return token{}, l.errorf(start, "expected digit after '-'")
	}
	for isDigit(l.peekRune()) {
		l.advance()
	}
	return token{kind: tokNumber, text: l.src[begin:l.off], pos: start}, nil
}

// str reads a double-quoted string. Strings may span lines. The escapes
// \n \t \r \" and \\ are decoded; any other backslash is kept as is.
func (l *lexer) str(start Pos) (token, error) {
	l.advance()
	var b strings.Builder
	for {
		if l.off >= len(l.src) {
			return token{}, l.errorf(start, "unterminated string")
		}
		r := l.advance()
		switch r {
		case '"':
			return token{kind: tokString, text: b.String(), pos: start}, nil
		case '\\':
			if l.off >= len(l.src) {
				return token{}, l.errorf(start, "unterminated string")
			}
			switch e := l.advance(); e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"', '\\':
				b.WriteRune(e)
			default:
				b.WriteByte('\\')
				b.WriteRune(e)
			}
		default:
			b.WriteRune(r)
		}
	}
}

func (l *lexer) header(start Pos) (token, error) {
	l.advance()
	begin := l.off
	for {
		if l.off >= len(l.src) {
			return token{}, l.errorf(start, "unterminated loop header, missing ']'")
		}
		if l.peekRune() == ']' {
			text := l.src[begin:l.off]
			l.advance()
			return token{kind: tokHeader, text: text, pos: start}, nil
		}
		l.advance()
	}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
