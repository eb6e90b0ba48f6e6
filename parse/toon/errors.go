package toon

import (
	"errors"
	"fmt"
)

type ErrorKind string

var errorKinds = struct {
	Indentation   ErrorKind
	Lex           ErrorKind
	Syntax        ErrorKind
	Semantic      ErrorKind
	ResourceLimit ErrorKind
}{
	Indentation:   "IndentationError",
	Lex:           "LexError",
	Syntax:        "SyntaxError",
	Semantic:      "SemanticError",
	ResourceLimit: "ResourceLimitError",
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
var (
	ErrIndentation   = errors.New("toon: indentation error")
	ErrLex           = errors.New("toon: lexical error")
	ErrSyntax        = errors.New("toon: syntax error")
	ErrSemantic      = errors.New("toon: semantic error")
	ErrResourceLimit = errors.New("toon: resource limit exceeded")
)

// Error is the single terminal error of a failed parse.
type Error struct {
	Kind ErrorKind
	Msg  string
	Pos  Pos
}

func (e *Error) Error() string {
	return fmt.Sprintf("toon:%d:%d: %s: %s", e.Pos.Line, e.Pos.Column, e.Kind, e.Msg)
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrIndentation:
		return e.Kind == errorKinds.Indentation
	case ErrLex:
		return e.Kind == errorKinds.Lex
	case ErrSyntax:
		return e.Kind == errorKinds.Syntax
	case ErrSemantic:
		return e.Kind == errorKinds.Semantic
	case ErrResourceLimit:
		return e.Kind == errorKinds.ResourceLimit
	}
	return false
}

func errorf(kind ErrorKind, pos Pos, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Pos: pos}
}

func indentErrf(pos Pos, format string, args ...any) *Error {
	return errorf(errorKinds.Indentation, pos, format, args...)
}

func lexErrf(pos Pos, format string, args ...any) *Error {
	return errorf(errorKinds.Lex, pos, format, args...)
}

func syntaxErrf(pos Pos, format string, args ...any) *Error {
	return errorf(errorKinds.Syntax, pos, format, args...)
}

func semanticErrf(pos Pos, format string, args ...any) *Error {
	return errorf(errorKinds.Semantic, pos, format, args...)
}
