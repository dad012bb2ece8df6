// Package script implements the hand-written JS-subset lexer, parser, and
// tree-walking evaluator spec.md §4.3 (C3) names as the subject of this
// runtime: not a bridge to a real JS engine, but a parser and evaluator for
// a deliberately bounded language subset. The lexer/parser shape (token
// stream, recursive-descent statements, Pratt-style expression precedence)
// follows the conventional structure every hand-rolled interpreter in the
// Go ecosystem uses; none of the example repos carry a JS frontend of their
// own (the teacher bridges to a real VM instead), so this package is
// original construction grounded directly in spec.md's grammar rather than
// ported from any one file.
package script

// TokenKind enumerates every lexical token the supported grammar produces.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokNumber
	TokBigInt
	TokString
	TokTemplateString
	TokIdent
	TokKeyword
	TokPunct
	TokRegex
)

// Token is one lexed unit with its source position for error messages.
type Token struct {
	Kind    TokenKind
	Literal string
	Line    int
	Col     int
}

var keywords = map[string]bool{
	"var": true, "let": true, "const": true, "function": true, "return": true,
	"if": true, "else": true, "for": true, "while": true, "do": true,
	"break": true, "continue": true, "switch": true, "case": true, "default": true,
	"true": true, "false": true, "null": true, "undefined": true,
	"new": true, "delete": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"this": true, "throw": true, "try": true, "catch": true, "finally": true,
	"async": true, "await": true, "function*": true, "yield": true,
	"class": true, "extends": true, "super": true, "static": true,
	"void": true,
}

func isKeyword(s string) bool { return keywords[s] }
