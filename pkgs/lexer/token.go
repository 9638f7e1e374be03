package lexer

import "fmt"

// TokenType represents the type of token in a bpipe script.
//
// The bpipe surface is small: identifiers, quoted strings, and a handful of
// structural characters. Keywords (run, exec, msg, doc, about, filter,
// forward, input) are contextual and are lexed as IDENT; the parser decides
// their meaning from position.
type TokenType int

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	IDENT  // stage names, variable names, contextual keywords
	STRING // "..." quoted command templates and values

	// Structural tokens
	LBRACE    // { - stage block / run block start
	RBRACE    // } - block end
	LBRACKET  // [ - parallel queue start
	RBRACKET  // ] - parallel queue end
	LPAREN    // ( - filter argument start
	RPAREN    // ) - filter argument end
	PLUS      // + - serial composition
	COMMA     // , - parallel separator, doc attribute separator
	EQUALS    // = - stage and variable assignment
	COLON     // : - doc/about attribute separator
	SEMICOLON // ; - optional statement terminator
	AT        // @ - @Filter decorator prefix
	DOT       // . - Bpipe.run qualifier
)

// Pre-computed token name lookup for fast debugging
var tokenNames = [...]string{
	EOF:       "EOF",
	ILLEGAL:   "ILLEGAL",
	IDENT:     "IDENT",
	STRING:    "STRING",
	LBRACE:    "LBRACE",
	RBRACE:    "RBRACE",
	LBRACKET:  "LBRACKET",
	RBRACKET:  "RBRACKET",
	LPAREN:    "LPAREN",
	RPAREN:    "RPAREN",
	PLUS:      "PLUS",
	COMMA:     "COMMA",
	EQUALS:    "EQUALS",
	COLON:     "COLON",
	SEMICOLON: "SEMICOLON",
	AT:        "AT",
	DOT:       "DOT",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) && int(t) >= 0 {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token represents a single token with position information.
//
// Offset is the byte offset of the token's first character in the
// comment-stripped script text; parse failures report the offset of the
// token at which progress stopped.
type Token struct {
	Type   TokenType
	Value  string // decoded content: identifier escapes resolved, string quotes removed
	Raw    string // raw source text, including quotes and escapes
	Offset int
	Line   int
	Column int
}

// Position returns a formatted position string for error reporting
func (t Token) Position() string {
	return fmt.Sprintf("%d:%d", t.Line, t.Column)
}
