package lexer

import "strings"

// Character classification lookup tables for fast scanning
var (
	isWhitespace [256]bool
	isAlnum      [256]bool
	isVarName    [256]bool
)

func init() {
	for i := 0; i < 256; i++ {
		ch := byte(i)
		isWhitespace[i] = ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f' || ch == '\v'
		isAlnum[i] = ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ('0' <= ch && ch <= '9')
		// Variable reference names are a wider class than bare identifiers:
		// the substitution scanner accepts '_' while the identifier rule
		// does not. Two token classes, kept distinct on purpose.
		isVarName[i] = isAlnum[i] || ch == '_'
	}
}

// IsVarNameChar reports whether ch may appear in a $VAR reference name.
// Exposed for the engine's substitution scanner so both sides agree on the
// character class.
func IsVarNameChar(ch byte) bool {
	return isVarName[ch]
}

// Lexer tokenizes bpipe script text. The input is expected to be
// comment-stripped already; the script loader owns comment handling.
type Lexer struct {
	input  []byte
	pos    int
	line   int
	column int
}

// New creates a new lexer instance
func New(input string) *Lexer {
	return &Lexer{
		input:  []byte(input),
		line:   1,
		column: 1,
	}
}

// TokenizeToSlice tokenizes the whole input, ending with an EOF token.
func (l *Lexer) TokenizeToSlice() []Token {
	estimated := len(l.input) / 4
	if estimated < 16 {
		estimated = 16
	}
	result := make([]Token, 0, estimated)

	for {
		tok := l.NextToken()
		result = append(result, tok)
		if tok.Type == EOF {
			break
		}
	}

	return result
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: EOF, Offset: len(l.input), Line: l.line, Column: l.column}
	}

	ch := l.input[l.pos]
	tok := Token{Offset: l.pos, Line: l.line, Column: l.column}

	switch ch {
	case '{':
		tok.Type = LBRACE
	case '}':
		tok.Type = RBRACE
	case '[':
		tok.Type = LBRACKET
	case ']':
		tok.Type = RBRACKET
	case '(':
		tok.Type = LPAREN
	case ')':
		tok.Type = RPAREN
	case '+':
		tok.Type = PLUS
	case ',':
		tok.Type = COMMA
	case '=':
		tok.Type = EQUALS
	case ':':
		tok.Type = COLON
	case ';':
		tok.Type = SEMICOLON
	case '@':
		tok.Type = AT
	case '.':
		tok.Type = DOT
	case '"':
		return l.lexString()
	default:
		if isAlnum[ch] || (ch == '\\' && l.escapeFollows()) {
			return l.lexIdentifier()
		}
		tok.Type = ILLEGAL
	}

	tok.Value = string(ch)
	tok.Raw = tok.Value
	l.advance()
	return tok
}

// lexString scans a quoted string. The body is taken verbatim up to the
// closing quote: the grammar defines no escape sequences inside strings, so
// a command template cannot itself contain a double quote.
func (l *Lexer) lexString() Token {
	tok := Token{Type: STRING, Offset: l.pos, Line: l.line, Column: l.column}
	start := l.pos
	l.advance() // consume opening quote

	bodyStart := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '"' {
		l.advance()
	}

	if l.pos >= len(l.input) {
		// Unterminated string
		tok.Type = ILLEGAL
		tok.Raw = string(l.input[start:])
		tok.Value = tok.Raw
		return tok
	}

	tok.Value = string(l.input[bodyStart:l.pos])
	l.advance() // consume closing quote
	tok.Raw = string(l.input[start:l.pos])
	return tok
}

// lexIdentifier scans a bare identifier: one or more alphanumerics or the
// two-character escapes \" and \\ (which decode to '"' and '\'). Underscores
// are not part of this rule.
func (l *Lexer) lexIdentifier() Token {
	tok := Token{Type: IDENT, Offset: l.pos, Line: l.line, Column: l.column}
	start := l.pos
	var decoded strings.Builder

	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if isAlnum[ch] {
			decoded.WriteByte(ch)
			l.advance()
			continue
		}
		if ch == '\\' && l.escapeFollows() {
			decoded.WriteByte(l.input[l.pos+1])
			l.advance()
			l.advance()
			continue
		}
		break
	}

	tok.Value = decoded.String()
	tok.Raw = string(l.input[start:l.pos])
	return tok
}

// escapeFollows reports whether the current backslash starts a \" or \\
// escape.
func (l *Lexer) escapeFollows() bool {
	if l.pos+1 >= len(l.input) {
		return false
	}
	next := l.input[l.pos+1]
	return next == '"' || next == '\\'
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && isWhitespace[l.input[l.pos]] {
		l.advance()
	}
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.pos++
	}
}
