package parser

import "fmt"

// ParseError reports a grammar mismatch or trailing unparsed input.
//
// Offset is the byte offset of the furthest token the parser reached before
// stopping; it comes from the parser's own progress through the token
// stream, not from any recomputation over the text.
type ParseError struct {
	Msg    string
	Offset int
	Line   int
	Column int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d (offset %d): %s",
		e.Line, e.Column, e.Offset, e.Msg)
}
