package parser

import (
	"fmt"

	"github.com/openge/bpipe/pkgs/ast"
	"github.com/openge/bpipe/pkgs/lexer"
)

// docAttributes are the attribute names accepted inside a doc statement.
var docAttributes = map[string]bool{
	"title":       true,
	"author":      true,
	"constraints": true,
	"desc":        true,
}

// Parser implements a recursive descent parser for the bpipe pipeline
// language. It consumes comment-stripped script text; comment handling
// belongs to the script loader.
type Parser struct {
	tokens  []lexer.Token
	pos     int
	current lexer.Token
}

// Parse parses the input string into a Script. The grammar requires exactly
// one run block after the declarations; any unparsed trailing text is an
// error reporting the offset where progress stopped.
func Parse(input string) (*ast.Script, error) {
	lex := lexer.New(input)
	tokens := lex.TokenizeToSlice()

	p := &Parser{tokens: tokens}
	if len(tokens) > 0 {
		p.current = tokens[0]
	}

	return p.parseScript(input)
}

// advance moves to the next token
func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
		p.current = p.tokens[p.pos]
	}
}

// peek returns the token n positions ahead without consuming it
func (p *Parser) peek(n int) lexer.Token {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n]
	}
	return lexer.Token{Type: lexer.EOF}
}

// match checks if the current token matches any of the given types
func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.current.Type == t {
			return true
		}
	}
	return false
}

// atKeyword checks for a contextual keyword: an IDENT with the given value
func (p *Parser) atKeyword(word string) bool {
	return p.current.Type == lexer.IDENT && p.current.Value == word
}

// consume advances if the current token matches, otherwise returns an error
func (p *Parser) consume(tokenType lexer.TokenType, message string) error {
	if p.current.Type == tokenType {
		p.advance()
		return nil
	}
	return p.errorf("%s: expected %s, got %s", message, tokenType, p.current.Type)
}

// consumeKeyword advances past an IDENT with the given value
func (p *Parser) consumeKeyword(word string) error {
	if p.atKeyword(word) {
		p.advance()
		return nil
	}
	return p.errorf("expected %q, got %s", word, p.describeCurrent())
}

// errorf builds a ParseError positioned at the current token
func (p *Parser) errorf(format string, args ...interface{}) error {
	return &ParseError{
		Msg:    fmt.Sprintf(format, args...),
		Offset: p.current.Offset,
		Line:   p.current.Line,
		Column: p.current.Column,
	}
}

func (p *Parser) describeCurrent() string {
	switch p.current.Type {
	case lexer.IDENT, lexer.STRING:
		return fmt.Sprintf("%s %q", p.current.Type, p.current.Value)
	default:
		return p.current.Type.String()
	}
}

func (p *Parser) position() ast.Position {
	return ast.Position{Offset: p.current.Offset, Line: p.current.Line, Column: p.current.Column}
}

// parseScript parses: (stage-definition | var-assignment | about-block)* run-block
func (p *Parser) parseScript(source string) (*ast.Script, error) {
	script := &ast.Script{
		Source:  source,
		Globals: make(map[string]string),
	}

	for {
		switch {
		case p.current.Type == lexer.EOF:
			return nil, p.errorf("expected run block before end of script")

		case p.atKeyword("run") && p.peek(1).Type == lexer.LBRACE,
			p.atKeyword("Bpipe") && p.peek(1).Type == lexer.DOT:
			root, err := p.parseRunBlock()
			if err != nil {
				return nil, err
			}
			script.Root = root
			if p.current.Type != lexer.EOF {
				return nil, p.errorf("unexpected trailing input after run block")
			}
			return script, nil

		case p.atKeyword("about") && p.peek(1).Type == lexer.IDENT && p.peek(1).Value == "title":
			title, err := p.parseAboutBlock()
			if err != nil {
				return nil, err
			}
			script.Title = title

		case p.current.Type == lexer.IDENT && p.peek(1).Type == lexer.EQUALS && p.peek(2).Type == lexer.STRING:
			// Global variable assignment: the first assignment for a name
			// wins; later duplicates are silently ignored.
			name := p.current.Value
			p.advance()
			p.advance()
			value := p.current.Value
			p.advance()
			if _, exists := script.Globals[name]; !exists {
				script.Globals[name] = value
			}

		case p.current.Type == lexer.IDENT, p.current.Type == lexer.LBRACE, p.current.Type == lexer.AT:
			stage, err := p.parseStageGenerator()
			if err != nil {
				return nil, err
			}
			script.Stages = append(script.Stages, stage)

		default:
			return nil, p.errorf("unexpected %s at top level", p.describeCurrent())
		}

		// Each top-level definition may be semicolon-terminated
		if p.match(lexer.SEMICOLON) {
			p.advance()
		}
	}
}

// parseAboutBlock parses: about title : "text"
func (p *Parser) parseAboutBlock() (string, error) {
	if err := p.consumeKeyword("about"); err != nil {
		return "", err
	}
	if err := p.consumeKeyword("title"); err != nil {
		return "", err
	}
	if err := p.consume(lexer.COLON, "in about block"); err != nil {
		return "", err
	}
	if !p.match(lexer.STRING) {
		return "", p.errorf("expected quoted title in about block, got %s", p.describeCurrent())
	}
	title := p.current.Value
	p.advance()
	return title, nil
}

// parseStageGenerator parses a stage-block, a filter-wrapped generator, or a
// stage-assignment. Filters compose through either path.
func (p *Parser) parseStageGenerator() (*ast.Stage, error) {
	switch {
	case p.current.Type == lexer.LBRACE:
		// Distinguish { filter("name") ... } from a plain stage block
		if p.peek(1).Type == lexer.IDENT && p.peek(1).Value == "filter" && p.peek(2).Type == lexer.LPAREN {
			return p.parseBraceFilter()
		}
		return p.parseStageBlock()

	case p.current.Type == lexer.AT:
		return p.parseAtFilter()

	case p.current.Type == lexer.IDENT:
		return p.parseStageAssignment()

	default:
		return nil, p.errorf("expected stage definition, got %s", p.describeCurrent())
	}
}

// parseStageAssignment parses: identifier = stage-generator
func (p *Parser) parseStageAssignment() (*ast.Stage, error) {
	pos := p.position()
	name := p.current.Value
	p.advance()

	if err := p.consume(lexer.EQUALS, "in stage assignment"); err != nil {
		return nil, err
	}

	stage, err := p.parseStageGenerator()
	if err != nil {
		return nil, err
	}

	stage.Name = name
	if stage.Pos == (ast.Position{}) {
		stage.Pos = pos
	}
	return stage, nil
}

// parseBraceFilter parses: { filter("name") stage-generator }
func (p *Parser) parseBraceFilter() (*ast.Stage, error) {
	p.advance() // {
	p.advance() // filter
	if err := p.consume(lexer.LPAREN, "after filter"); err != nil {
		return nil, err
	}
	if !p.match(lexer.STRING) {
		return nil, p.errorf("expected quoted filter name, got %s", p.describeCurrent())
	}
	filter := p.current.Value
	p.advance()
	if err := p.consume(lexer.RPAREN, "after filter name"); err != nil {
		return nil, err
	}

	stage, err := p.parseStageGenerator()
	if err != nil {
		return nil, err
	}
	if err := p.consume(lexer.RBRACE, "after filtered stage"); err != nil {
		return nil, err
	}

	stage.Filter = filter
	return stage, nil
}

// parseAtFilter parses: @Filter("name") stage-generator
func (p *Parser) parseAtFilter() (*ast.Stage, error) {
	p.advance() // @
	if err := p.consumeKeyword("Filter"); err != nil {
		return nil, err
	}
	if err := p.consume(lexer.LPAREN, "after @Filter"); err != nil {
		return nil, err
	}
	if !p.match(lexer.STRING) {
		return nil, p.errorf("expected quoted filter name, got %s", p.describeCurrent())
	}
	filter := p.current.Value
	p.advance()
	if err := p.consume(lexer.RPAREN, "after filter name"); err != nil {
		return nil, err
	}

	stage, err := p.parseStageGenerator()
	if err != nil {
		return nil, err
	}

	stage.Filter = filter
	return stage, nil
}

// parseStageBlock parses: { (doc|msg|exec)+ [forward input [;]] }
func (p *Parser) parseStageBlock() (*ast.Stage, error) {
	stage := &ast.Stage{Pos: p.position()}
	if err := p.consume(lexer.LBRACE, "at stage block start"); err != nil {
		return nil, err
	}

	statements := 0
	for {
		switch {
		case p.atKeyword("doc"):
			if err := p.parseDocStatement(stage); err != nil {
				return nil, err
			}
			statements++

		case p.atKeyword("msg"):
			// Parsed, no executable effect
			p.advance()
			if !p.match(lexer.STRING) {
				return nil, p.errorf("expected quoted string after msg, got %s", p.describeCurrent())
			}
			p.advance()
			if p.match(lexer.SEMICOLON) {
				p.advance()
			}
			statements++

		case p.atKeyword("exec"):
			p.advance()
			if !p.match(lexer.STRING) {
				return nil, p.errorf("expected quoted command after exec, got %s", p.describeCurrent())
			}
			stage.AddExecLine(p.current.Value)
			p.advance()
			if p.match(lexer.SEMICOLON) {
				p.advance()
			}
			statements++

		case p.atKeyword("forward"):
			if statements == 0 {
				return nil, p.errorf("expected doc, msg or exec statement in stage block")
			}
			p.advance()
			if err := p.consumeKeyword("input"); err != nil {
				return nil, err
			}
			if p.match(lexer.SEMICOLON) {
				p.advance()
			}
			stage.ForwardInput = true
			if err := p.consume(lexer.RBRACE, "after forward input"); err != nil {
				return nil, err
			}
			return stage, nil

		case p.current.Type == lexer.RBRACE:
			if statements == 0 {
				return nil, p.errorf("expected doc, msg or exec statement in stage block")
			}
			p.advance()
			return stage, nil

		default:
			return nil, p.errorf("unexpected %s in stage block", p.describeCurrent())
		}
	}
}

// parseDocStatement parses: doc "text" | doc (attr : "value" [,])*
func (p *Parser) parseDocStatement(stage *ast.Stage) error {
	p.advance() // doc

	if p.match(lexer.STRING) {
		stage.SetDoc("desc", p.current.Value)
		p.advance()
		return nil
	}

	for p.current.Type == lexer.IDENT && docAttributes[p.current.Value] && p.peek(1).Type == lexer.COLON {
		attr := p.current.Value
		p.advance()
		p.advance() // :
		if !p.match(lexer.STRING) {
			return p.errorf("expected quoted value for doc attribute %q, got %s", attr, p.describeCurrent())
		}
		stage.SetDoc(attr, p.current.Value)
		p.advance()
		if p.match(lexer.COMMA) {
			p.advance()
		}
	}
	return nil
}

// parseRunBlock parses: (run | Bpipe.run) { serial-queue }
func (p *Parser) parseRunBlock() (ast.Node, error) {
	if p.atKeyword("Bpipe") {
		p.advance()
		if err := p.consume(lexer.DOT, "after Bpipe"); err != nil {
			return nil, err
		}
	}
	if err := p.consumeKeyword("run"); err != nil {
		return nil, err
	}
	if err := p.consume(lexer.LBRACE, "at run block start"); err != nil {
		return nil, err
	}

	root, err := p.parseSerialQueue()
	if err != nil {
		return nil, err
	}

	if err := p.consume(lexer.RBRACE, "at run block end"); err != nil {
		return nil, err
	}
	return root, nil
}

// parseSerialQueue parses: operand (+ operand)*, left-folded into nested
// Serial nodes. A lone operand is returned as itself.
func (p *Parser) parseSerialQueue() (ast.Node, error) {
	left, err := p.parseSerialOperand()
	if err != nil {
		return nil, err
	}

	for p.match(lexer.PLUS) {
		p.advance()
		right, err := p.parseSerialOperand()
		if err != nil {
			return nil, err
		}
		left = &ast.Serial{Left: left, Right: right}
	}
	return left, nil
}

// parseSerialOperand parses a parallel-queue or a stage-reference
func (p *Parser) parseSerialOperand() (ast.Node, error) {
	if p.match(lexer.LBRACKET) {
		return p.parseParallelQueue()
	}
	if p.match(lexer.IDENT) {
		ref := &ast.StageRef{Name: p.current.Value, Pos: p.position()}
		p.advance()
		return ref, nil
	}
	return nil, p.errorf("expected stage reference or '[', got %s", p.describeCurrent())
}

// parseParallelQueue parses: [ queue (, queue)* ], left-folded into nested
// Parallel nodes. Each queue is itself a serial-queue so forms like
// [a+b, c] nest arbitrarily.
func (p *Parser) parseParallelQueue() (ast.Node, error) {
	if err := p.consume(lexer.LBRACKET, "at parallel queue start"); err != nil {
		return nil, err
	}

	left, err := p.parseSerialQueue()
	if err != nil {
		return nil, err
	}

	for p.match(lexer.COMMA) {
		p.advance()
		right, err := p.parseSerialQueue()
		if err != nil {
			return nil, err
		}
		left = &ast.Parallel{Left: left, Right: right}
	}

	if err := p.consume(lexer.RBRACKET, "at parallel queue end"); err != nil {
		return nil, err
	}
	return left, nil
}
