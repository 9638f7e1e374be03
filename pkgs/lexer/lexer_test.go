package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBasicTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{
			input:    `sort = { exec "samtools sort $input" }`,
			expected: []TokenType{IDENT, EQUALS, LBRACE, IDENT, STRING, RBRACE, EOF},
		},
		{
			input:    "run { a + b }",
			expected: []TokenType{IDENT, LBRACE, IDENT, PLUS, IDENT, RBRACE, EOF},
		},
		{
			input:    "run { [a, b] + c }",
			expected: []TokenType{IDENT, LBRACE, LBRACKET, IDENT, COMMA, IDENT, RBRACKET, PLUS, IDENT, RBRACE, EOF},
		},
		{
			input:    "Bpipe.run { a }",
			expected: []TokenType{IDENT, DOT, IDENT, LBRACE, IDENT, RBRACE, EOF},
		},
		{
			input:    `platform = "illumina";`,
			expected: []TokenType{IDENT, EQUALS, STRING, SEMICOLON, EOF},
		},
		{
			input:    `@Filter("dedup") { exec "x" }`,
			expected: []TokenType{AT, IDENT, LPAREN, STRING, RPAREN, LBRACE, IDENT, STRING, RBRACE, EOF},
		},
		{
			input:    `about title : "pipeline"`,
			expected: []TokenType{IDENT, IDENT, COLON, STRING, EOF},
		},
	}

	for _, test := range tests {
		lex := New(test.input)
		var got []TokenType
		for _, tok := range lex.TokenizeToSlice() {
			got = append(got, tok.Type)
		}
		if diff := cmp.Diff(test.expected, got); diff != "" {
			t.Errorf("input %q: token mismatch (-want +got):\n%s", test.input, diff)
		}
	}
}

func TestIdentifierEscapes(t *testing.T) {
	tests := []struct {
		input string
		value string
		raw   string
	}{
		{`sort1`, "sort1", "sort1"},
		{`a\"b`, `a"b`, `a\"b`},
		{`a\\b`, `a\b`, `a\\b`},
	}

	for _, test := range tests {
		tok := New(test.input).NextToken()
		if tok.Type != IDENT {
			t.Errorf("input %q: expected IDENT, got %s", test.input, tok.Type)
			continue
		}
		if tok.Value != test.value {
			t.Errorf("input %q: value = %q, want %q", test.input, tok.Value, test.value)
		}
		if tok.Raw != test.raw {
			t.Errorf("input %q: raw = %q, want %q", test.input, tok.Raw, test.raw)
		}
	}
}

func TestUnderscoreIsNotAnIdentifierCharacter(t *testing.T) {
	// Bare identifiers accept only alphanumerics and the two escapes;
	// underscores belong to the variable-reference character class used
	// during substitution, which is wider on purpose.
	lex := New("my_stage")
	tokens := lex.TokenizeToSlice()

	wantTypes := []TokenType{IDENT, ILLEGAL, IDENT, EOF}
	var got []TokenType
	for _, tok := range tokens {
		got = append(got, tok.Type)
	}
	if diff := cmp.Diff(wantTypes, got); diff != "" {
		t.Fatalf("token mismatch (-want +got):\n%s", diff)
	}
	if tokens[0].Value != "my" || tokens[2].Value != "stage" {
		t.Errorf("identifier values = %q, %q; want my, stage", tokens[0].Value, tokens[2].Value)
	}

	if !IsVarNameChar('_') {
		t.Error("IsVarNameChar('_') = false, want true")
	}
}

func TestStringBodyIsVerbatim(t *testing.T) {
	tok := New(`"samtools view -bS $input > ${output}"`).NextToken()
	if tok.Type != STRING {
		t.Fatalf("expected STRING, got %s", tok.Type)
	}
	want := "samtools view -bS $input > ${output}"
	if tok.Value != want {
		t.Errorf("value = %q, want %q", tok.Value, want)
	}
}

func TestUnterminatedString(t *testing.T) {
	tok := New(`"no closing quote`).NextToken()
	if tok.Type != ILLEGAL {
		t.Errorf("expected ILLEGAL for unterminated string, got %s", tok.Type)
	}
}

func TestTokenOffsets(t *testing.T) {
	input := "a = { }"
	tokens := New(input).TokenizeToSlice()

	wantOffsets := []int{0, 2, 4, 6, 7}
	if len(tokens) != len(wantOffsets) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(wantOffsets))
	}
	for i, tok := range tokens {
		if tok.Offset != wantOffsets[i] {
			t.Errorf("token %d (%s): offset = %d, want %d", i, tok.Type, tok.Offset, wantOffsets[i])
		}
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	input := "a\n  b"
	tokens := New(input).TokenizeToSlice()

	if tokens[0].Line != 1 || tokens[0].Column != 1 {
		t.Errorf("token a at %d:%d, want 1:1", tokens[0].Line, tokens[0].Column)
	}
	if tokens[1].Line != 2 || tokens[1].Column != 3 {
		t.Errorf("token b at %d:%d, want 2:3", tokens[1].Line, tokens[1].Column)
	}
}
