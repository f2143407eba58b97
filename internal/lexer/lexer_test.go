package lexer

import (
	"testing"

	"github.com/culebra-lang/culebra/internal/errors"
	"github.com/culebra-lang/culebra/internal/token"
)

func TestLexerBasicTokens(t *testing.T) {
	input := "+ - * / = == != < <= > >= ( ) [ ] { } , . : ;\n"

	expected := []token.TokenType{
		token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.ASSIGN, token.EQ, token.NE,
		token.LT, token.LE, token.GT, token.GE,
		token.LPAREN, token.RPAREN, token.LBRACKET, token.RBRACKET,
		token.LBRACE, token.RBRACE,
		token.COMMA, token.DOT, token.COLON, token.SEMICOLON,
		token.NEWLINE,
		token.EOF,
	}

	l := New(input, "test.cb")
	tokens := l.ScanTokens()

	if l.HasErrors() {
		t.Fatalf("unexpected lexer errors: %v", l.Errors())
	}
	if len(tokens) != len(expected) {
		t.Fatalf("token count mismatch: got %d, want %d", len(tokens), len(expected))
	}

	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] type mismatch: got %s, want %s", i, tok.Type, expected[i])
		}
	}
}

func TestLexerKeywords(t *testing.T) {
	input := "if elif else while for def return and or not true false\n"

	expected := []token.TokenType{
		token.IF, token.ELIF, token.ELSE, token.WHILE, token.FOR,
		token.DEF, token.RETURN, token.AND, token.OR, token.NOT,
		token.TRUE, token.FALSE,
		token.NEWLINE,
		token.EOF,
	}

	l := New(input, "test.cb")
	tokens := l.ScanTokens()

	if len(tokens) != len(expected) {
		t.Fatalf("token count mismatch: got %d, want %d", len(tokens), len(expected))
	}

	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] type mismatch: got %s, want %s (literal: %s)",
				i, tok.Type, expected[i], tok.Literal)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input   string
		tokType token.TokenType
		literal string
	}{
		{"123", token.INT, "123"},
		{"0", token.INT, "0"},
		{"3.14", token.FLOAT, "3.14"},
		{"0.5", token.FLOAT, "0.5"},
	}

	for _, tt := range tests {
		l := New(tt.input, "test.cb")
		tokens := l.ScanTokens()

		if l.HasErrors() {
			t.Fatalf("input %q: unexpected errors: %v", tt.input, l.Errors())
		}
		if tokens[0].Type != tt.tokType {
			t.Errorf("input %q: type mismatch: got %s, want %s", tt.input, tokens[0].Type, tt.tokType)
		}
		if tokens[0].Literal != tt.literal {
			t.Errorf("input %q: literal mismatch: got %s, want %s", tt.input, tokens[0].Literal, tt.literal)
		}
	}
}

func TestLexerFloatRequiresDigitsBothSides(t *testing.T) {
	// "1." 不是浮点数：点号两侧都必须有数字
	l := New("1.x", "test.cb")
	tokens := l.ScanTokens()

	expected := []token.TokenType{token.INT, token.DOT, token.IDENT, token.NEWLINE, token.EOF}
	if len(tokens) != len(expected) {
		t.Fatalf("token count mismatch: got %d, want %d", len(tokens), len(expected))
	}
	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] type mismatch: got %s, want %s", i, tok.Type, expected[i])
		}
	}
}

func TestLexerInvalidIdentifier(t *testing.T) {
	l := New("123abc", "test.cb")
	l.ScanTokens()

	if !l.HasErrors() {
		t.Fatal("expected lexer error for digit-leading identifier")
	}
	if l.Errors()[0].Kind != errors.SyntaxError {
		t.Errorf("error kind mismatch: got %s, want SyntaxError", l.Errors()[0].Kind)
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hello"`, "hello"},
		{`""`, ""},
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"quote\"inside"`, `quote"inside`},
		{`"back\\slash"`, `back\slash`},
	}

	for _, tt := range tests {
		l := New(tt.input, "test.cb")
		tokens := l.ScanTokens()

		if l.HasErrors() {
			t.Fatalf("input %q: unexpected errors: %v", tt.input, l.Errors())
		}
		if tokens[0].Type != token.STRING {
			t.Fatalf("input %q: type mismatch: got %s, want STRING", tt.input, tokens[0].Type)
		}
		if tokens[0].Literal != tt.want {
			t.Errorf("input %q: literal mismatch: got %q, want %q", tt.input, tokens[0].Literal, tt.want)
		}
	}
}

func TestLexerTripleString(t *testing.T) {
	input := "s = \"\"\"line1\nline2\"\"\"\n"

	l := New(input, "test.cb")
	tokens := l.ScanTokens()

	if l.HasErrors() {
		t.Fatalf("unexpected lexer errors: %v", l.Errors())
	}
	if tokens[2].Type != token.STRING {
		t.Fatalf("token[2] type mismatch: got %s, want STRING", tokens[2].Type)
	}
	if tokens[2].Literal != "line1\nline2" {
		t.Errorf("literal mismatch: got %q, want %q", tokens[2].Literal, "line1\nline2")
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	l := New(`"abc`, "test.cb")
	l.ScanTokens()

	if !l.HasErrors() {
		t.Fatal("expected lexer error for unterminated string")
	}
}

func TestLexerIndentDedent(t *testing.T) {
	input := "if true:\n    print(1)\nprint(2)\n"

	expected := []token.TokenType{
		token.IF, token.TRUE, token.COLON, token.NEWLINE,
		token.INDENT, token.IDENT, token.LPAREN, token.INT, token.RPAREN, token.NEWLINE,
		token.DEDENT, token.IDENT, token.LPAREN, token.INT, token.RPAREN, token.NEWLINE,
		token.EOF,
	}

	l := New(input, "test.cb")
	tokens := l.ScanTokens()

	if l.HasErrors() {
		t.Fatalf("unexpected lexer errors: %v", l.Errors())
	}
	if len(tokens) != len(expected) {
		t.Fatalf("token count mismatch: got %d, want %d", len(tokens), len(expected))
	}
	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] type mismatch: got %s, want %s", i, tok.Type, expected[i])
		}
	}
}

func TestLexerNestedBlocks(t *testing.T) {
	input := "def f():\n    if x:\n        return 1\n    return 2\n"

	expected := []token.TokenType{
		token.DEF, token.IDENT, token.LPAREN, token.RPAREN, token.COLON, token.NEWLINE,
		token.INDENT, token.IF, token.IDENT, token.COLON, token.NEWLINE,
		token.INDENT, token.RETURN, token.INT, token.NEWLINE,
		token.DEDENT, token.RETURN, token.INT, token.NEWLINE,
		token.DEDENT,
		token.EOF,
	}

	l := New(input, "test.cb")
	tokens := l.ScanTokens()

	if l.HasErrors() {
		t.Fatalf("unexpected lexer errors: %v", l.Errors())
	}
	if len(tokens) != len(expected) {
		t.Fatalf("token count mismatch: got %d, want %d", len(tokens), len(expected))
	}
	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] type mismatch: got %s, want %s", i, tok.Type, expected[i])
		}
	}
}

func TestLexerTabIndent(t *testing.T) {
	input := "while x:\n\tx = x - 1\n"

	expected := []token.TokenType{
		token.WHILE, token.IDENT, token.COLON, token.NEWLINE,
		token.INDENT, token.IDENT, token.ASSIGN, token.IDENT, token.MINUS, token.INT, token.NEWLINE,
		token.DEDENT,
		token.EOF,
	}

	l := New(input, "test.cb")
	tokens := l.ScanTokens()

	if l.HasErrors() {
		t.Fatalf("unexpected lexer errors: %v", l.Errors())
	}
	if len(tokens) != len(expected) {
		t.Fatalf("token count mismatch: got %d, want %d", len(tokens), len(expected))
	}
	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] type mismatch: got %s, want %s", i, tok.Type, expected[i])
		}
	}
}

func TestLexerBlankAndCommentLines(t *testing.T) {
	input := "a = 1\n\n# comment line\nb = 2\n"

	expected := []token.TokenType{
		token.IDENT, token.ASSIGN, token.INT, token.NEWLINE,
		token.IDENT, token.ASSIGN, token.INT, token.NEWLINE,
		token.EOF,
	}

	l := New(input, "test.cb")
	tokens := l.ScanTokens()

	if l.HasErrors() {
		t.Fatalf("unexpected lexer errors: %v", l.Errors())
	}
	if len(tokens) != len(expected) {
		t.Fatalf("token count mismatch: got %d, want %d", len(tokens), len(expected))
	}
	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] type mismatch: got %s, want %s", i, tok.Type, expected[i])
		}
	}
}

func TestLexerTrailingComment(t *testing.T) {
	input := "a = 1  # trailing\n"

	expected := []token.TokenType{
		token.IDENT, token.ASSIGN, token.INT, token.NEWLINE,
		token.EOF,
	}

	l := New(input, "test.cb")
	tokens := l.ScanTokens()

	if len(tokens) != len(expected) {
		t.Fatalf("token count mismatch: got %d, want %d", len(tokens), len(expected))
	}
	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] type mismatch: got %s, want %s", i, tok.Type, expected[i])
		}
	}
}

func TestLexerBracketsSuppressNewline(t *testing.T) {
	input := "a = [1,\n     2]\n"

	expected := []token.TokenType{
		token.IDENT, token.ASSIGN, token.LBRACKET, token.INT, token.COMMA,
		token.INT, token.RBRACKET, token.NEWLINE,
		token.EOF,
	}

	l := New(input, "test.cb")
	tokens := l.ScanTokens()

	if l.HasErrors() {
		t.Fatalf("unexpected lexer errors: %v", l.Errors())
	}
	if len(tokens) != len(expected) {
		t.Fatalf("token count mismatch: got %d, want %d", len(tokens), len(expected))
	}
	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] type mismatch: got %s, want %s", i, tok.Type, expected[i])
		}
	}
}

func TestLexerMissingTrailingNewline(t *testing.T) {
	input := "a = 1"

	expected := []token.TokenType{
		token.IDENT, token.ASSIGN, token.INT, token.NEWLINE,
		token.EOF,
	}

	l := New(input, "test.cb")
	tokens := l.ScanTokens()

	if len(tokens) != len(expected) {
		t.Fatalf("token count mismatch: got %d, want %d", len(tokens), len(expected))
	}
	for i, tok := range tokens {
		if tok.Type != expected[i] {
			t.Errorf("token[%d] type mismatch: got %s, want %s", i, tok.Type, expected[i])
		}
	}
}

func TestLexerIndentationMismatch(t *testing.T) {
	input := "if x:\n        a = 1\n    b = 2\n"

	l := New(input, "test.cb")
	l.ScanTokens()

	if !l.HasErrors() {
		t.Fatal("expected indentation error")
	}
	if l.Errors()[0].Kind != errors.IndentationError {
		t.Errorf("error kind mismatch: got %s, want IndentationError", l.Errors()[0].Kind)
	}
}

func TestLexerBlockBalance(t *testing.T) {
	input := "def f(n):\n    while n:\n        if n:\n            n = n - 1\nf(3)\n"

	l := New(input, "test.cb")
	tokens := l.ScanTokens()

	if l.HasErrors() {
		t.Fatalf("unexpected lexer errors: %v", l.Errors())
	}

	indents, dedents := 0, 0
	for _, tok := range tokens {
		switch tok.Type {
		case token.INDENT:
			indents++
		case token.DEDENT:
			dedents++
		}
	}
	if indents != dedents {
		t.Errorf("block imbalance: %d INDENT vs %d DEDENT", indents, dedents)
	}
	if indents != 3 {
		t.Errorf("indent count mismatch: got %d, want 3", indents)
	}
}

func TestLexerPositions(t *testing.T) {
	input := "a = 1\nbb = 22\n"

	l := New(input, "test.cb")
	tokens := l.ScanTokens()

	checks := []struct {
		idx  int
		line int
		col  int
	}{
		{0, 1, 1}, // a
		{1, 1, 3}, // =
		{2, 1, 5}, // 1
		{4, 2, 1}, // bb
		{5, 2, 4}, // =
		{6, 2, 6}, // 22
	}
	for _, c := range checks {
		pos := tokens[c.idx].Pos
		if pos.Line != c.line || pos.Column != c.col {
			t.Errorf("token[%d] position mismatch: got %d:%d, want %d:%d",
				c.idx, pos.Line, pos.Column, c.line, c.col)
		}
	}
}
