package css

import (
	"testing"
)

func tokenTypes(input string) []TokenType {
	var types []TokenType
	for _, tok := range NewTokenizer(input).TokenizeAll() {
		types = append(types, tok.Type)
	}
	return types
}

func equalTypes(a, b []TokenType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTokenizerBasicTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{"", []TokenType{TokenEOF}},
		{"   ", []TokenType{TokenEOF}},
		{"/* only a comment */", []TokenType{TokenEOF}},
		{";", []TokenType{TokenSemicolon, TokenEOF}},
		{":", []TokenType{TokenColon, TokenEOF}},
		{",", []TokenType{TokenComma, TokenEOF}},
		{"{}", []TokenType{TokenOpenCurly, TokenCloseCurly, TokenEOF}},
		{"[]", []TokenType{TokenOpenSquare, TokenCloseSquare, TokenEOF}},
		{"()", []TokenType{TokenOpenParen, TokenCloseParen, TokenEOF}},
		{"a b", []TokenType{TokenIdent, TokenIdent, TokenEOF}},
	}

	for _, tt := range tests {
		got := tokenTypes(tt.input)
		if !equalTypes(got, tt.expected) {
			t.Errorf("input %q: expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}

func TestTokenizerSpaceBefore(t *testing.T) {
	tokens := NewTokenizer("a b\n\t.c/* x */d.e").TokenizeAll()

	expected := []struct {
		typ    TokenType
		spaced bool
	}{
		{TokenIdent, false}, // a
		{TokenIdent, true},  // b
		{TokenDelim, true},  // .
		{TokenIdent, false}, // c
		{TokenIdent, true},  // d
		{TokenDelim, false}, // .
		{TokenIdent, false}, // e
		{TokenEOF, false},
	}

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, want := range expected {
		if tokens[i].Type != want.typ || tokens[i].SpaceBefore != want.spaced {
			t.Errorf("token %d: expected %v spaced=%v, got %v spaced=%v",
				i, want.typ, want.spaced, tokens[i].Type, tokens[i].SpaceBefore)
		}
	}
}

func TestTokenizerIdent(t *testing.T) {
	tests := []struct {
		input string
		value string
	}{
		{"foo", "foo"},
		{"Bar", "Bar"},
		{"foo-bar", "foo-bar"},
		{"_foo", "_foo"},
		{"-webkit-transform", "-webkit-transform"},
		{"--custom-prop", "--custom-prop"},
		{"-linename1", "-linename1"},
	}

	for _, tt := range tests {
		tokenizer := NewTokenizer(tt.input)
		tok := tokenizer.NextToken()

		if tok.Type != TokenIdent {
			t.Errorf("input %q: expected IDENT, got %v", tt.input, tok.Type)
			continue
		}

		if tok.Value != tt.value {
			t.Errorf("input %q: expected value %q, got %q", tt.input, tt.value, tok.Value)
		}
	}
}

func TestTokenizerHash(t *testing.T) {
	tests := []struct {
		input    string
		value    string
		hashType HashType
	}{
		{"#foo", "foo", HashID},
		{"#123", "123", HashUnrestricted},
		{"#abc123", "abc123", HashID},
		{"#-foo", "-foo", HashID},
		{"#00AA85", "00AA85", HashUnrestricted},
	}

	for _, tt := range tests {
		tokenizer := NewTokenizer(tt.input)
		tok := tokenizer.NextToken()

		if tok.Type != TokenHash {
			t.Errorf("input %q: expected HASH, got %v", tt.input, tok.Type)
			continue
		}

		if tok.Value != tt.value {
			t.Errorf("input %q: expected value %q, got %q", tt.input, tt.value, tok.Value)
		}

		if tok.HashType != tt.hashType {
			t.Errorf("input %q: expected hash type %v, got %v", tt.input, tt.hashType, tok.HashType)
		}
	}
}

func TestTokenizerString(t *testing.T) {
	tests := []struct {
		input string
		value string
	}{
		{`"hello"`, "hello"},
		{`'hello'`, "hello"},
		{`"hello world"`, "hello world"},
		{`"hello\nworld"`, "hellonworld"},   // \n is not an escape in CSS, just n
		{`"hello\a world"`, "hello\nworld"}, // \a is hex 0A (newline), space is consumed as separator
		{`"escaped\"quote"`, `escaped"quote`},
		{"\"line\\\ncontinued\"", "linecontinued"},
		{`""`, ""},
	}

	for _, tt := range tests {
		tokenizer := NewTokenizer(tt.input)
		tok := tokenizer.NextToken()

		if tok.Type != TokenString {
			t.Errorf("input %q: expected STRING, got %v", tt.input, tok.Type)
			continue
		}

		if tok.Value != tt.value {
			t.Errorf("input %q: expected value %q, got %q", tt.input, tt.value, tok.Value)
		}
	}
}

func TestTokenizerBadString(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{`"unterminated`, []TokenType{TokenBadString, TokenEOF}},
		{"'broken\nfoo", []TokenType{TokenBadString, TokenIdent, TokenEOF}},
		{"a: \"x\n;", []TokenType{TokenIdent, TokenColon, TokenBadString, TokenSemicolon, TokenEOF}},
	}

	for _, tt := range tests {
		got := tokenTypes(tt.input)
		if !equalTypes(got, tt.expected) {
			t.Errorf("input %q: expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}

func TestTokenizerNumber(t *testing.T) {
	tests := []struct {
		input   string
		value   float64
		repr    string
		numType NumberType
	}{
		{"0", 0, "0", NumberInteger},
		{"123", 123, "123", NumberInteger},
		{"-42", -42, "-42", NumberInteger},
		{"+5", 5, "5", NumberInteger},
		{"3.14", 3.14, "3.14", NumberNumber},
		{"-0.5", -0.5, "-0.5", NumberNumber},
		{".5", 0.5, ".5", NumberNumber},
		{"1e10", 1e10, "1e10", NumberNumber},
		{"1E-5", 1e-5, "1E-5", NumberNumber},
		{"2.5e3", 2500, "2.5e3", NumberNumber},
	}

	for _, tt := range tests {
		tokenizer := NewTokenizer(tt.input)
		tok := tokenizer.NextToken()

		if tok.Type != TokenNumber {
			t.Errorf("input %q: expected NUMBER, got %v", tt.input, tok.Type)
			continue
		}

		if tok.NumValue != tt.value {
			t.Errorf("input %q: expected value %v, got %v", tt.input, tt.value, tok.NumValue)
		}

		if tok.Value != tt.repr {
			t.Errorf("input %q: expected repr %q, got %q", tt.input, tt.repr, tok.Value)
		}

		if tok.NumType != tt.numType {
			t.Errorf("input %q: expected num type %v, got %v", tt.input, tt.numType, tok.NumType)
		}
	}
}

func TestTokenizerPercentage(t *testing.T) {
	tests := []struct {
		input string
		value float64
	}{
		{"50%", 50},
		{"100%", 100},
		{"-25%", -25},
		{"0%", 0},
		{"33.33%", 33.33},
	}

	for _, tt := range tests {
		tokenizer := NewTokenizer(tt.input)
		tok := tokenizer.NextToken()

		if tok.Type != TokenPercentage {
			t.Errorf("input %q: expected PERCENTAGE, got %v", tt.input, tok.Type)
			continue
		}

		if tok.NumValue != tt.value {
			t.Errorf("input %q: expected value %v, got %v", tt.input, tt.value, tok.NumValue)
		}
	}
}

func TestTokenizerDimension(t *testing.T) {
	tests := []struct {
		input string
		value float64
		unit  Unit
	}{
		{"10px", 10, UnitPx},
		{"1em", 1, UnitEm},
		{"1.5rem", 1.5, UnitRem},
		{"-2vh", -2, UnitVh},
		{"+10px", 10, UnitPx},
		{"100vw", 100, UnitVw},
		{"360deg", 360, UnitDeg},
		{"200ms", 200, UnitMs},
		{"2s", 2, UnitS},
		{"10PX", 10, UnitPx},
		{"44khz", 44, UnitKHz},
		{"5HZ", 5, UnitHz},
		{"2dppx", 2, UnitDppx},
		{"1fr", 1, UnitFr},
		{"0.25turn", 0.25, UnitTurn},
	}

	for _, tt := range tests {
		tokenizer := NewTokenizer(tt.input)
		tok := tokenizer.NextToken()

		if tok.Type != TokenDimension {
			t.Errorf("input %q: expected DIMENSION, got %v", tt.input, tok.Type)
			continue
		}

		if tok.NumValue != tt.value {
			t.Errorf("input %q: expected value %v, got %v", tt.input, tt.value, tok.NumValue)
		}

		if tok.Unit != tt.unit {
			t.Errorf("input %q: expected unit %q, got %q", tt.input, tt.unit, tok.Unit)
		}
	}
}

func TestTokenizerUnknownUnit(t *testing.T) {
	tokens := NewTokenizer("10foo 2n+1").TokenizeAll()

	expected := []TokenType{TokenNumber, TokenIdent, TokenNumber, TokenIdent, TokenNumber, TokenEOF}
	var got []TokenType
	for _, tok := range tokens {
		got = append(got, tok.Type)
	}
	if !equalTypes(got, expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}

	if tokens[1].Value != "foo" || tokens[1].SpaceBefore {
		t.Errorf("expected unspaced ident foo, got %v", tokens[1])
	}
	if tokens[4].Repr != "+1" || tokens[4].Value != "1" {
		t.Errorf("expected repr +1 and value 1, got %q and %q", tokens[4].Repr, tokens[4].Value)
	}
}

func TestTokenizerURL(t *testing.T) {
	tests := []struct {
		input string
		value string
	}{
		{`url(image.png)`, "image.png"},
		{`url( image.png )`, "image.png"},
		{`URL(image.jpg)`, "image.jpg"},
		{`url(/path/to/file.css)`, "/path/to/file.css"},
		{`url(https://example.com/img.jpg)`, "https://example.com/img.jpg"},
	}

	for _, tt := range tests {
		tokenizer := NewTokenizer(tt.input)
		tok := tokenizer.NextToken()

		if tok.Type != TokenURL {
			t.Errorf("input %q: expected URL, got %v", tt.input, tok.Type)
			continue
		}

		if tok.Value != tt.value {
			t.Errorf("input %q: expected value %q, got %q", tt.input, tt.value, tok.Value)
		}
	}
}

func TestTokenizerBadURL(t *testing.T) {
	tests := []string{
		`url(a b)`,
		`url(a"b)`,
		`url(a(b)`,
		`url(unterminated`,
	}

	for _, input := range tests {
		tok := NewTokenizer(input).NextToken()
		if tok.Type != TokenBadURL {
			t.Errorf("input %q: expected BAD-URL, got %v", input, tok)
		}
	}
}

func TestTokenizerQuotedURLIsFunction(t *testing.T) {
	expected := []TokenType{TokenFunction, TokenString, TokenCloseParen, TokenEOF}
	if got := tokenTypes(`url("test.png")`); !equalTypes(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestTokenizerBadBracket(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{"a)", []TokenType{TokenIdent, TokenBadBracket, TokenEOF}},
		{"a]", []TokenType{TokenIdent, TokenBadBracket, TokenEOF}},
		{"(a]", []TokenType{TokenOpenParen, TokenIdent, TokenBadBracket, TokenEOF}},
		{"[a)]", []TokenType{TokenOpenSquare, TokenIdent, TokenBadBracket, TokenCloseSquare, TokenEOF}},
		{"f(a)", []TokenType{TokenFunction, TokenIdent, TokenCloseParen, TokenEOF}},
		{"f([a])", []TokenType{TokenFunction, TokenOpenSquare, TokenIdent, TokenCloseSquare, TokenCloseParen, TokenEOF}},
		{"(;)", []TokenType{TokenOpenParen, TokenSemicolon, TokenBadBracket, TokenEOF}},
		{"{)}", []TokenType{TokenOpenCurly, TokenBadBracket, TokenCloseCurly, TokenEOF}},
	}

	for _, tt := range tests {
		got := tokenTypes(tt.input)
		if !equalTypes(got, tt.expected) {
			t.Errorf("input %q: expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}

func TestTokenizerFunction(t *testing.T) {
	tests := []struct {
		input string
		name  string
	}{
		{"rgb(", "rgb"},
		{"rgba(", "rgba"},
		{"calc(", "calc"},
		{"var(", "var"},
		{"url(\"test.png\")", "url"},
	}

	for _, tt := range tests {
		tokenizer := NewTokenizer(tt.input)
		tok := tokenizer.NextToken()

		if tok.Type != TokenFunction {
			t.Errorf("input %q: expected FUNCTION, got %v", tt.input, tok.Type)
			continue
		}

		if tok.Value != tt.name {
			t.Errorf("input %q: expected name %q, got %q", tt.input, tt.name, tok.Value)
		}
	}
}

func TestTokenizerAtKeyword(t *testing.T) {
	tests := []struct {
		input string
		value string
	}{
		{"@media", "media"},
		{"@import", "import"},
		{"@keyframes", "keyframes"},
		{"@font-face", "font-face"},
		{"@charset", "charset"},
	}

	for _, tt := range tests {
		tokenizer := NewTokenizer(tt.input)
		tok := tokenizer.NextToken()

		if tok.Type != TokenAtKeyword {
			t.Errorf("input %q: expected AT-KEYWORD, got %v", tt.input, tok.Type)
			continue
		}

		if tok.Value != tt.value {
			t.Errorf("input %q: expected value %q, got %q", tt.input, tt.value, tok.Value)
		}
	}
}

func TestTokenizerCDOCDC(t *testing.T) {
	expected := []TokenType{TokenCDO, TokenCDC, TokenEOF}
	if got := tokenTypes("<!-- -->"); !equalTypes(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestTokenizerUPlus(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{"u+a", []TokenType{TokenIdent, TokenDelim, TokenIdent, TokenEOF}},
		{"U+0041", []TokenType{TokenIdent, TokenNumber, TokenEOF}},
		{"U+0025-00FF", []TokenType{TokenIdent, TokenNumber, TokenNumber, TokenIdent, TokenEOF}},
		{"U+4??", []TokenType{TokenIdent, TokenNumber, TokenDelim, TokenDelim, TokenEOF}},
	}

	for _, tt := range tests {
		if got := tokenTypes(tt.input); !equalTypes(got, tt.expected) {
			t.Errorf("input %q: expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}

func TestTokenizerEscapes(t *testing.T) {
	tests := []struct {
		input string
		value string
	}{
		{`\41`, "A"},              // Hex escape for 'A'
		{`\000041`, "A"},          // Full 6-digit hex escape
		{`foo\20 bar`, "foo bar"}, // Hex escape for space, needs trailing separator
		{`foo\ bar`, "foo bar"},   // Escaped literal space
	}

	for _, tt := range tests {
		tokenizer := NewTokenizer(tt.input)
		tok := tokenizer.NextToken()

		if tok.Type != TokenIdent {
			t.Errorf("input %q: expected IDENT, got %v", tt.input, tok.Type)
			continue
		}

		if tok.Value != tt.value {
			t.Errorf("input %q: expected value %q, got %q", tt.input, tt.value, tok.Value)
		}
	}
}

func TestTokenizerPreprocessing(t *testing.T) {
	// CR LF and CR both separate tokens like LF
	for _, input := range []string{"a\r\nb", "a\rb", "a\fb"} {
		tokens := NewTokenizer(input).TokenizeAll()
		if len(tokens) != 3 || !tokens[1].SpaceBefore || tokens[1].Line != 2 {
			t.Errorf("input %q: expected b on line 2 after whitespace, got %v", input, tokens)
		}
	}

	// Null replacement
	tok := NewTokenizer("a\x00b").NextToken()
	if tok.Value != "a\uFFFDb" {
		t.Errorf("null should be replaced with U+FFFD")
	}

	// Byte order mark
	tok = NewTokenizer("\uFEFFbody").NextToken()
	if tok.Type != TokenIdent || tok.Value != "body" || tok.SpaceBefore {
		t.Errorf("expected BOM to be dropped, got %v", tok)
	}
}

func TestTokenizerPositions(t *testing.T) {
	tokens := NewTokenizer("p {\n  color: red;\n}").TokenizeAll()

	color := tokens[2]
	if color.Value != "color" || color.Line != 2 || color.Column != 3 {
		t.Errorf("expected color at 2:3, got %q at %d:%d", color.Value, color.Line, color.Column)
	}
}

func TestTokenizerCompleteStylesheet(t *testing.T) {
	css := `
		body {
			color: #333;
			font-size: 16px;
		}

		.container {
			max-width: 1200px;
			margin: 0 auto;
		}
	`

	tokens := NewTokenizer(css).TokenizeAll()

	// body { color : #333 ; font-size : 16px ; } . container { max-width : 1200px ; margin : 0 auto ; } EOF
	if len(tokens) != 25 {
		t.Errorf("expected 25 tokens, got %d", len(tokens))
	}

	foundHash := false
	for _, tok := range tokens {
		if tok.Type == TokenHash && tok.Value == "333" {
			foundHash = true
		}
		if tok.IsError() {
			t.Errorf("unexpected error token %v", tok)
		}
	}
	if !foundHash {
		t.Error("expected to find '#333' hash token")
	}
}
