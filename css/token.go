// Package css parses CSS stylesheets into an immutable document model of
// rules, selectors and typed property values.
//
// Tokenization follows CSS Syntax Module Level 3 with two deviations that the
// parser relies on: whitespace and comments are never emitted as tokens (the
// following token records SpaceBefore instead), and a number is only lexed as
// a dimension when its unit is one of the recognized units.
// Reference: https://www.w3.org/TR/css-syntax-3/
package css

import (
	"fmt"
	"strconv"
	"strings"
)

// TokenType represents the type of a CSS token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenFunction
	TokenAtKeyword
	TokenHash
	TokenString
	TokenBadString
	TokenURL
	TokenBadURL
	TokenBadBracket // ) or ] without a matching opener
	TokenDelim
	TokenNumber
	TokenPercentage
	TokenDimension
	TokenCDO // <!--
	TokenCDC // -->
	TokenColon
	TokenSemicolon
	TokenComma
	TokenOpenSquare  // [
	TokenCloseSquare // ]
	TokenOpenParen   // (
	TokenCloseParen  // )
	TokenOpenCurly   // {
	TokenCloseCurly  // }
)

// HashType indicates whether a hash token is an ID or unrestricted.
type HashType int

const (
	HashUnrestricted HashType = iota
	HashID
)

// NumberType indicates whether a number is integer or number.
type NumberType int

const (
	NumberInteger NumberType = iota
	NumberNumber
)

// Token represents a CSS token.
type Token struct {
	Type        TokenType
	Value       string     // name, string content or numeric representation (no leading '+')
	Repr        string     // numeric representation as written
	NumValue    float64    // numeric value for number/percentage/dimension
	NumType     NumberType // whether numeric value is integer or number
	Unit        Unit       // canonical unit for dimension tokens
	HashType    HashType
	Delim       rune
	SpaceBefore bool // whitespace or a comment preceded this token
	Line        int
	Column      int
}

// IsError reports whether the token marks malformed input.
func (t Token) IsError() bool {
	return t.Type == TokenBadString || t.Type == TokenBadURL || t.Type == TokenBadBracket
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "<EOF>"
	case TokenIdent:
		return fmt.Sprintf("<IDENT %q>", t.Value)
	case TokenFunction:
		return fmt.Sprintf("<FUNCTION %q>", t.Value)
	case TokenAtKeyword:
		return fmt.Sprintf("<AT-KEYWORD %q>", t.Value)
	case TokenHash:
		if t.HashType == HashID {
			return fmt.Sprintf("<HASH id %q>", t.Value)
		}
		return fmt.Sprintf("<HASH %q>", t.Value)
	case TokenString:
		return fmt.Sprintf("<STRING %q>", t.Value)
	case TokenBadString:
		return "<BAD-STRING>"
	case TokenURL:
		return fmt.Sprintf("<URL %q>", t.Value)
	case TokenBadURL:
		return "<BAD-URL>"
	case TokenBadBracket:
		return fmt.Sprintf("<BAD-BRACKET %q>", string(t.Delim))
	case TokenDelim:
		return fmt.Sprintf("<DELIM %q>", string(t.Delim))
	case TokenNumber:
		if t.NumType == NumberInteger {
			return fmt.Sprintf("<NUMBER int %v>", t.NumValue)
		}
		return fmt.Sprintf("<NUMBER %v>", t.NumValue)
	case TokenPercentage:
		return fmt.Sprintf("<PERCENTAGE %v%%>", t.NumValue)
	case TokenDimension:
		return fmt.Sprintf("<DIMENSION %v%s>", t.NumValue, t.Unit)
	case TokenCDO:
		return "<CDO>"
	case TokenCDC:
		return "<CDC>"
	case TokenColon:
		return "<COLON>"
	case TokenSemicolon:
		return "<SEMICOLON>"
	case TokenComma:
		return "<COMMA>"
	case TokenOpenSquare:
		return "<[>"
	case TokenCloseSquare:
		return "<]>"
	case TokenOpenParen:
		return "<(>"
	case TokenCloseParen:
		return "<)>"
	case TokenOpenCurly:
		return "<{>"
	case TokenCloseCurly:
		return "<}>"
	default:
		return fmt.Sprintf("<UNKNOWN %d>", t.Type)
	}
}

// Tokenizer tokenizes CSS input according to CSS Syntax Module Level 3.
type Tokenizer struct {
	input  []rune
	pos    int
	line   int
	column int

	// open ( and [ tokens, innermost last
	brackets []TokenType
}

// NewTokenizer creates a new CSS tokenizer.
func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{
		input:  []rune(preprocessInput(input)),
		line:   1,
		column: 1,
	}
}

// preprocessInput performs preprocessing per CSS Syntax §3.3.
// - Replace CR LF and CR with LF
// - Replace U+0000 with U+FFFD
// - Replace formfeed with LF
// A leading byte order mark is dropped as well.
func preprocessInput(input string) string {
	input = strings.TrimPrefix(input, "\uFEFF")
	var sb strings.Builder
	sb.Grow(len(input))

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '\r':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			sb.WriteRune('\n')
		case '\f':
			sb.WriteRune('\n')
		case 0:
			sb.WriteRune('\uFFFD')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// peek returns the current code point without consuming it.
func (t *Tokenizer) peek() rune {
	if t.pos >= len(t.input) {
		return -1 // EOF
	}
	return t.input[t.pos]
}

// peekN returns the code point at offset n from current position.
func (t *Tokenizer) peekN(n int) rune {
	pos := t.pos + n
	if pos >= len(t.input) || pos < 0 {
		return -1
	}
	return t.input[pos]
}

// consume consumes and returns the current code point.
func (t *Tokenizer) consume() rune {
	if t.pos >= len(t.input) {
		return -1
	}
	r := t.input[t.pos]
	t.pos++
	if r == '\n' {
		t.line++
		t.column = 1
	} else {
		t.column++
	}
	return r
}

// reconsume backs up one code point.
func (t *Tokenizer) reconsume() {
	if t.pos > 0 {
		t.pos--
		if t.input[t.pos] == '\n' {
			t.line--
			// Column is approximate after reconsume across newline
			t.column = 1
		} else {
			t.column--
		}
	}
}

type tokenizerState struct {
	pos, line, column int
}

func (t *Tokenizer) save() tokenizerState {
	return tokenizerState{t.pos, t.line, t.column}
}

func (t *Tokenizer) restore(s tokenizerState) {
	t.pos, t.line, t.column = s.pos, s.line, s.column
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isNonASCII(r rune) bool {
	return r >= 0x80
}

func isNameStartCodePoint(r rune) bool {
	return isLetter(r) || isNonASCII(r) || r == '_'
}

func isNameCodePoint(r rune) bool {
	return isNameStartCodePoint(r) || isDigit(r) || r == '-'
}

func isNonPrintable(r rune) bool {
	return (r >= 0 && r <= 0x08) || r == 0x0B || (r >= 0x0E && r <= 0x1F) || r == 0x7F
}

// startsWithValidEscape checks if the next two code points are a valid escape.
func (t *Tokenizer) startsWithValidEscape() bool {
	return t.startsWithValidEscapeAt(0)
}

func (t *Tokenizer) startsWithValidEscapeAt(offset int) bool {
	return t.peekN(offset) == '\\' && t.peekN(offset+1) != '\n'
}

// startsIdentifier checks if the next code points would start an identifier.
func (t *Tokenizer) startsIdentifier() bool {
	return t.startsIdentifierAt(0)
}

func (t *Tokenizer) startsIdentifierAt(offset int) bool {
	first := t.peekN(offset)
	switch {
	case isNameStartCodePoint(first):
		return true
	case first == '-':
		second := t.peekN(offset + 1)
		return isNameStartCodePoint(second) || second == '-' || t.startsWithValidEscapeAt(offset+1)
	case first == '\\':
		return t.startsWithValidEscapeAt(offset)
	}
	return false
}

// startsNumber checks if the next code points would start a number.
func (t *Tokenizer) startsNumber() bool {
	first := t.peek()
	if isDigit(first) {
		return true
	}
	if first == '+' || first == '-' {
		second := t.peekN(1)
		if isDigit(second) {
			return true
		}
		return second == '.' && isDigit(t.peekN(2))
	}
	if first == '.' {
		return isDigit(t.peekN(1))
	}
	return false
}

// consumeEscape consumes an escape sequence and returns the code point.
// The backslash has already been consumed.
func (t *Tokenizer) consumeEscape() rune {
	r := t.consume()
	if r == -1 {
		return '\uFFFD'
	}
	if isHexDigit(r) {
		hex := string(r)
		for i := 0; i < 5 && isHexDigit(t.peek()); i++ {
			hex += string(t.consume())
		}
		if isWhitespace(t.peek()) {
			t.consume()
		}
		val, _ := strconv.ParseInt(hex, 16, 32)
		if val == 0 || val > 0x10FFFF || (val >= 0xD800 && val <= 0xDFFF) {
			return '\uFFFD'
		}
		return rune(val)
	}
	return r
}

// consumeName consumes an identifier and returns the string.
func (t *Tokenizer) consumeName() string {
	var result strings.Builder
	for {
		r := t.consume()
		if isNameCodePoint(r) {
			result.WriteRune(r)
		} else if r == '\\' && t.peek() != '\n' {
			result.WriteRune(t.consumeEscape())
		} else {
			if r != -1 {
				t.reconsume()
			}
			return result.String()
		}
	}
}

// consumeNumber consumes a number. It returns the value, the representation
// as written and the representation with a leading '+' removed.
func (t *Tokenizer) consumeNumber() (float64, string, string, NumberType) {
	var repr strings.Builder
	numType := NumberInteger

	if t.peek() == '+' || t.peek() == '-' {
		repr.WriteRune(t.consume())
	}
	for isDigit(t.peek()) {
		repr.WriteRune(t.consume())
	}
	if t.peek() == '.' && isDigit(t.peekN(1)) {
		repr.WriteRune(t.consume())
		numType = NumberNumber
		for isDigit(t.peek()) {
			repr.WriteRune(t.consume())
		}
	}
	if t.peek() == 'e' || t.peek() == 'E' {
		next := t.peekN(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(t.peekN(2))) {
			repr.WriteRune(t.consume())
			numType = NumberNumber
			if t.peek() == '+' || t.peek() == '-' {
				repr.WriteRune(t.consume())
			}
			for isDigit(t.peek()) {
				repr.WriteRune(t.consume())
			}
		}
	}

	written := repr.String()
	val, _ := strconv.ParseFloat(written, 64)
	return val, written, strings.TrimPrefix(written, "+"), numType
}

// consumeNumericToken consumes a number, percentage or dimension. A trailing
// identifier that is not a recognized unit is left in the input, so that it
// becomes a separate ident token.
func (t *Tokenizer) consumeNumericToken() Token {
	line, col := t.line, t.column
	numVal, repr, value, numType := t.consumeNumber()
	tok := Token{
		Type:     TokenNumber,
		Value:    value,
		Repr:     repr,
		NumValue: numVal,
		NumType:  numType,
		Line:     line,
		Column:   col,
	}

	if t.peek() == '%' {
		t.consume()
		tok.Type = TokenPercentage
		return tok
	}

	if t.startsIdentifier() {
		state := t.save()
		name := t.consumeName()
		if unit, _, ok := LookupUnit(name); ok {
			tok.Type = TokenDimension
			tok.Unit = unit
			return tok
		}
		t.restore(state)
	}
	return tok
}

// consumeString consumes a string token. A newline or the end of input
// before the closing quote produce a bad-string token.
func (t *Tokenizer) consumeString(endChar rune) Token {
	line, col := t.line, t.column
	var result strings.Builder

	for {
		r := t.consume()
		switch {
		case r == endChar:
			return Token{Type: TokenString, Value: result.String(), Line: line, Column: col}
		case r == -1:
			return Token{Type: TokenBadString, Value: result.String(), Line: line, Column: col}
		case r == '\n':
			t.reconsume()
			return Token{Type: TokenBadString, Value: result.String(), Line: line, Column: col}
		case r == '\\':
			next := t.peek()
			if next == -1 {
				continue
			}
			if next == '\n' {
				t.consume()
			} else {
				result.WriteRune(t.consumeEscape())
			}
		default:
			result.WriteRune(r)
		}
	}
}

// consumeURL consumes an unquoted URL token.
func (t *Tokenizer) consumeURL(line, col int) Token {
	var result strings.Builder

	for isWhitespace(t.peek()) {
		t.consume()
	}

	for {
		r := t.consume()
		switch {
		case r == ')':
			return Token{Type: TokenURL, Value: result.String(), Line: line, Column: col}
		case r == -1:
			return Token{Type: TokenBadURL, Value: result.String(), Line: line, Column: col}
		case isWhitespace(r):
			for isWhitespace(t.peek()) {
				t.consume()
			}
			if t.peek() == ')' {
				t.consume()
				return Token{Type: TokenURL, Value: result.String(), Line: line, Column: col}
			}
			t.consumeBadURLRemnants()
			return Token{Type: TokenBadURL, Line: line, Column: col}
		case r == '"' || r == '\'' || r == '(' || isNonPrintable(r):
			t.consumeBadURLRemnants()
			return Token{Type: TokenBadURL, Line: line, Column: col}
		case r == '\\':
			if t.peek() != '\n' && t.peek() != -1 {
				result.WriteRune(t.consumeEscape())
			} else {
				t.consumeBadURLRemnants()
				return Token{Type: TokenBadURL, Line: line, Column: col}
			}
		default:
			result.WriteRune(r)
		}
	}
}

// consumeBadURLRemnants consumes the remnants of a bad URL.
func (t *Tokenizer) consumeBadURLRemnants() {
	for {
		r := t.consume()
		if r == ')' || r == -1 {
			return
		}
		if r == '\\' && t.peek() != '\n' && t.peek() != -1 {
			t.consume()
		}
	}
}

// consumeIdentLikeToken consumes an ident, function or url token.
func (t *Tokenizer) consumeIdentLikeToken() Token {
	line, col := t.line, t.column
	name := t.consumeName()

	if strings.EqualFold(name, "url") && t.peek() == '(' {
		t.consume()
		state := t.save()
		for isWhitespace(t.peek()) {
			t.consume()
		}
		if t.peek() == '"' || t.peek() == '\'' {
			// url("...") is a function whose single argument is a string
			t.restore(state)
			return Token{Type: TokenFunction, Value: name, Line: line, Column: col}
		}
		return t.consumeURL(line, col)
	}

	if t.peek() == '(' {
		t.consume()
		return Token{Type: TokenFunction, Value: name, Line: line, Column: col}
	}

	return Token{Type: TokenIdent, Value: name, Line: line, Column: col}
}

// consumeHashToken consumes a hash token.
func (t *Tokenizer) consumeHashToken() Token {
	line, col := t.line, t.column
	t.consume() // #

	if isNameCodePoint(t.peek()) || t.startsWithValidEscape() {
		hashType := HashUnrestricted
		if t.startsIdentifier() {
			hashType = HashID
		}
		return Token{Type: TokenHash, Value: t.consumeName(), HashType: hashType, Line: line, Column: col}
	}
	return Token{Type: TokenDelim, Delim: '#', Line: line, Column: col}
}

// consumeComment consumes a comment.
func (t *Tokenizer) consumeComment() {
	t.consume() // /
	t.consume() // *
	for {
		r := t.consume()
		if r == -1 {
			return
		}
		if r == '*' && t.peek() == '/' {
			t.consume()
			return
		}
	}
}

// skipWhitespaceAndComments reports whether anything was skipped.
func (t *Tokenizer) skipWhitespaceAndComments() bool {
	skipped := false
	for {
		switch {
		case isWhitespace(t.peek()):
			t.consume()
		case t.peek() == '/' && t.peekN(1) == '*':
			t.consumeComment()
		default:
			return skipped
		}
		skipped = true
	}
}

// NextToken returns the next token from the input.
func (t *Tokenizer) NextToken() Token {
	spaced := t.skipWhitespaceAndComments()
	tok := t.nextToken()
	tok.SpaceBefore = spaced
	t.trackBrackets(&tok)
	return tok
}

// trackBrackets turns closers without a matching opener into bad-bracket
// tokens. Curly braces and semicolons end any open groups.
func (t *Tokenizer) trackBrackets(tok *Token) {
	switch tok.Type {
	case TokenOpenParen, TokenFunction:
		t.brackets = append(t.brackets, TokenOpenParen)
	case TokenOpenSquare:
		t.brackets = append(t.brackets, TokenOpenSquare)
	case TokenCloseParen, TokenCloseSquare:
		opener := TokenOpenParen
		tok.Delim = ')'
		if tok.Type == TokenCloseSquare {
			opener = TokenOpenSquare
			tok.Delim = ']'
		}
		n := len(t.brackets)
		if n == 0 || t.brackets[n-1] != opener {
			tok.Type = TokenBadBracket
			return
		}
		t.brackets = t.brackets[:n-1]
		tok.Delim = 0
	case TokenOpenCurly, TokenCloseCurly, TokenSemicolon:
		t.brackets = t.brackets[:0]
	}
}

func (t *Tokenizer) nextToken() Token {
	line, col := t.line, t.column
	r := t.consume()

	switch {
	case r == -1:
		return Token{Type: TokenEOF, Line: line, Column: col}

	case r == '"' || r == '\'':
		return t.consumeString(r)

	case r == '#':
		t.reconsume()
		return t.consumeHashToken()

	case r == '(':
		return Token{Type: TokenOpenParen, Line: line, Column: col}

	case r == ')':
		return Token{Type: TokenCloseParen, Line: line, Column: col}

	case r == '+':
		t.reconsume()
		if t.startsNumber() {
			return t.consumeNumericToken()
		}
		t.consume()
		return Token{Type: TokenDelim, Delim: r, Line: line, Column: col}

	case r == ',':
		return Token{Type: TokenComma, Line: line, Column: col}

	case r == '-':
		t.reconsume()
		if t.startsNumber() {
			return t.consumeNumericToken()
		}
		if t.peekN(1) == '-' && t.peekN(2) == '>' {
			t.consume()
			t.consume()
			t.consume()
			return Token{Type: TokenCDC, Line: line, Column: col}
		}
		if t.startsIdentifier() {
			return t.consumeIdentLikeToken()
		}
		t.consume()
		return Token{Type: TokenDelim, Delim: r, Line: line, Column: col}

	case r == '.':
		t.reconsume()
		if t.startsNumber() {
			return t.consumeNumericToken()
		}
		t.consume()
		return Token{Type: TokenDelim, Delim: r, Line: line, Column: col}

	case r == ':':
		return Token{Type: TokenColon, Line: line, Column: col}

	case r == ';':
		return Token{Type: TokenSemicolon, Line: line, Column: col}

	case r == '<':
		if t.peek() == '!' && t.peekN(1) == '-' && t.peekN(2) == '-' {
			t.consume()
			t.consume()
			t.consume()
			return Token{Type: TokenCDO, Line: line, Column: col}
		}
		return Token{Type: TokenDelim, Delim: r, Line: line, Column: col}

	case r == '@':
		if t.startsIdentifier() {
			return Token{Type: TokenAtKeyword, Value: t.consumeName(), Line: line, Column: col}
		}
		return Token{Type: TokenDelim, Delim: r, Line: line, Column: col}

	case r == '[':
		return Token{Type: TokenOpenSquare, Line: line, Column: col}

	case r == ']':
		return Token{Type: TokenCloseSquare, Line: line, Column: col}

	case r == '\\':
		if t.peek() != '\n' && t.peek() != -1 {
			t.reconsume()
			return t.consumeIdentLikeToken()
		}
		return Token{Type: TokenDelim, Delim: r, Line: line, Column: col}

	case r == '{':
		return Token{Type: TokenOpenCurly, Line: line, Column: col}

	case r == '}':
		return Token{Type: TokenCloseCurly, Line: line, Column: col}

	case isDigit(r):
		t.reconsume()
		return t.consumeNumericToken()

	case isNameStartCodePoint(r):
		t.reconsume()
		return t.consumeIdentLikeToken()

	default:
		return Token{Type: TokenDelim, Delim: r, Line: line, Column: col}
	}
}

// TokenizeAll tokenizes the entire input. The last token is always EOF.
func (t *Tokenizer) TokenizeAll() []Token {
	var tokens []Token
	for {
		tok := t.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

// tokensText reassembles source text from tokens. Whitespace between tokens
// collapses to a single space.
func tokensText(tokens []Token) string {
	var sb strings.Builder
	for i, tok := range tokens {
		if i > 0 && tok.SpaceBefore {
			sb.WriteString(" ")
		}
		sb.WriteString(tokenText(tok))
	}
	return sb.String()
}

func tokenText(tok Token) string {
	switch tok.Type {
	case TokenIdent:
		return tok.Value
	case TokenFunction:
		return tok.Value + "("
	case TokenAtKeyword:
		return "@" + tok.Value
	case TokenHash:
		return "#" + tok.Value
	case TokenString, TokenBadString:
		return strconv.Quote(tok.Value)
	case TokenURL:
		return "url(" + tok.Value + ")"
	case TokenBadURL:
		return "url()"
	case TokenDelim, TokenBadBracket:
		return string(tok.Delim)
	case TokenNumber:
		return tok.Repr
	case TokenPercentage:
		return tok.Repr + "%"
	case TokenDimension:
		return tok.Repr + string(tok.Unit)
	case TokenCDO:
		return "<!--"
	case TokenCDC:
		return "-->"
	case TokenColon:
		return ":"
	case TokenSemicolon:
		return ";"
	case TokenComma:
		return ","
	case TokenOpenSquare:
		return "["
	case TokenCloseSquare:
		return "]"
	case TokenOpenParen:
		return "("
	case TokenCloseParen:
		return ")"
	case TokenOpenCurly:
		return "{"
	case TokenCloseCurly:
		return "}"
	}
	return ""
}
