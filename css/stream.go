package css

// tokenStream is a buffered cursor over a Tokenizer. Tokens are pulled from
// the tokenizer on demand and kept, so the parser can look ahead and rewind
// to a mark.
type tokenStream struct {
	tokenizer *Tokenizer
	tokens    []Token
	pos       int
	done      bool // EOF has been buffered
}

func newTokenStream(input string) *tokenStream {
	return &tokenStream{tokenizer: NewTokenizer(input)}
}

// fill buffers tokens until index i is available or EOF is reached.
func (s *tokenStream) fill(i int) {
	for !s.done && i >= len(s.tokens) {
		tok := s.tokenizer.NextToken()
		s.tokens = append(s.tokens, tok)
		if tok.Type == TokenEOF {
			s.done = true
		}
	}
}

// current returns the current token.
func (s *tokenStream) current() Token {
	return s.peek(0)
}

// peek returns the token at offset from current position.
func (s *tokenStream) peek(offset int) Token {
	i := s.pos + offset
	if i < 0 {
		return Token{Type: TokenEOF}
	}
	s.fill(i)
	if i >= len(s.tokens) {
		// past EOF; repeat the EOF token so positions stay meaningful
		return s.tokens[len(s.tokens)-1]
	}
	return s.tokens[i]
}

// consume consumes and returns the current token. EOF is never consumed.
func (s *tokenStream) consume() Token {
	tok := s.current()
	if tok.Type != TokenEOF {
		s.pos++
	}
	return tok
}

func (s *tokenStream) atEOF() bool {
	return s.current().Type == TokenEOF
}

// mark returns a snapshot of the cursor for reset.
func (s *tokenStream) mark() int {
	return s.pos
}

// reset rewinds the cursor to a snapshot taken by mark.
func (s *tokenStream) reset(m int) {
	s.pos = m
}
