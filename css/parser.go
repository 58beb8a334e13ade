package css

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// recoveryLevel says how much input a syntax error invalidates.
type recoveryLevel int

const (
	levelTerm        recoveryLevel = iota // one value term, invalidating its declaration
	levelDeclaration                      // input up to the next ';' or '}'
	levelRule                             // the whole rule including its block
)

func (l recoveryLevel) String() string {
	switch l {
	case levelTerm:
		return "term"
	case levelDeclaration:
		return "declaration"
	}
	return "rule"
}

type syntaxError struct {
	level  recoveryLevel
	reason string
	tok    Token
}

func (e *syntaxError) Error() string {
	return fmt.Sprintf("%s at %d:%d", e.reason, e.tok.Line, e.tok.Column)
}

func newSyntaxError(level recoveryLevel, tok Token, format string, args ...any) *syntaxError {
	return &syntaxError{level: level, reason: fmt.Sprintf(format, args...), tok: tok}
}

func termError(tok Token, format string, args ...any) *syntaxError {
	return newSyntaxError(levelTerm, tok, format, args...)
}

func declarationError(tok Token, format string, args ...any) *syntaxError {
	return newSyntaxError(levelDeclaration, tok, format, args...)
}

func ruleError(tok Token, format string, args ...any) *syntaxError {
	return newSyntaxError(levelRule, tok, format, args...)
}

// parseState is a state of the rule parser.
type parseState int

const (
	expectSelectorOrAtRule parseState = iota
	expectBlockOpen
	expectPropertyOrBlockClose
	expectColon
	expectValueTerms
	expectSemicolonOrBlockClose
	stateDone
)

// sheetParser holds the state of a single parse call.
type sheetParser struct {
	s    *tokenStream
	base string
	log  *zap.Logger
}

func (p *sheetParser) logRecovery(err *syntaxError) {
	p.log.Debug("recovered from syntax error",
		zap.String("reason", err.reason),
		zap.Stringer("level", err.level),
		zap.Int("line", err.tok.Line),
		zap.Int("column", err.tok.Column))
}

// ruleMachine parses one rule set or declaration block. Declaration and
// term errors are recovered inside the machine; rule errors abort it.
type ruleMachine struct {
	p      *sheetParser
	state  parseState
	inline bool // a style attribute body: no braces, ends at EOF
	nested bool // inside an @media block

	selectors    []Selector
	declarations []Declaration

	property  string
	terms     []Term
	important bool
}

func (m *ruleMachine) run() *syntaxError {
	for m.state != stateDone {
		var (
			next parseState
			err  *syntaxError
		)
		switch m.state {
		case expectSelectorOrAtRule:
			next, err = m.selectorPrelude()
		case expectBlockOpen:
			next, err = m.blockOpen()
		case expectPropertyOrBlockClose:
			next, err = m.propertyOrBlockClose()
		case expectColon:
			next, err = m.colon()
		case expectValueTerms:
			next, err = m.valueTerms()
		case expectSemicolonOrBlockClose:
			next, err = m.semicolonOrBlockClose()
		}
		if err != nil {
			if err.level == levelRule {
				return err
			}
			m.p.logRecovery(err)
			m.p.skipDeclaration()
			m.resetDeclaration()
			next = expectPropertyOrBlockClose
		}
		m.state = next
	}
	return nil
}

func (m *ruleMachine) resetDeclaration() {
	m.property = ""
	m.terms = nil
	m.important = false
}

func (m *ruleMachine) selectorPrelude() (parseState, *syntaxError) {
	start := m.p.s.current()
	prelude, err := m.p.collectPrelude(m.nested)
	if err != nil {
		return stateDone, err
	}
	selectors, serr := parseSelectorList(prelude)
	if serr != nil {
		return stateDone, ruleError(start, "%v", serr)
	}
	m.selectors = selectors
	return expectBlockOpen, nil
}

func (m *ruleMachine) blockOpen() (parseState, *syntaxError) {
	tok := m.p.s.current()
	if tok.Type != TokenOpenCurly {
		return stateDone, ruleError(tok, "expected '{', got %s", tok)
	}
	m.p.s.consume()
	return expectPropertyOrBlockClose, nil
}

func (m *ruleMachine) propertyOrBlockClose() (parseState, *syntaxError) {
	tok := m.p.s.current()
	switch tok.Type {
	case TokenCloseCurly:
		m.p.s.consume()
		if m.inline {
			return expectPropertyOrBlockClose, declarationError(tok, "unexpected '}'")
		}
		return stateDone, nil
	case TokenSemicolon:
		m.p.s.consume()
		return expectPropertyOrBlockClose, nil
	case TokenEOF:
		if m.inline {
			return stateDone, nil
		}
		return stateDone, ruleError(tok, "unexpected end of input in declaration block")
	case TokenIdent:
		m.p.s.consume()
		m.property = tok.Value
		if !strings.HasPrefix(m.property, "--") {
			m.property = strings.ToLower(m.property)
		}
		return expectColon, nil
	}
	return expectPropertyOrBlockClose, declarationError(tok, "expected property name, got %s", tok)
}

func (m *ruleMachine) colon() (parseState, *syntaxError) {
	tok := m.p.s.current()
	if tok.Type != TokenColon {
		return expectPropertyOrBlockClose, declarationError(tok, "expected ':' after %q, got %s", m.property, tok)
	}
	m.p.s.consume()
	return expectValueTerms, nil
}

func (m *ruleMachine) valueTerms() (parseState, *syntaxError) {
	op := OpNone
	for {
		tok := m.p.s.current()
		switch {
		case tok.Type == TokenSemicolon || tok.Type == TokenCloseCurly || tok.Type == TokenEOF:
			return m.endValue(tok, op)

		case tok.Type == TokenDelim && tok.Delim == '!':
			next, err := m.endValue(tok, op)
			if err != nil {
				return next, err
			}
			m.p.s.consume()
			if kw := m.p.s.current(); kw.Type != TokenIdent || !strings.EqualFold(kw.Value, "important") {
				return expectPropertyOrBlockClose, declarationError(kw, "expected 'important' after '!'")
			}
			m.p.s.consume()
			m.important = true
			return next, nil

		case tok.Type == TokenComma, tok.Type == TokenDelim && tok.Delim == '/':
			if len(m.terms) == 0 || op != OpNone {
				return expectPropertyOrBlockClose, declarationError(tok, "unexpected %s in value", tok)
			}
			m.p.s.consume()
			op = OpComma
			if tok.Type == TokenDelim {
				op = OpSlash
			}
			continue
		}

		term, err := m.p.parseTerm(false)
		if err != nil {
			return expectPropertyOrBlockClose, err
		}
		if op == OpNone && len(m.terms) > 0 {
			op = OpSpace
		}
		m.terms = append(m.terms, term.withOp(op))
		op = OpNone
	}
}

func (m *ruleMachine) endValue(tok Token, op Operator) (parseState, *syntaxError) {
	if op != OpNone {
		return expectPropertyOrBlockClose, declarationError(tok, "value of %q ends with %q", m.property, op.String())
	}
	if len(m.terms) == 0 {
		return expectPropertyOrBlockClose, declarationError(tok, "empty value for %q", m.property)
	}
	return expectSemicolonOrBlockClose, nil
}

func (m *ruleMachine) semicolonOrBlockClose() (parseState, *syntaxError) {
	tok := m.p.s.current()
	switch tok.Type {
	case TokenSemicolon:
		m.p.s.consume()
	case TokenCloseCurly, TokenEOF:
	default:
		return expectPropertyOrBlockClose, declarationError(tok, "unexpected %s after value of %q", tok, m.property)
	}
	m.declarations = append(m.declarations, Declaration{
		property:  m.property,
		terms:     m.terms,
		important: m.important,
	})
	m.resetDeclaration()
	return expectPropertyOrBlockClose, nil
}

// parseTerm parses one value term. Inside functions, arithmetic operators
// are kept as ident terms so calc() and friends survive.
func (p *sheetParser) parseTerm(inFunction bool) (Term, *syntaxError) {
	tok := p.s.current()
	switch tok.Type {
	case TokenFunction, TokenOpenParen:
		if tok.Type == TokenOpenParen && !inFunction {
			break
		}
		return p.parseFunction()
	case TokenOpenSquare:
		return p.parseBracketedIdents()
	case TokenIdent:
		if strings.EqualFold(tok.Value, "u") {
			if term, ok := p.parseUnicodeRange(); ok {
				return term, nil
			}
		}
	case TokenBadString, TokenBadURL, TokenBadBracket:
		return nil, termError(tok, "malformed input %s", tok)
	case TokenOpenCurly:
		return nil, termError(tok, "unexpected block in value")
	case TokenDelim:
		if inFunction && strings.ContainsRune("+-*", tok.Delim) {
			p.s.consume()
			return Ident{Value: string(tok.Delim)}, nil
		}
	}

	term, ok := termFromToken(tok, p.base)
	if !ok {
		return nil, termError(tok, "unexpected %s in value", tok)
	}
	p.s.consume()
	return term, nil
}

// parseUnicodeRange reassembles a range such as U+0025-00FF, which the
// tokenizer splits into an ident followed by number, ident and delim tokens.
// The longest run of adjacent tokens that forms a valid range is consumed.
func (p *sheetParser) parseUnicodeRange() (Term, bool) {
	text := p.s.current().Value
	n := 0
	var start, end rune
	for i := 1; ; i++ {
		tok := p.s.peek(i)
		if tok.SpaceBefore || !isUnicodeRangePart(tok) {
			break
		}
		text += tokenText(tok)
		if s, e, ok := ParseUnicodeRange(text); ok {
			n, start, end = i, s, e
		}
	}
	if n == 0 {
		return nil, false
	}
	for i := 0; i <= n; i++ {
		p.s.consume()
	}
	return Ident{Value: unicodeRangeText(start, end)}, true
}

func isUnicodeRangePart(tok Token) bool {
	switch tok.Type {
	case TokenNumber, TokenDimension, TokenIdent:
		return true
	case TokenDelim:
		return tok.Delim == '+' || tok.Delim == '-' || tok.Delim == '?'
	}
	return false
}

// parseFunction parses a function call, or a parenthesized group inside
// one, up to its closing parenthesis.
func (p *sheetParser) parseFunction() (Term, *syntaxError) {
	open := p.s.consume()
	var args []Term
	op := OpNone
	for {
		tok := p.s.current()
		switch {
		case tok.Type == TokenCloseParen:
			if op != OpNone {
				return nil, termError(tok, "argument list ends with %q", op.String())
			}
			p.s.consume()
			if open.Type == TokenOpenParen {
				return NewFunction("", args), nil
			}
			return functionTerm(open.Value, args, p.base), nil

		case tok.Type == TokenEOF || tok.Type == TokenSemicolon || tok.Type == TokenCloseCurly:
			return nil, termError(open, "unclosed function %s", tokenText(open))

		case tok.Type == TokenComma, tok.Type == TokenDelim && tok.Delim == '/':
			if len(args) == 0 || op != OpNone {
				return nil, termError(tok, "unexpected %s in arguments", tok)
			}
			p.s.consume()
			op = OpComma
			if tok.Type == TokenDelim {
				op = OpSlash
			}
			continue
		}

		term, err := p.parseTerm(true)
		if err != nil {
			return nil, err
		}
		if op == OpNone && len(args) > 0 {
			op = OpSpace
		}
		args = append(args, term.withOp(op))
		op = OpNone
	}
}

func (p *sheetParser) parseBracketedIdents() (Term, *syntaxError) {
	open := p.s.consume()
	var idents []string
	for {
		tok := p.s.current()
		switch tok.Type {
		case TokenIdent:
			p.s.consume()
			idents = append(idents, tok.Value)
		case TokenCloseSquare:
			p.s.consume()
			list, ok := NewBracketedIdents(idents...)
			if !ok {
				return nil, termError(open, "empty bracketed list")
			}
			return list, nil
		default:
			return nil, termError(tok, "expected identifier in brackets, got %s", tok)
		}
	}
}

// collectPrelude consumes tokens up to, not including, the '{' opening a
// rule's block.
func (p *sheetParser) collectPrelude(nested bool) ([]Token, *syntaxError) {
	var prelude []Token
	for {
		tok := p.s.current()
		switch tok.Type {
		case TokenOpenCurly:
			return prelude, nil
		case TokenEOF:
			return nil, ruleError(tok, "unexpected end of input in rule prelude")
		case TokenCloseCurly:
			if nested {
				return nil, ruleError(tok, "unexpected '}' in rule prelude")
			}
		}
		prelude = append(prelude, p.s.consume())
	}
}

// collectAtPrelude consumes an at-rule prelude up to, not including, the
// '{' or ';' that ends it. The returned token is the one that ended it.
func (p *sheetParser) collectAtPrelude(nested bool) ([]Token, Token) {
	var prelude []Token
	for {
		tok := p.s.current()
		switch tok.Type {
		case TokenOpenCurly, TokenSemicolon, TokenEOF:
			return prelude, tok
		case TokenCloseCurly:
			if nested {
				return prelude, tok
			}
		}
		prelude = append(prelude, p.s.consume())
	}
}

// skipDeclaration skips to the next ';' (consumed) or the '}' closing the
// current block (not consumed). Nested blocks are skipped whole.
func (p *sheetParser) skipDeclaration() {
	depth := 0
	for {
		tok := p.s.current()
		switch tok.Type {
		case TokenEOF:
			return
		case TokenOpenCurly:
			depth++
		case TokenCloseCurly:
			if depth == 0 {
				return
			}
			depth--
		case TokenSemicolon:
			if depth == 0 {
				p.s.consume()
				return
			}
		}
		p.s.consume()
	}
}

// skipRule skips the rest of a statement: up to a top-level ';' or through
// the end of the next balanced block. Inside @media a '}' at depth zero
// closes the enclosing block and is left in place.
func (p *sheetParser) skipRule(nested bool) {
	depth := 0
	for {
		tok := p.s.current()
		switch tok.Type {
		case TokenEOF:
			return
		case TokenSemicolon:
			if depth == 0 {
				p.s.consume()
				return
			}
		case TokenOpenCurly:
			depth++
		case TokenCloseCurly:
			if depth == 0 && nested {
				return
			}
			p.s.consume()
			if depth <= 1 {
				return
			}
			depth--
			continue
		}
		p.s.consume()
	}
}

// parseStatement parses one rule starting at the current token: an
// at-rule or a rule set. It returns a nil rule for at-rules that are
// skipped without error.
func (p *sheetParser) parseStatement(nested bool) (Rule, *syntaxError) {
	if p.s.current().Type == TokenAtKeyword {
		return p.parseAtRule(nested)
	}
	rs, err := p.parseRuleSet(nested)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func (p *sheetParser) parseRuleSet(nested bool) (*RuleSet, *syntaxError) {
	m := &ruleMachine{p: p, state: expectSelectorOrAtRule, nested: nested}
	if err := m.run(); err != nil {
		return nil, err
	}
	rs := &RuleSet{selectors: m.selectors}
	rs.declarations = m.declarations
	return rs, nil
}

// parseDeclarationBlock parses "{ declarations }" at the current token.
func (p *sheetParser) parseDeclarationBlock() ([]Declaration, *syntaxError) {
	m := &ruleMachine{p: p, state: expectBlockOpen}
	if err := m.run(); err != nil {
		return nil, err
	}
	return m.declarations, nil
}

// parseInlineDeclarations parses a declaration list without braces.
func (p *sheetParser) parseInlineDeclarations() []Declaration {
	m := &ruleMachine{p: p, state: expectPropertyOrBlockClose, inline: true}
	if err := m.run(); err != nil {
		p.logRecovery(err)
	}
	return m.declarations
}

func (p *sheetParser) parseAtRule(nested bool) (Rule, *syntaxError) {
	kw := p.s.consume()
	switch name := strings.ToLower(kw.Value); {
	case name == "import" && !nested:
		return p.parseImport(kw)
	case name == "media" && !nested:
		return p.parseMedia(kw)
	case name == "font-face":
		return p.parseFontFace(kw, nested)
	case name == "page":
		return p.parsePage(kw, nested)
	}
	p.skipRule(nested)
	p.log.Debug("skipped unsupported at-rule",
		zap.String("name", kw.Value),
		zap.Int("line", kw.Line),
		zap.Int("column", kw.Column))
	return nil, nil
}

func (p *sheetParser) parseImport(kw Token) (Rule, *syntaxError) {
	prelude, end := p.collectAtPrelude(false)
	if end.Type == TokenOpenCurly {
		return nil, ruleError(end, "unexpected block after @import")
	}

	var uri URI
	switch {
	case len(prelude) > 0 && (prelude[0].Type == TokenURL || prelude[0].Type == TokenString):
		uri = NewURI(prelude[0].Value, p.base)
		prelude = prelude[1:]
	case len(prelude) > 2 && prelude[0].Type == TokenFunction && strings.EqualFold(prelude[0].Value, "url") &&
		prelude[1].Type == TokenString && prelude[2].Type == TokenCloseParen:
		uri = NewURI(prelude[1].Value, p.base)
		prelude = prelude[3:]
	default:
		return nil, ruleError(kw, "@import without a url")
	}

	media, err := mediaList(prelude)
	if err != nil {
		return nil, err
	}
	if end.Type == TokenSemicolon {
		p.s.consume()
	}
	return &ImportRule{uri: uri, media: media}, nil
}

func (p *sheetParser) parseMedia(kw Token) (Rule, *syntaxError) {
	prelude, end := p.collectAtPrelude(false)
	if end.Type != TokenOpenCurly {
		return nil, ruleError(kw, "@media without a block")
	}
	media, err := mediaList(prelude)
	if err != nil {
		return nil, err
	}
	p.s.consume() // {

	rule := &MediaRule{media: media}
	for {
		tok := p.s.current()
		switch tok.Type {
		case TokenEOF:
			return nil, ruleError(tok, "unexpected end of input in @media block")
		case TokenCloseCurly:
			p.s.consume()
			return rule, nil
		case TokenAtKeyword:
			p.s.consume()
			p.skipRule(true)
			p.log.Debug("skipped at-rule nested in @media",
				zap.String("name", tok.Value),
				zap.Int("line", tok.Line),
				zap.Int("column", tok.Column))
			continue
		}
		rs, err := p.parseRuleSet(true)
		if err != nil {
			p.logRecovery(err)
			p.skipRule(true)
			continue
		}
		rule.rules = append(rule.rules, rs)
	}
}

func (p *sheetParser) parseFontFace(kw Token, nested bool) (Rule, *syntaxError) {
	prelude, end := p.collectAtPrelude(nested)
	if len(prelude) > 0 || end.Type != TokenOpenCurly {
		return nil, ruleError(kw, "malformed @font-face")
	}
	decls, err := p.parseDeclarationBlock()
	if err != nil {
		return nil, err
	}
	return &FontFaceRule{declarationList{decls}}, nil
}

var pageSelectors = map[string]bool{"first": true, "left": true, "right": true, "blank": true}

func (p *sheetParser) parsePage(kw Token, nested bool) (Rule, *syntaxError) {
	prelude, end := p.collectAtPrelude(nested)
	if end.Type != TokenOpenCurly {
		return nil, ruleError(kw, "@page without a block")
	}

	rule := &PageRule{}
	switch {
	case len(prelude) == 0:
	case len(prelude) == 2 && prelude[0].Type == TokenColon && prelude[1].Type == TokenIdent &&
		!prelude[1].SpaceBefore && pageSelectors[strings.ToLower(prelude[1].Value)]:
		rule.pseudo = strings.ToLower(prelude[1].Value)
	default:
		return nil, ruleError(kw, "invalid @page selector %q", tokensText(prelude))
	}

	decls, err := p.parseDeclarationBlock()
	if err != nil {
		return nil, err
	}
	rule.declarations = decls
	return rule, nil
}

// mediaList splits a media query list on top-level commas. Each query is
// kept as lower-cased text with whitespace collapsed.
func mediaList(tokens []Token) ([]string, *syntaxError) {
	if len(tokens) == 0 {
		return nil, nil
	}
	var (
		media []string
		start int
		depth int
	)
	flush := func(end int, at Token) *syntaxError {
		q := strings.ToLower(strings.TrimSpace(tokensText(tokens[start:end])))
		if q == "" {
			return ruleError(at, "empty media query")
		}
		media = append(media, q)
		start = end + 1
		return nil
	}
	for i, tok := range tokens {
		switch tok.Type {
		case TokenOpenParen, TokenFunction:
			depth++
		case TokenCloseParen:
			depth--
		case TokenComma:
			if depth == 0 {
				if err := flush(i, tok); err != nil {
					return nil, err
				}
			}
		}
	}
	if err := flush(len(tokens), tokens[len(tokens)-1]); err != nil {
		return nil, err
	}
	return media, nil
}
