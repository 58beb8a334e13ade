package css

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSelector is returned by ParseSelectors for malformed selectors
// and for pseudo-classes or pseudo-elements outside the known vocabulary.
var ErrInvalidSelector = errors.New("invalid selector")

// Combinator joins a compound selector to the one before it.
type Combinator int

const (
	CombinatorNone              Combinator = iota // first compound
	CombinatorDescendant                          // (whitespace)
	CombinatorChild                               // >
	CombinatorNextSibling                         // +
	CombinatorSubsequentSibling                   // ~
)

var delimCombinators = map[rune]Combinator{
	'>': CombinatorChild,
	'+': CombinatorNextSibling,
	'~': CombinatorSubsequentSibling,
}

func (c Combinator) String() string {
	switch c {
	case CombinatorDescendant:
		return " "
	case CombinatorChild:
		return ">"
	case CombinatorNextSibling:
		return "+"
	case CombinatorSubsequentSibling:
		return "~"
	}
	return ""
}

// Selector is one complex selector of a comma separated group: compound
// selectors joined by combinators.
type Selector struct {
	compounds []CompoundSelector
}

// Len returns the number of compound selectors.
func (s Selector) Len() int { return len(s.compounds) }

// Compound returns the i-th compound selector.
func (s Selector) Compound(i int) CompoundSelector { return s.compounds[i] }

// Compounds returns a copy of the compound selectors in source order.
func (s Selector) Compounds() []CompoundSelector {
	return append([]CompoundSelector(nil), s.compounds...)
}

func (s Selector) String() string {
	var sb strings.Builder
	for _, c := range s.compounds {
		sb.WriteString(c.Combinator.String())
		sb.WriteString(c.String())
	}
	return sb.String()
}

// CompoundSelector is a sequence of simple selectors without combinators.
type CompoundSelector struct {
	// Combinator joining this compound to the previous one.
	Combinator Combinator
	// Element is the type selector, "*" for the universal selector or
	// empty when absent. Case is preserved.
	Element       string
	IDs           []string
	Classes       []string
	Attributes    []AttributeMatcher
	PseudoClasses []PseudoClass
	// PseudoElement is empty when the compound has none.
	PseudoElement string
}

func (c CompoundSelector) String() string {
	var sb strings.Builder
	sb.WriteString(c.Element)
	for _, id := range c.IDs {
		sb.WriteString("#")
		sb.WriteString(id)
	}
	for _, class := range c.Classes {
		sb.WriteString(".")
		sb.WriteString(class)
	}
	for _, attr := range c.Attributes {
		sb.WriteString(attr.String())
	}
	for _, pc := range c.PseudoClasses {
		sb.WriteString(pc.String())
	}
	if c.PseudoElement != "" {
		sb.WriteString("::")
		sb.WriteString(c.PseudoElement)
	}
	return sb.String()
}

// AttributeMatcher represents an attribute selector.
type AttributeMatcher struct {
	Name            string
	Operator        AttributeOperator
	Value           string
	CaseInsensitive bool
}

// AttributeOperator represents the operator in an attribute selector.
type AttributeOperator int

const (
	AttrExists    AttributeOperator = iota // [attr]
	AttrEquals                             // [attr=value]
	AttrIncludes                           // [attr~=value]
	AttrDashMatch                          // [attr|=value]
	AttrPrefix                             // [attr^=value]
	AttrSuffix                             // [attr$=value]
	AttrSubstring                          // [attr*=value]
)

var attrOperators = map[rune]AttributeOperator{
	'~': AttrIncludes,
	'|': AttrDashMatch,
	'^': AttrPrefix,
	'$': AttrSuffix,
	'*': AttrSubstring,
}

func (op AttributeOperator) String() string {
	switch op {
	case AttrEquals:
		return "="
	case AttrIncludes:
		return "~="
	case AttrDashMatch:
		return "|="
	case AttrPrefix:
		return "^="
	case AttrSuffix:
		return "$="
	case AttrSubstring:
		return "*="
	}
	return ""
}

func (a AttributeMatcher) String() string {
	if a.Operator == AttrExists {
		return "[" + a.Name + "]"
	}
	s := "[" + a.Name + a.Operator.String() + `"` + strings.ReplaceAll(a.Value, `"`, `\"`) + `"`
	if a.CaseInsensitive {
		s += " i"
	}
	return s + "]"
}

// PseudoClass is a pseudo-class such as :hover or :nth-child(2n+1).
type PseudoClass struct {
	Name string
	// Argument is the raw text of :nth-*(), :lang() and :dir() arguments.
	Argument string
	// Selectors holds the parsed argument of :not(), :is(), :where() and
	// :has(). Selectors of :has() may start with a combinator, kept on the
	// first compound.
	Selectors []Selector
}

func (pc PseudoClass) String() string {
	arg, ok := lookupPseudoClass(pc.Name, true)
	if !ok {
		return ":" + pc.Name
	}
	if arg == argSelectorList || arg == argRelativeSelectorList {
		parts := make([]string, len(pc.Selectors))
		for i, s := range pc.Selectors {
			parts[i] = s.String()
		}
		return ":" + pc.Name + "(" + strings.Join(parts, ", ") + ")"
	}
	return ":" + pc.Name + "(" + pc.Argument + ")"
}

// ParseSelectors parses a comma separated selector group.
func ParseSelectors(text string) ([]Selector, error) {
	tokens := NewTokenizer(text).TokenizeAll()
	return parseSelectorList(tokens[:len(tokens)-1])
}

// selectorParser parses selectors from an already tokenized prelude.
type selectorParser struct {
	tokens []Token
	pos    int
	// relative allows each selector to start with a combinator.
	relative bool
}

func parseSelectorList(tokens []Token) ([]Selector, error) {
	p := &selectorParser{tokens: tokens}
	return p.parseSelectorList()
}

func parseRelativeSelectorList(tokens []Token) ([]Selector, error) {
	p := &selectorParser{tokens: tokens, relative: true}
	return p.parseSelectorList()
}

func (p *selectorParser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *selectorParser) consume() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *selectorParser) errorf(tok Token, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if tok.Line > 0 {
		return fmt.Errorf("%w: %s at %d:%d", ErrInvalidSelector, msg, tok.Line, tok.Column)
	}
	return fmt.Errorf("%w: %s", ErrInvalidSelector, msg)
}

// parseSelectorList parses a selector list.
func (p *selectorParser) parseSelectorList() ([]Selector, error) {
	var selectors []Selector
	for {
		sel, err := p.parseComplexSelector()
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, sel)

		tok := p.current()
		switch tok.Type {
		case TokenEOF:
			return selectors, nil
		case TokenComma:
			p.consume()
		default:
			return nil, p.errorf(tok, "unexpected %s", tok)
		}
	}
}

// parseComplexSelector parses compound selectors up to a comma or the end.
func (p *selectorParser) parseComplexSelector() (Selector, error) {
	var sel Selector
	comb := CombinatorNone
	if tok := p.current(); p.relative && tok.Type == TokenDelim {
		if c, ok := delimCombinators[tok.Delim]; ok {
			p.consume()
			comb = c
		}
	}

	for {
		compound, ok, err := p.parseCompoundSelector()
		if err != nil {
			return Selector{}, err
		}
		if !ok {
			return Selector{}, p.errorf(p.current(), "expected selector, got %s", p.current())
		}
		compound.Combinator = comb
		sel.compounds = append(sel.compounds, compound)

		tok := p.current()
		switch tok.Type {
		case TokenEOF, TokenComma:
			return sel, nil
		case TokenDelim:
			if c, ok := delimCombinators[tok.Delim]; ok {
				p.consume()
				comb = c
				continue
			}
		}
		if !tok.SpaceBefore {
			return Selector{}, p.errorf(tok, "unexpected %s", tok)
		}
		comb = CombinatorDescendant
	}
}

// parseCompoundSelector parses a compound selector. It reports false when
// the current token cannot start one.
func (p *selectorParser) parseCompoundSelector() (CompoundSelector, bool, error) {
	var compound CompoundSelector
	first := true

loop:
	for ; ; first = false {
		tok := p.current()
		if !first && tok.SpaceBefore {
			break
		}
		if compound.PseudoElement != "" && continuesCompound(tok) {
			return compound, false, p.errorf(tok, "selector continues after pseudo-element ::%s", compound.PseudoElement)
		}
		switch tok.Type {
		case TokenIdent:
			if !first {
				return compound, false, p.errorf(tok, "type selector %q must come first", tok.Value)
			}
			compound.Element = p.consume().Value

		case TokenHash:
			if tok.HashType != HashID {
				return compound, false, p.errorf(tok, "invalid id selector #%s", tok.Value)
			}
			compound.IDs = append(compound.IDs, p.consume().Value)

		case TokenDelim:
			switch tok.Delim {
			case '*':
				if !first {
					return compound, false, p.errorf(tok, "universal selector must come first")
				}
				p.consume()
				compound.Element = "*"
			case '.':
				p.consume()
				name := p.current()
				if name.Type != TokenIdent || name.SpaceBefore {
					return compound, false, p.errorf(name, "expected class name after '.'")
				}
				compound.Classes = append(compound.Classes, p.consume().Value)
			default:
				break loop
			}

		case TokenOpenSquare:
			attr, err := p.parseAttributeSelector()
			if err != nil {
				return compound, false, err
			}
			compound.Attributes = append(compound.Attributes, attr)

		case TokenColon:
			if err := p.parsePseudo(&compound); err != nil {
				return compound, false, err
			}

		default:
			break loop
		}
	}

	return compound, !first, nil
}

func continuesCompound(tok Token) bool {
	switch tok.Type {
	case TokenIdent, TokenHash, TokenOpenSquare, TokenColon:
		return true
	case TokenDelim:
		return tok.Delim == '.' || tok.Delim == '*'
	}
	return false
}

// parseAttributeSelector parses an attribute selector.
func (p *selectorParser) parseAttributeSelector() (AttributeMatcher, error) {
	var attr AttributeMatcher
	p.consume() // [

	tok := p.consume()
	if tok.Type != TokenIdent {
		return attr, p.errorf(tok, "expected attribute name")
	}
	attr.Name = tok.Value

	tok = p.consume()
	if tok.Type == TokenCloseSquare {
		attr.Operator = AttrExists
		return attr, nil
	}
	if tok.Type != TokenDelim {
		return attr, p.errorf(tok, "expected attribute operator")
	}
	if tok.Delim == '=' {
		attr.Operator = AttrEquals
	} else {
		op, ok := attrOperators[tok.Delim]
		eq := p.consume()
		if !ok || eq.Type != TokenDelim || eq.Delim != '=' || eq.SpaceBefore {
			return attr, p.errorf(tok, "invalid attribute operator")
		}
		attr.Operator = op
	}

	tok = p.consume()
	if tok.Type != TokenString && tok.Type != TokenIdent {
		return attr, p.errorf(tok, "expected attribute value")
	}
	attr.Value = tok.Value

	tok = p.consume()
	if tok.Type == TokenIdent && (strings.EqualFold(tok.Value, "i") || strings.EqualFold(tok.Value, "s")) {
		attr.CaseInsensitive = strings.EqualFold(tok.Value, "i")
		tok = p.consume()
	}
	if tok.Type != TokenCloseSquare {
		return attr, p.errorf(tok, "expected ']'")
	}
	return attr, nil
}

// parsePseudo parses a pseudo-class or pseudo-element into compound. The
// current token is the first colon.
func (p *selectorParser) parsePseudo(compound *CompoundSelector) error {
	p.consume() // :

	element := false
	if next := p.current(); next.Type == TokenColon && !next.SpaceBefore {
		p.consume()
		element = true
	}

	tok := p.consume()
	if tok.SpaceBefore {
		return p.errorf(tok, "whitespace after ':'")
	}

	switch tok.Type {
	case TokenIdent:
		name := strings.ToLower(tok.Value)
		if element {
			if !isPseudoElement(name) {
				return p.errorf(tok, "unknown pseudo-element ::%s", tok.Value)
			}
			compound.PseudoElement = name
			return nil
		}
		if _, ok := lookupPseudoClass(name, false); ok {
			compound.PseudoClasses = append(compound.PseudoClasses, PseudoClass{Name: name})
			return nil
		}
		if isLegacyPseudoElement(name) {
			compound.PseudoElement = name
			return nil
		}
		return p.errorf(tok, "unknown pseudo-class :%s", tok.Value)

	case TokenFunction:
		name := strings.ToLower(tok.Value)
		arg, ok := lookupPseudoClass(name, true)
		if element || !ok {
			return p.errorf(tok, "unknown functional pseudo %s()", tok.Value)
		}
		args, err := p.consumeFunctionArgs(tok)
		if err != nil {
			return err
		}
		pc := PseudoClass{Name: name}
		switch arg {
		case argSelectorList:
			if pc.Selectors, err = parseSelectorList(args); err != nil {
				return err
			}
		case argRelativeSelectorList:
			if pc.Selectors, err = parseRelativeSelectorList(args); err != nil {
				return err
			}
		default:
			pc.Argument = strings.TrimSpace(tokensText(args))
			if pc.Argument == "" {
				return p.errorf(tok, "empty argument to :%s()", name)
			}
		}
		compound.PseudoClasses = append(compound.PseudoClasses, pc)
		return nil
	}

	return p.errorf(tok, "expected pseudo-class name, got %s", tok)
}

// consumeFunctionArgs returns the tokens up to the parenthesis closing fn.
func (p *selectorParser) consumeFunctionArgs(fn Token) ([]Token, error) {
	var args []Token
	depth := 1
	for {
		tok := p.consume()
		switch tok.Type {
		case TokenEOF:
			return nil, p.errorf(fn, "unclosed %s()", fn.Value)
		case TokenOpenParen, TokenFunction:
			depth++
		case TokenCloseParen:
			depth--
			if depth == 0 {
				return args, nil
			}
		}
		args = append(args, tok)
	}
}

// Specificity represents CSS selector specificity.
// Per https://www.w3.org/TR/selectors-4/#specificity
type Specificity struct {
	A int // ID selectors
	B int // Class selectors, attribute selectors, pseudo-classes
	C int // Type selectors, pseudo-elements
}

// Compare compares two specificities. Returns -1, 0, or 1.
func (s Specificity) Compare(other Specificity) int {
	switch {
	case s.A != other.A:
		return sign(s.A - other.A)
	case s.B != other.B:
		return sign(s.B - other.B)
	default:
		return sign(s.C - other.C)
	}
}

// Less returns true if this specificity is less than the other.
func (s Specificity) Less(other Specificity) bool {
	return s.Compare(other) < 0
}

func (s Specificity) add(o Specificity) Specificity {
	return Specificity{A: s.A + o.A, B: s.B + o.B, C: s.C + o.C}
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}

// Specificity calculates the specificity of the selector. :is(), :not()
// and :has() count as their most specific argument, :where() counts zero.
func (s Selector) Specificity() Specificity {
	var spec Specificity
	for _, compound := range s.compounds {
		spec.A += len(compound.IDs)
		spec.B += len(compound.Classes)
		spec.B += len(compound.Attributes)
		for _, pc := range compound.PseudoClasses {
			switch pc.Name {
			case "where":
			case "is", "not", "has":
				spec = spec.add(maxSpecificity(pc.Selectors))
			default:
				spec.B++
			}
		}
		if compound.Element != "" && compound.Element != "*" {
			spec.C++
		}
		if compound.PseudoElement != "" {
			spec.C++
		}
	}
	return spec
}

func maxSpecificity(selectors []Selector) Specificity {
	var maxSpec Specificity
	for _, s := range selectors {
		if spec := s.Specificity(); maxSpec.Less(spec) {
			maxSpec = spec
		}
	}
	return maxSpec
}
