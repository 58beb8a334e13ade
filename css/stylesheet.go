package css

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// StyleSheet is a parsed stylesheet: its rules in source order.
type StyleSheet struct {
	rules []Rule
}

// Len returns the number of rules.
func (s *StyleSheet) Len() int { return len(s.rules) }

// Rule returns the i-th rule.
func (s *StyleSheet) Rule(i int) Rule { return s.rules[i] }

// Rules returns a copy of the rules.
func (s *StyleSheet) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// RuleSets returns the top-level rule sets, skipping at-rules.
func (s *StyleSheet) RuleSets() []*RuleSet {
	var sets []*RuleSet
	for _, r := range s.rules {
		if rs, ok := r.(*RuleSet); ok {
			sets = append(sets, rs)
		}
	}
	return sets
}

// Parser parses stylesheets. It holds only configuration, so a single
// Parser can be shared between goroutines.
type Parser struct {
	baseURL string
	log     *zap.Logger
}

// NewParser creates a parser configured by opts.
func NewParser(opts ...Option) *Parser {
	p := &Parser{log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Parser) newSheetParser(text string) *sheetParser {
	return &sheetParser{
		s:    newTokenStream(text),
		base: p.baseURL,
		log:  p.log,
	}
}

// ParseString parses decoded stylesheet text. Malformed rules and
// declarations are dropped; parsing itself never fails.
func (p *Parser) ParseString(text string) *StyleSheet {
	return p.newSheetParser(text).parseStyleSheet()
}

// Parse reads r to the end and parses it as UTF-8 stylesheet text. Only
// read errors are returned.
func (p *Parser) Parse(r io.Reader) (*StyleSheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read stylesheet: %w", err)
	}
	return p.ParseString(string(data)), nil
}

// ParseDeclarations parses a declaration list without braces, such as
// the value of an HTML style attribute.
func (p *Parser) ParseDeclarations(text string) []Declaration {
	return p.newSheetParser(text).parseInlineDeclarations()
}

// ParseString parses stylesheet text with a parser configured by opts.
func ParseString(text string, opts ...Option) *StyleSheet {
	return NewParser(opts...).ParseString(text)
}

// Parse parses a stylesheet read from r with a parser configured by opts.
func Parse(r io.Reader, opts ...Option) (*StyleSheet, error) {
	return NewParser(opts...).Parse(r)
}

// ParseDeclarations parses a declaration list without braces.
func ParseDeclarations(text string, opts ...Option) []Declaration {
	return NewParser(opts...).ParseDeclarations(text)
}

// parseStyleSheet drives the rule parser until the end of input.
func (p *sheetParser) parseStyleSheet() *StyleSheet {
	sheet := &StyleSheet{}
	p.skipCharset()

	importsAllowed := true
	for !p.s.atEOF() {
		tok := p.s.current()
		switch tok.Type {
		case TokenCDO, TokenCDC:
			p.s.consume()
			continue
		case TokenAtKeyword:
			switch strings.ToLower(tok.Value) {
			case "import":
				if !importsAllowed {
					p.s.consume()
					p.skipRule(false)
					p.log.Debug("ignored @import after other rules",
						zap.Int("line", tok.Line),
						zap.Int("column", tok.Column))
					continue
				}
			case "charset":
			default:
				importsAllowed = false
			}
		default:
			importsAllowed = false
		}

		rule, err := p.parseStatement(false)
		if err != nil {
			p.logRecovery(err)
			p.skipRule(false)
			continue
		}
		if rule != nil {
			sheet.rules = append(sheet.rules, rule)
		}
	}
	return sheet
}

// skipCharset consumes a leading @charset "name"; statement. Only this
// exact form is recognized.
func (p *sheetParser) skipCharset() {
	m := p.s.mark()
	kw, name, semi := p.s.consume(), p.s.consume(), p.s.consume()
	if kw.Type == TokenAtKeyword && kw.Value == "charset" && !kw.SpaceBefore &&
		name.Type == TokenString && name.SpaceBefore &&
		semi.Type == TokenSemicolon && !semi.SpaceBefore {
		p.log.Debug("skipped @charset", zap.String("charset", name.Value))
		return
	}
	p.s.reset(m)
}
