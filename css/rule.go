package css

import "strings"

// RuleType identifies the kind of a Rule.
type RuleType int

const (
	StyleRuleType RuleType = iota + 1
	ImportRuleType
	MediaRuleType
	FontFaceRuleType
	PageRuleType
)

func (t RuleType) String() string {
	switch t {
	case StyleRuleType:
		return "style"
	case ImportRuleType:
		return "import"
	case MediaRuleType:
		return "media"
	case FontFaceRuleType:
		return "font-face"
	case PageRuleType:
		return "page"
	}
	return "unknown"
}

// Rule is a top-level statement of a stylesheet. Implementations are
// *RuleSet, *ImportRule, *MediaRule, *FontFaceRule and *PageRule.
type Rule interface {
	Type() RuleType
	isRule()
}

// Declaration is a property with its value terms.
type Declaration struct {
	property  string
	terms     []Term
	important bool
}

// Property returns the property name, lower-cased unless it is a custom
// property.
func (d Declaration) Property() string { return d.property }

// Important reports whether the declaration ended with !important.
func (d Declaration) Important() bool { return d.important }

// Len returns the number of value terms.
func (d Declaration) Len() int { return len(d.terms) }

// Term returns the i-th value term.
func (d Declaration) Term(i int) Term { return d.terms[i] }

// Terms returns a copy of the value terms in source order.
func (d Declaration) Terms() []Term {
	return append([]Term(nil), d.terms...)
}

func (d Declaration) String() string {
	s := d.property + ": " + formatTerms(d.terms)
	if d.important {
		s += " !important"
	}
	return s
}

// declarationList is shared by rules whose body is a declaration block.
type declarationList struct {
	declarations []Declaration
}

// Len returns the number of declarations.
func (l declarationList) Len() int { return len(l.declarations) }

// Declaration returns the i-th declaration.
func (l declarationList) Declaration(i int) Declaration { return l.declarations[i] }

// Declarations returns a copy of the declarations in source order.
func (l declarationList) Declarations() []Declaration {
	return append([]Declaration(nil), l.declarations...)
}

// RuleSet is a style rule: a selector group and a declaration block.
type RuleSet struct {
	selectors []Selector
	declarationList
}

func (*RuleSet) Type() RuleType { return StyleRuleType }
func (*RuleSet) isRule()        {}

// Selectors returns a copy of the selector group.
func (r *RuleSet) Selectors() []Selector {
	return append([]Selector(nil), r.selectors...)
}

// SelectorText returns the selector group joined by ", ".
func (r *RuleSet) SelectorText() string {
	parts := make([]string, len(r.selectors))
	for i, s := range r.selectors {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

// ImportRule is an @import statement.
type ImportRule struct {
	uri   URI
	media []string
}

func (*ImportRule) Type() RuleType { return ImportRuleType }
func (*ImportRule) isRule()        {}

// URI returns the imported stylesheet reference.
func (r *ImportRule) URI() URI { return r.uri }

// Media returns the media queries the import is restricted to.
func (r *ImportRule) Media() []string {
	return append([]string(nil), r.media...)
}

// MediaRule is an @media block. Queries are kept as text and never
// evaluated.
type MediaRule struct {
	media []string
	rules []*RuleSet
}

func (*MediaRule) Type() RuleType { return MediaRuleType }
func (*MediaRule) isRule()        {}

// Media returns the media query list.
func (r *MediaRule) Media() []string {
	return append([]string(nil), r.media...)
}

// Len returns the number of nested rule sets.
func (r *MediaRule) Len() int { return len(r.rules) }

// Rule returns the i-th nested rule set.
func (r *MediaRule) Rule(i int) *RuleSet { return r.rules[i] }

// Rules returns a copy of the nested rule sets.
func (r *MediaRule) Rules() []*RuleSet {
	return append([]*RuleSet(nil), r.rules...)
}

// FontFaceRule is an @font-face block.
type FontFaceRule struct {
	declarationList
}

func (*FontFaceRule) Type() RuleType { return FontFaceRuleType }
func (*FontFaceRule) isRule()        {}

// PageRule is an @page block.
type PageRule struct {
	pseudo string
	declarationList
}

func (*PageRule) Type() RuleType { return PageRuleType }
func (*PageRule) isRule()        {}

// Pseudo returns the page selector without the colon ("first", "left",
// "right", "blank") or "" for all pages.
func (r *PageRule) Pseudo() string { return r.pseudo }
