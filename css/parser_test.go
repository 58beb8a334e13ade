package css

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// properties returns "property: value" strings for a declaration list.
func properties(decls []Declaration) []string {
	var out []string
	for _, d := range decls {
		out = append(out, d.String())
	}
	return out
}

func onlyRuleSet(t *testing.T, text string) *RuleSet {
	t.Helper()
	sheet := ParseString(text)
	require.Equal(t, 1, sheet.Len(), "rules in %q", text)
	rs, ok := sheet.Rule(0).(*RuleSet)
	require.True(t, ok, "expected a rule set, got %T", sheet.Rule(0))
	return rs
}

func TestParserBasicStylesheet(t *testing.T) {
	rs := onlyRuleSet(t, `
		body {
			color: black;
		}
	`)

	assert.Equal(t, "body", rs.SelectorText())
	require.Equal(t, 1, rs.Len())
	decl := rs.Declaration(0)
	assert.Equal(t, "color", decl.Property())
	assert.False(t, decl.Important())
	assert.Equal(t, RGBA(0, 0, 0, 255), decl.Term(0))
}

func TestParserSelectorsNearUnicodeRanges(t *testing.T) {
	for _, text := range []string{"u+a", "u+b", "u+div", "u ~ em", "a:has(> img)", "li:has(+ li)"} {
		rs := onlyRuleSet(t, text+" { color: red }")
		sel, err := ParseSelectors(text)
		require.NoError(t, err)
		assert.Equal(t, sel[0].String(), rs.SelectorText())
		assert.Equal(t, []string{"color: #ff0000"}, properties(rs.Declarations()))
	}
}

func TestParserDeclarationRecovery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty value", "p { color: red; width: ; height: 10px }", []string{"color: #ff0000", "height: 10px"}},
		{"missing colon", "p { color red; margin: 1px }", []string{"margin: 1px"}},
		{"missing property", "p { : red; margin: 1px }", []string{"margin: 1px"}},
		{"stray semicolons", "p { ;; color: red;; }", []string{"color: #ff0000"}},
		{"unclosed function", "p { x: calc(1px; y: 2 }", []string{"y: 2"}},
		{"block in value", "p { x: {a}; y: 1 }", []string{"y: 1"}},
		{"bad string", "p { content: \"abc\n; color: red }", []string{"color: #ff0000"}},
		{"bad url", "p { background: url(a b); color: red }", []string{"color: #ff0000"}},
		{"bad bracket", "p { x: a); color: red }", []string{"color: #ff0000"}},
		{"paren outside function", "p { x: (a); y: b }", []string{"y: b"}},
		{"invalid hash", "p { color: #zzz; y: b }", []string{"y: b"}},
		{"unknown unit", "p { width: 10foo; y: b }", []string{"width: 10 foo", "y: b"}},
		{"empty brackets", "p { grid-area: []; y: b }", []string{"y: b"}},
		{"leading comma", "p { x: , a; y: b }", []string{"y: b"}},
		{"trailing comma", "p { x: a ,; y: b }", []string{"y: b"}},
		{"double operator", "p { x: a , / b; y: b }", []string{"y: b"}},
		{"trailing slash", "p { x: a /}", nil},
		{"bang without important", "p { x: a !imp; y: b }", []string{"y: b"}},
		{"terms after important", "p { x: a !important b; y: b }", []string{"y: b"}},
		{"only important", "p { x: !important; y: b }", []string{"y: b"}},
		{"last declaration without semicolon", "p { x: a; y: b}", []string{"x: a", "y: b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := onlyRuleSet(t, tt.input)
			assert.Equal(t, tt.want, properties(rs.Declarations()))
		})
	}
}

func TestParserImportant(t *testing.T) {
	rs := onlyRuleSet(t, "p { color: red !important; margin: 0 auto ! IMPORTANT; padding: 0 }")
	require.Equal(t, 3, rs.Len())
	assert.True(t, rs.Declaration(0).Important())
	assert.True(t, rs.Declaration(1).Important())
	assert.False(t, rs.Declaration(2).Important())
	assert.Equal(t, "margin: 0 auto !important", rs.Declaration(1).String())
}

func TestParserPropertyNames(t *testing.T) {
	rs := onlyRuleSet(t, "P { COLOR: Red; --Main-Color: #06c; Margin-Top: 0 }")
	assert.Equal(t, "P", rs.SelectorText())
	require.Equal(t, 3, rs.Len())
	assert.Equal(t, "color", rs.Declaration(0).Property())
	assert.Equal(t, "--Main-Color", rs.Declaration(1).Property())
	assert.Equal(t, "margin-top", rs.Declaration(2).Property())
	assert.Equal(t, RGBA(255, 0, 0, 255), rs.Declaration(0).Term(0))
}

func TestParserOperators(t *testing.T) {
	tests := []struct {
		input string
		ops   []Operator
		text  string
	}{
		{"font: 12px/1.5 serif", []Operator{OpNone, OpSlash, OpSpace}, "font: 12px/1.5 serif"},
		{"font-family: Arial, \"Helvetica Neue\", sans-serif", []Operator{OpNone, OpComma, OpComma}, `font-family: Arial, "Helvetica Neue", sans-serif`},
		{"margin: 0  auto", []Operator{OpNone, OpSpace}, "margin: 0 auto"},
		{"grid-area: 1 / 2 / 3", []Operator{OpNone, OpSlash, OpSlash}, "grid-area: 1/2/3"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			decls := ParseDeclarations(tt.input)
			require.Len(t, decls, 1)
			var ops []Operator
			for _, term := range decls[0].Terms() {
				ops = append(ops, term.Op())
			}
			assert.Equal(t, tt.ops, ops)
			assert.Equal(t, tt.text, decls[0].String())
		})
	}
}

func TestParserFunctions(t *testing.T) {
	decls := ParseDeclarations("transform: translate(10px, 20px) rotate(45deg)")
	require.Len(t, decls, 1)
	require.Equal(t, 2, decls[0].Len())

	fn, ok := decls[0].Term(0).(Function)
	require.True(t, ok)
	assert.Equal(t, "translate", fn.Name)
	require.Len(t, fn.Args, 2)
	assert.Equal(t, Length{Value: 10, Unit: UnitPx}, fn.Args[0])
	assert.Equal(t, OpComma, fn.Args[1].Op())

	rotate, ok := decls[0].Term(1).(Function)
	require.True(t, ok)
	assert.Equal(t, OpSpace, rotate.Op())
	assert.Equal(t, KindAngle, rotate.Args[0].Kind())

	decls = ParseDeclarations("width: calc(2 * (1px + 2px))")
	require.Len(t, decls, 1)
	assert.Equal(t, "width: calc(2 * (1px + 2px))", decls[0].String())
	calc := decls[0].Term(0).(Function)
	require.Len(t, calc.Args, 3)
	group, ok := calc.Args[2].(Function)
	require.True(t, ok)
	assert.Empty(t, group.Name)
	assert.Len(t, group.Args, 3)
}

func TestParserColorInFunctionKeepsOperator(t *testing.T) {
	decls := ParseDeclarations("background: linear-gradient(red, rgb(0,0,255))")
	require.Len(t, decls, 1)
	fn := decls[0].Term(0).(Function)
	require.Len(t, fn.Args, 2)
	assert.Equal(t, KindColor, fn.Args[1].Kind())
	assert.Equal(t, OpComma, fn.Args[1].Op())
}

func TestParserURIs(t *testing.T) {
	decls := ParseDeclarations(`background: url(img/a.png) url("b c.png") URL( 'd.png' )`,
		WithBaseURL("http://example.com/css/site.css"))
	require.Len(t, decls, 1)
	require.Equal(t, 3, decls[0].Len())

	for i, want := range []string{"img/a.png", "b c.png", "d.png"} {
		uri, ok := decls[0].Term(i).(URI)
		require.True(t, ok, "term %d is %T", i, decls[0].Term(i))
		assert.Equal(t, want, uri.Value)
	}
	assert.Equal(t, "http://example.com/css/img/a.png", decls[0].Term(0).(URI).Absolute())
}

func TestParserGridLineNames(t *testing.T) {
	rs := onlyRuleSet(t, "p { grid: [ -linename1 ]  \"a\" 100px [linename2]; }")
	require.Equal(t, 1, rs.Len())
	decl := rs.Declaration(0)
	require.Equal(t, 4, decl.Len())
	assert.Equal(t, KindBracketedIdents, decl.Term(0).Kind())
	assert.Equal(t, KindString, decl.Term(1).Kind())
	assert.Equal(t, KindLength, decl.Term(2).Kind())
	assert.Equal(t, KindBracketedIdents, decl.Term(3).Kind())
	assert.Equal(t, `grid: [-linename1] "a" 100px [linename2]`, decl.String())

	rs = onlyRuleSet(t, "p { grid: [ -linename1 linename2 ] }")
	list, ok := rs.Declaration(0).Term(0).(BracketedIdents)
	require.True(t, ok)
	assert.Equal(t, 2, list.Len())
}

func TestParserRuleRecovery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"invalid selector", "p! { color: red } q { color: blue }", []string{"q"}},
		{"unknown pseudo-element", "::notaselector { a: b } q { }", []string{"q"}},
		{"nested blocks in bad rule", "p! { a { b } } q { }", []string{"q"}},
		{"empty selector", "{ a: b } q { }", []string{"q"}},
		{"stray close brace", "} q { } r { }", []string{"r"}},
		{"eof in block", "p { color: red", nil},
		{"eof in prelude", "p, q", nil},
		{"html comments", "<!-- p { } -->", []string{"p"}},
		{"page selector on element", "p:first { a: b } q { }", []string{"q"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, rs := range ParseString(tt.input).RuleSets() {
				got = append(got, rs.SelectorText())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParserImport(t *testing.T) {
	sheet := ParseString(`
		@charset "UTF-8";
		@import url(a.css) screen, PRINT;
		@import 'b.css';
		@import url("c.css") (min-width: 600px);
		@import nothing;
		p { }
		@import "late.css";
	`, WithBaseURL("http://example.com/"))

	require.Equal(t, 4, sheet.Len())
	tests := []struct {
		uri   string
		media []string
	}{
		{"a.css", []string{"screen", "print"}},
		{"b.css", nil},
		{"c.css", []string{"(min-width: 600px)"}},
	}
	for i, tt := range tests {
		imp, ok := sheet.Rule(i).(*ImportRule)
		require.True(t, ok, "rule %d is %T", i, sheet.Rule(i))
		assert.Equal(t, ImportRuleType, imp.Type())
		assert.Equal(t, tt.uri, imp.URI().Value)
		assert.Equal(t, "http://example.com/"+tt.uri, imp.URI().Absolute())
		assert.Equal(t, tt.media, imp.Media())
	}
	assert.Equal(t, StyleRuleType, sheet.Rule(3).Type())
}

func TestParserMedia(t *testing.T) {
	sheet := ParseString(`
		@media screen and (max-width: 600px), print {
			p { color: red }
			@font-face { font-family: x }
			bad! { color: blue }
			q { }
		}
		r { }
	`)

	require.Equal(t, 2, sheet.Len())
	media, ok := sheet.Rule(0).(*MediaRule)
	require.True(t, ok)
	assert.Equal(t, MediaRuleType, media.Type())
	assert.Equal(t, []string{"screen and (max-width: 600px)", "print"}, media.Media())
	require.Equal(t, 2, media.Len())
	assert.Equal(t, "p", media.Rule(0).SelectorText())
	assert.Equal(t, "q", media.Rules()[1].SelectorText())

	assert.Equal(t, "r", sheet.Rule(1).(*RuleSet).SelectorText())
}

func TestParserMediaErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		rules int
	}{
		{"eof inside block", "@media print { p { }", 0},
		{"no block", "@media print; p { }", 1},
		{"empty query", "@media screen, { p { } } q { }", 1},
		{"unclosed nested rule", "@media print { p { color: red } q { x: y", 0},
		{"stray brace in prelude", "@media print { p } q { } } r { }", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.rules, ParseString(tt.input).Len())
		})
	}
}

func TestParserFontFace(t *testing.T) {
	sheet := ParseString(`@font-face { font-family: Foo; src: url(foo.woff) format("woff") }`)
	require.Equal(t, 1, sheet.Len())
	ff, ok := sheet.Rule(0).(*FontFaceRule)
	require.True(t, ok)
	assert.Equal(t, FontFaceRuleType, ff.Type())
	assert.Equal(t, []string{"font-family: Foo", `src: url("foo.woff") format("woff")`}, properties(ff.Declarations()))

	assert.Zero(t, ParseString("@font-face foo { a: b }").Len())
}

func TestParserPage(t *testing.T) {
	tests := []struct {
		input  string
		pseudo string
		ok     bool
	}{
		{"@page { margin: 1in }", "", true},
		{"@page :first { margin: 1in }", "first", true},
		{"@page :LEFT { margin: 1in }", "left", true},
		{"@page :bogus { margin: 1in }", "", false},
		{"@page : first { margin: 1in }", "", false},
		{"@page;", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			sheet := ParseString(tt.input)
			if !tt.ok {
				assert.Zero(t, sheet.Len())
				return
			}
			require.Equal(t, 1, sheet.Len())
			page, ok := sheet.Rule(0).(*PageRule)
			require.True(t, ok)
			assert.Equal(t, PageRuleType, page.Type())
			assert.Equal(t, tt.pseudo, page.Pseudo())
			assert.Equal(t, 1, page.Len())
		})
	}
}

func TestParserUnsupportedAtRules(t *testing.T) {
	sheet := ParseString(`
		@namespace svg url(http://www.w3.org/2000/svg);
		@keyframes spin { from { transform: rotate(0) } to { transform: rotate(1turn) } }
		@supports (display: grid) { p { display: grid } }
		p { color: red }
	`)
	require.Equal(t, 1, sheet.Len())
	assert.Equal(t, "p", sheet.Rule(0).(*RuleSet).SelectorText())
}

func TestParseDeclarations(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"color: red; margin: 0 auto", []string{"color: #ff0000", "margin: 0 auto"}},
		{"color: red;", []string{"color: #ff0000"}},
		{"", nil},
		{"  ;  ", nil},
		{"color: red } margin: 0", []string{"color: #ff0000"}},
		{"color; margin: 0", []string{"margin: 0"}},
		{"z-index: 10", []string{"z-index: 10"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, properties(ParseDeclarations(tt.input)))
		})
	}
}

func TestParserLogsRecovery(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	p := NewParser(WithLogger(zap.New(core)))

	sheet := p.ParseString("p { color: ; } @keyframes x { } q! { }")
	assert.Equal(t, 1, sheet.Len())

	recovered := logs.FilterMessage("recovered from syntax error").All()
	require.Len(t, recovered, 2)
	assert.Equal(t, "css-parser", recovered[0].LoggerName)
	assert.Equal(t, "declaration", recovered[0].ContextMap()["level"])
	assert.Equal(t, "rule", recovered[1].ContextMap()["level"])

	skipped := logs.FilterMessage("skipped unsupported at-rule").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "keyframes", skipped[0].ContextMap()["name"])
}

func TestWithLoggerNil(t *testing.T) {
	p := NewParser(WithLogger(nil))
	assert.Equal(t, 1, p.ParseString("p { a: b }").Len())
}
