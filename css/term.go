package css

import (
	"net/url"
	"strconv"
	"strings"
)

// TermKind identifies the variant of a Term.
type TermKind int

const (
	KindIdent TermKind = iota
	KindString
	KindInteger
	KindNumber
	KindLength
	KindAngle
	KindTime
	KindFrequency
	KindResolution
	KindPercentage
	KindColor
	KindURI
	KindFunction
	KindBracketedIdents
)

var termKindNames = [...]string{
	KindIdent:           "ident",
	KindString:          "string",
	KindInteger:         "integer",
	KindNumber:          "number",
	KindLength:          "length",
	KindAngle:           "angle",
	KindTime:            "time",
	KindFrequency:       "frequency",
	KindResolution:      "resolution",
	KindPercentage:      "percentage",
	KindColor:           "color",
	KindURI:             "uri",
	KindFunction:        "function",
	KindBracketedIdents: "bracketed-idents",
}

func (k TermKind) String() string {
	if k >= 0 && int(k) < len(termKindNames) {
		return termKindNames[k]
	}
	return "unknown"
}

// Operator is the separator that joined a term to the previous one.
type Operator int

const (
	OpNone  Operator = iota // first term of a value
	OpSpace                 // juxtaposition
	OpComma                 // ,
	OpSlash                 // /
)

func (o Operator) String() string {
	switch o {
	case OpSpace:
		return " "
	case OpComma:
		return ", "
	case OpSlash:
		return "/"
	}
	return ""
}

// Term is a single typed component of a declaration value.
//
// The set of implementations is closed: Ident, String, Integer, Number,
// Length, Angle, Time, Frequency, Resolution, Percentage, Color, URI,
// Function and BracketedIdents.
type Term interface {
	Kind() TermKind
	// Op returns the operator that preceded the term in its value.
	Op() Operator
	String() string

	withOp(Operator) Term
}

type termOp struct {
	op Operator
}

func (t termOp) Op() Operator { return t.op }

// Ident is a keyword such as "block" or "inherit".
type Ident struct {
	termOp
	Value string
}

func (Ident) Kind() TermKind            { return KindIdent }
func (t Ident) String() string          { return t.Value }
func (t Ident) withOp(op Operator) Term { t.op = op; return t }

// String is a quoted string with quotes and escapes removed.
type String struct {
	termOp
	Value string
}

func (String) Kind() TermKind            { return KindString }
func (t String) String() string          { return strconv.Quote(t.Value) }
func (t String) withOp(op Operator) Term { t.op = op; return t }

// Integer is a number written without a fraction or exponent.
type Integer struct {
	termOp
	Value int64
}

func (Integer) Kind() TermKind            { return KindInteger }
func (t Integer) String() string          { return strconv.FormatInt(t.Value, 10) }
func (t Integer) withOp(op Operator) Term { t.op = op; return t }

// Number is a unitless real number.
type Number struct {
	termOp
	Value float64
}

func (Number) Kind() TermKind            { return KindNumber }
func (t Number) String() string          { return formatFloat(t.Value) }
func (t Number) withOp(op Operator) Term { t.op = op; return t }

// Percentage holds the number in front of the percent sign, so 50% is 50.
type Percentage struct {
	termOp
	Value float64
}

func (Percentage) Kind() TermKind            { return KindPercentage }
func (t Percentage) String() string          { return formatFloat(t.Value) + "%" }
func (t Percentage) withOp(op Operator) Term { t.op = op; return t }

// Length is a distance such as 10px or 1.5em.
type Length struct {
	termOp
	Value float64
	Unit  Unit
}

func (Length) Kind() TermKind            { return KindLength }
func (t Length) String() string          { return formatFloat(t.Value) + string(t.Unit) }
func (t Length) withOp(op Operator) Term { t.op = op; return t }

// Angle is a rotation such as 90deg.
type Angle struct {
	termOp
	Value float64
	Unit  Unit
}

func (Angle) Kind() TermKind            { return KindAngle }
func (t Angle) String() string          { return formatFloat(t.Value) + string(t.Unit) }
func (t Angle) withOp(op Operator) Term { t.op = op; return t }

// Degrees returns the angle converted to degrees.
func (t Angle) Degrees() float64 { return toDegrees(t.Value, t.Unit) }

// Time is a duration such as 200ms.
type Time struct {
	termOp
	Value float64
	Unit  Unit
}

func (Time) Kind() TermKind            { return KindTime }
func (t Time) String() string          { return formatFloat(t.Value) + string(t.Unit) }
func (t Time) withOp(op Operator) Term { t.op = op; return t }

// Frequency is a rate such as 44kHz.
type Frequency struct {
	termOp
	Value float64
	Unit  Unit
}

func (Frequency) Kind() TermKind            { return KindFrequency }
func (t Frequency) String() string          { return formatFloat(t.Value) + string(t.Unit) }
func (t Frequency) withOp(op Operator) Term { t.op = op; return t }

// Resolution is a pixel density such as 2dppx.
type Resolution struct {
	termOp
	Value float64
	Unit  Unit
}

func (Resolution) Kind() TermKind            { return KindResolution }
func (t Resolution) String() string          { return formatFloat(t.Value) + string(t.Unit) }
func (t Resolution) withOp(op Operator) Term { t.op = op; return t }

// Color is an sRGB color with straight alpha.
type Color struct {
	termOp
	R, G, B, A uint8
}

// RGBA builds an operator-free Color.
func RGBA(r, g, b, a uint8) Color {
	return Color{R: r, G: g, B: b, A: a}
}

func (Color) Kind() TermKind            { return KindColor }
func (t Color) withOp(op Operator) Term { t.op = op; return t }

// String returns the color as #rrggbb, or #rrggbbaa when not opaque.
func (t Color) String() string {
	s := "#" + hexByte(t.R) + hexByte(t.G) + hexByte(t.B)
	if t.A != 255 {
		s += hexByte(t.A)
	}
	return s
}

// Equal compares channels only, ignoring the operator.
func (t Color) Equal(o Color) bool {
	return t.R == o.R && t.G == o.G && t.B == o.B && t.A == o.A
}

// URI is the content of url(...), unresolved. Base holds the reference it
// should be resolved against, if one was configured.
type URI struct {
	termOp
	Value string
	Base  string
}

func (URI) Kind() TermKind            { return KindURI }
func (t URI) String() string          { return "url(" + strconv.Quote(t.Value) + ")" }
func (t URI) withOp(op Operator) Term { t.op = op; return t }

// Absolute resolves Value against Base. Without a base, or when either does
// not parse as a URL, Value is returned as is.
func (t URI) Absolute() string {
	if t.Base == "" {
		return t.Value
	}
	base, err := url.Parse(t.Base)
	if err != nil {
		return t.Value
	}
	ref, err := url.Parse(t.Value)
	if err != nil {
		return t.Value
	}
	return base.ResolveReference(ref).String()
}

// Function is a function call that has no more specific term, such as
// calc(100% - 10px) or an rgb() with mixed argument kinds.
type Function struct {
	termOp
	Name string
	Args []Term
}

func (Function) Kind() TermKind            { return KindFunction }
func (t Function) withOp(op Operator) Term { t.op = op; return t }

func (t Function) String() string {
	return t.Name + "(" + formatTerms(t.Args) + ")"
}

// BracketedIdents is a bracketed list of identifiers as used for CSS grid
// line names, e.g. [header-start main].
type BracketedIdents struct {
	termOp
	Idents []string
}

func (BracketedIdents) Kind() TermKind            { return KindBracketedIdents }
func (t BracketedIdents) withOp(op Operator) Term { t.op = op; return t }

// Len returns the number of identifiers.
func (t BracketedIdents) Len() int { return len(t.Idents) }

func (t BracketedIdents) String() string {
	return "[" + strings.Join(t.Idents, " ") + "]"
}

// formatTerms joins terms with the operators recorded on them.
func formatTerms(terms []Term) string {
	var sb strings.Builder
	for i, t := range terms {
		if i > 0 {
			op := t.Op()
			if op == OpNone {
				op = OpSpace
			}
			sb.WriteString(op.String())
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func hexByte(b uint8) string {
	const hex = "0123456789abcdef"
	return string([]byte{hex[b>>4], hex[b&0xf]})
}
