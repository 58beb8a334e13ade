package css

import (
	"math"
	"strconv"
	"strings"
)

// ColorFromHash converts the text after '#' into a Color. Three and four
// digit forms duplicate each nibble; a missing alpha means opaque. Any other
// length or a non-hex digit yields false.
func ColorFromHash(hex string) (Color, bool) {
	for i := 0; i < len(hex); i++ {
		if !isHexDigit(rune(hex[i])) {
			return Color{}, false
		}
	}

	var r, g, b, a uint8 = 0, 0, 0, 255
	switch len(hex) {
	case 3: // #RGB
		r = parseHexDigit(hex[0]) * 17
		g = parseHexDigit(hex[1]) * 17
		b = parseHexDigit(hex[2]) * 17
	case 4: // #RGBA
		r = parseHexDigit(hex[0]) * 17
		g = parseHexDigit(hex[1]) * 17
		b = parseHexDigit(hex[2]) * 17
		a = parseHexDigit(hex[3]) * 17
	case 6: // #RRGGBB
		r = parseHexDigit(hex[0])*16 + parseHexDigit(hex[1])
		g = parseHexDigit(hex[2])*16 + parseHexDigit(hex[3])
		b = parseHexDigit(hex[4])*16 + parseHexDigit(hex[5])
	case 8: // #RRGGBBAA
		r = parseHexDigit(hex[0])*16 + parseHexDigit(hex[1])
		g = parseHexDigit(hex[2])*16 + parseHexDigit(hex[3])
		b = parseHexDigit(hex[4])*16 + parseHexDigit(hex[5])
		a = parseHexDigit(hex[6])*16 + parseHexDigit(hex[7])
	default:
		return Color{}, false
	}
	return Color{R: r, G: g, B: b, A: a}, true
}

func parseHexDigit(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// NewFunction builds the generic function term.
func NewFunction(name string, args []Term) Function {
	return Function{Name: name, Args: args}
}

// NewURI builds a URI term. value is the literal url() content.
func NewURI(value, base string) URI {
	return URI{Value: value, Base: base}
}

// NewBracketedIdents builds a bracketed identifier list. At least one
// identifier is required.
func NewBracketedIdents(idents ...string) (BracketedIdents, bool) {
	if len(idents) == 0 {
		return BracketedIdents{}, false
	}
	return BracketedIdents{Idents: append([]string(nil), idents...)}, true
}

// NewDimension routes a number with a unit to the term for the unit's
// category. It reports false for units that are not recognized.
func NewDimension(value float64, unit Unit) (Term, bool) {
	canonical, category, ok := LookupUnit(string(unit))
	if !ok {
		return nil, false
	}
	switch category {
	case CategoryAngle:
		return Angle{Value: value, Unit: canonical}, true
	case CategoryTime:
		return Time{Value: value, Unit: canonical}, true
	case CategoryFrequency:
		return Frequency{Value: value, Unit: canonical}, true
	case CategoryResolution:
		return Resolution{Value: value, Unit: canonical}, true
	default:
		return Length{Value: value, Unit: canonical}, true
	}
}

// NewIdent returns a Color for named color keywords and an Ident otherwise.
func NewIdent(name string) Term {
	if c, ok := NamedColor(name); ok {
		return c
	}
	return Ident{Value: name}
}

// NormalizeFunction converts rgb(), rgba(), hsl() and hsla() calls with
// well-formed arguments into Color terms. Anything else, including a color
// function with mixed argument kinds, wrong arity or mixed separators, is
// returned unchanged.
func NormalizeFunction(fn Function) Term {
	var (
		c  Color
		ok bool
	)
	switch strings.ToLower(fn.Name) {
	case "rgb", "rgba":
		c, ok = rgbColor(fn.Args)
	case "hsl", "hsla":
		c, ok = hslColor(fn.Args)
	default:
		return fn
	}
	if !ok {
		return fn
	}
	c.op = fn.op
	return c
}

// colorArgs checks arity and separators of a color function's arguments.
// Both the legacy comma form "a, b, c, d" and the space form "a b c / d"
// are accepted, but not a mix of the two.
func colorArgs(args []Term) bool {
	if len(args) != 3 && len(args) != 4 {
		return false
	}
	if args[1].Op() == OpComma {
		for _, a := range args[2:] {
			if a.Op() != OpComma {
				return false
			}
		}
		return true
	}
	if args[1].Op() != OpSpace || args[2].Op() != OpSpace {
		return false
	}
	return len(args) == 3 || args[3].Op() == OpSlash
}

func rgbColor(args []Term) (Color, bool) {
	if !colorArgs(args) {
		return Color{}, false
	}

	var ch [3]uint8
	switch args[0].Kind() {
	case KindInteger:
		for i, a := range args[:3] {
			n, ok := a.(Integer)
			if !ok {
				return Color{}, false
			}
			ch[i] = uint8(clamp(float64(n.Value), 0, 255))
		}
	case KindPercentage:
		for i, a := range args[:3] {
			p, ok := a.(Percentage)
			if !ok {
				return Color{}, false
			}
			ch[i] = uint8(math.Floor(clamp(p.Value, 0, 100) * 255 / 100))
		}
	default:
		return Color{}, false
	}

	alpha := uint8(255)
	if len(args) == 4 {
		var ok bool
		if alpha, ok = alphaChannel(args[3]); !ok {
			return Color{}, false
		}
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: alpha}, true
}

func hslColor(args []Term) (Color, bool) {
	if !colorArgs(args) {
		return Color{}, false
	}

	var h float64
	switch hue := args[0].(type) {
	case Integer:
		h = float64(hue.Value)
	case Number:
		h = hue.Value
	case Angle:
		h = hue.Degrees()
	default:
		return Color{}, false
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}

	sat, ok := args[1].(Percentage)
	if !ok {
		return Color{}, false
	}
	light, ok := args[2].(Percentage)
	if !ok {
		return Color{}, false
	}

	alpha := uint8(255)
	if len(args) == 4 {
		if alpha, ok = alphaChannel(args[3]); !ok {
			return Color{}, false
		}
	}

	r, g, b := hslToRGB(h, clamp(sat.Value, 0, 100)/100, clamp(light.Value, 0, 100)/100)
	return Color{R: toChannel(r), G: toChannel(g), B: toChannel(b), A: alpha}, true
}

// alphaChannel accepts a number in [0,1] or a percentage.
func alphaChannel(t Term) (uint8, bool) {
	var f float64
	switch a := t.(type) {
	case Integer:
		f = float64(a.Value)
	case Number:
		f = a.Value
	case Percentage:
		f = a.Value / 100
	default:
		return 0, false
	}
	return toChannel(clamp(f, 0, 1)), true
}

func toChannel(f float64) uint8 {
	return uint8(math.Round(clamp(f, 0, 1) * 255))
}

// hslToRGB converts HSL to RGB values (0-1 range). h is in degrees.
func hslToRGB(h, s, l float64) (r, g, b float64) {
	h /= 360

	if s == 0 {
		return l, l, l
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	r = hueToRGB(p, q, h+1.0/3.0)
	g = hueToRGB(p, q, h)
	b = hueToRGB(p, q, h-1.0/3.0)

	return
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// termFromToken converts a single-token value into a term. Functions and
// bracketed lists span several tokens and are handled by the parser.
func termFromToken(tok Token, base string) (Term, bool) {
	switch tok.Type {
	case TokenIdent:
		return NewIdent(tok.Value), true
	case TokenString:
		return String{Value: tok.Value}, true
	case TokenNumber:
		if tok.NumType == NumberInteger && math.Abs(tok.NumValue) <= math.MaxInt64/2 {
			return Integer{Value: int64(tok.NumValue)}, true
		}
		return Number{Value: tok.NumValue}, true
	case TokenPercentage:
		return Percentage{Value: tok.NumValue}, true
	case TokenDimension:
		return NewDimension(tok.NumValue, tok.Unit)
	case TokenHash:
		c, ok := ColorFromHash(tok.Value)
		if !ok {
			return nil, false
		}
		return c, true
	case TokenURL:
		return NewURI(tok.Value, base), true
	}
	return nil, false
}

// functionTerm finishes a parsed function call: url("...") becomes a URI
// and color functions are normalized.
func functionTerm(name string, args []Term, base string) Term {
	if strings.EqualFold(name, "url") && len(args) == 1 {
		if s, ok := args[0].(String); ok {
			return NewURI(s.Value, base)
		}
	}
	return NormalizeFunction(NewFunction(name, args))
}

// ParseUnicodeRange parses a unicode range such as "U+0025-00FF", "U+4??"
// or "U+A5". Wildcards must come last and fill at most six digits together
// with the hex digits before them.
func ParseUnicodeRange(text string) (start, end rune, ok bool) {
	if len(text) < 3 || (text[0] != 'u' && text[0] != 'U') || text[1] != '+' {
		return 0, 0, false
	}
	rest := text[2:]

	digits := hexPrefix(rest)
	wildcards := len(rest[len(digits):]) - len(strings.TrimLeft(rest[len(digits):], "?"))
	if len(digits)+wildcards == 0 || len(digits)+wildcards > 6 {
		return 0, 0, false
	}
	rest = rest[len(digits)+wildcards:]

	if wildcards > 0 {
		if rest != "" {
			return 0, 0, false
		}
		lo, _ := strconv.ParseInt(digits+strings.Repeat("0", wildcards), 16, 32)
		hi, _ := strconv.ParseInt(digits+strings.Repeat("F", wildcards), 16, 32)
		start, end = rune(lo), rune(hi)
	} else {
		lo, _ := strconv.ParseInt(digits, 16, 32)
		start, end = rune(lo), rune(lo)
		if rest != "" {
			if rest[0] != '-' {
				return 0, 0, false
			}
			endDigits := hexPrefix(rest[1:])
			if endDigits == "" || len(endDigits) > 6 || len(rest) != len(endDigits)+1 {
				return 0, 0, false
			}
			hi, _ := strconv.ParseInt(endDigits, 16, 32)
			end = rune(hi)
		}
	}

	if end > 0x10FFFF || start > end {
		return 0, 0, false
	}
	return start, end, true
}

func hexPrefix(s string) string {
	i := 0
	for i < len(s) && isHexDigit(rune(s[i])) {
		i++
	}
	return s[:i]
}

func unicodeRangeText(start, end rune) string {
	hex := func(r rune) string { return strings.ToUpper(strconv.FormatInt(int64(r), 16)) }
	if start == end {
		return "U+" + hex(start)
	}
	return "U+" + hex(start) + "-" + hex(end)
}
