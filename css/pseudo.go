package css

import "strings"

// pseudoArg describes what a functional pseudo-class takes as argument.
type pseudoArg int

const (
	argNone                 pseudoArg = iota
	argRaw                            // kept as text: nth-child(2n+1), lang(en)
	argSelectorList                   // nested selectors: not(.a, .b)
	argRelativeSelectorList           // selectors with a leading combinator: has(> img)
)

// pseudoClasses lists the recognized pseudo-classes. Names are lower case.
var pseudoClasses = map[string]pseudoArg{
	"active":            argNone,
	"any-link":          argNone,
	"autofill":          argNone,
	"blank":             argNone,
	"checked":           argNone,
	"default":           argNone,
	"defined":           argNone,
	"disabled":          argNone,
	"empty":             argNone,
	"enabled":           argNone,
	"first-child":       argNone,
	"first-of-type":     argNone,
	"focus":             argNone,
	"focus-visible":     argNone,
	"focus-within":      argNone,
	"fullscreen":        argNone,
	"hover":             argNone,
	"in-range":          argNone,
	"indeterminate":     argNone,
	"invalid":           argNone,
	"last-child":        argNone,
	"last-of-type":      argNone,
	"link":              argNone,
	"only-child":        argNone,
	"only-of-type":      argNone,
	"optional":          argNone,
	"out-of-range":      argNone,
	"placeholder-shown": argNone,
	"read-only":         argNone,
	"read-write":        argNone,
	"required":          argNone,
	"root":              argNone,
	"scope":             argNone,
	"target":            argNone,
	"valid":             argNone,
	"visited":           argNone,

	"dir":              argRaw,
	"lang":             argRaw,
	"nth-child":        argRaw,
	"nth-last-child":   argRaw,
	"nth-of-type":      argRaw,
	"nth-last-of-type": argRaw,

	"not":   argSelectorList,
	"is":    argSelectorList,
	"where": argSelectorList,
	"has":   argRelativeSelectorList,
}

// pseudoElements lists the recognized pseudo-elements.
var pseudoElements = map[string]bool{
	"after":                true,
	"backdrop":             true,
	"before":               true,
	"cue":                  true,
	"file-selector-button": true,
	"first-letter":         true,
	"first-line":           true,
	"marker":               true,
	"placeholder":          true,
	"selection":            true,
}

// legacyPseudoElements may be written with a single colon.
var legacyPseudoElements = map[string]bool{
	"before":       true,
	"after":        true,
	"first-line":   true,
	"first-letter": true,
}

// lookupPseudoClass reports whether name is a known pseudo-class and, if it
// is functional, what its argument is. Vendor-prefixed names are unknown.
func lookupPseudoClass(name string, functional bool) (pseudoArg, bool) {
	arg, ok := pseudoClasses[strings.ToLower(name)]
	if !ok {
		return argNone, false
	}
	if functional != (arg != argNone) {
		return argNone, false
	}
	return arg, true
}

func isPseudoElement(name string) bool {
	return pseudoElements[strings.ToLower(name)]
}

func isLegacyPseudoElement(name string) bool {
	return legacyPseudoElements[strings.ToLower(name)]
}
