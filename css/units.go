package css

import (
	"math"
	"strings"
)

// Unit is the canonical spelling of a CSS dimension unit.
type Unit string

// Length units. "fr" is grouped with lengths so that grid track lists
// like "1fr 2fr" lex as dimensions instead of a number and an ident.
const (
	UnitPx   Unit = "px"
	UnitEm   Unit = "em"
	UnitRem  Unit = "rem"
	UnitEx   Unit = "ex"
	UnitCh   Unit = "ch"
	UnitCm   Unit = "cm"
	UnitMm   Unit = "mm"
	UnitIn   Unit = "in"
	UnitPt   Unit = "pt"
	UnitPc   Unit = "pc"
	UnitQ    Unit = "q"
	UnitVw   Unit = "vw"
	UnitVh   Unit = "vh"
	UnitVmin Unit = "vmin"
	UnitVmax Unit = "vmax"
	UnitFr   Unit = "fr"
)

// Angle units.
const (
	UnitDeg  Unit = "deg"
	UnitRad  Unit = "rad"
	UnitGrad Unit = "grad"
	UnitTurn Unit = "turn"
)

// Time units.
const (
	UnitS  Unit = "s"
	UnitMs Unit = "ms"
)

// Frequency units.
const (
	UnitHz  Unit = "Hz"
	UnitKHz Unit = "kHz"
)

// Resolution units.
const (
	UnitDpi  Unit = "dpi"
	UnitDpcm Unit = "dpcm"
	UnitDppx Unit = "dppx"
	UnitX    Unit = "x"
)

// UnitCategory groups units by the kind of quantity they measure.
type UnitCategory int

const (
	CategoryLength UnitCategory = iota
	CategoryAngle
	CategoryTime
	CategoryFrequency
	CategoryResolution
)

func (c UnitCategory) String() string {
	switch c {
	case CategoryLength:
		return "length"
	case CategoryAngle:
		return "angle"
	case CategoryTime:
		return "time"
	case CategoryFrequency:
		return "frequency"
	case CategoryResolution:
		return "resolution"
	}
	return "unknown"
}

type unitInfo struct {
	unit     Unit
	category UnitCategory
}

// knownUnits is keyed by the lower-cased unit spelling.
var knownUnits = map[string]unitInfo{
	"px":   {UnitPx, CategoryLength},
	"em":   {UnitEm, CategoryLength},
	"rem":  {UnitRem, CategoryLength},
	"ex":   {UnitEx, CategoryLength},
	"ch":   {UnitCh, CategoryLength},
	"cm":   {UnitCm, CategoryLength},
	"mm":   {UnitMm, CategoryLength},
	"in":   {UnitIn, CategoryLength},
	"pt":   {UnitPt, CategoryLength},
	"pc":   {UnitPc, CategoryLength},
	"q":    {UnitQ, CategoryLength},
	"vw":   {UnitVw, CategoryLength},
	"vh":   {UnitVh, CategoryLength},
	"vmin": {UnitVmin, CategoryLength},
	"vmax": {UnitVmax, CategoryLength},
	"fr":   {UnitFr, CategoryLength},

	"deg":  {UnitDeg, CategoryAngle},
	"rad":  {UnitRad, CategoryAngle},
	"grad": {UnitGrad, CategoryAngle},
	"turn": {UnitTurn, CategoryAngle},

	"s":  {UnitS, CategoryTime},
	"ms": {UnitMs, CategoryTime},

	"hz":  {UnitHz, CategoryFrequency},
	"khz": {UnitKHz, CategoryFrequency},

	"dpi":  {UnitDpi, CategoryResolution},
	"dpcm": {UnitDpcm, CategoryResolution},
	"dppx": {UnitDppx, CategoryResolution},
	"x":    {UnitX, CategoryResolution},
}

// LookupUnit maps a unit as written in the source to its canonical form.
// Matching is ASCII case-insensitive.
func LookupUnit(s string) (Unit, UnitCategory, bool) {
	info, ok := knownUnits[strings.ToLower(s)]
	if !ok {
		return "", 0, false
	}
	return info.unit, info.category, true
}

// Category reports the quantity measured by u.
func (u Unit) Category() (UnitCategory, bool) {
	_, c, ok := LookupUnit(string(u))
	return c, ok
}

// toDegrees converts an angle to degrees.
func toDegrees(v float64, u Unit) float64 {
	switch u {
	case UnitRad:
		return v * 180 / math.Pi
	case UnitGrad:
		return v * 0.9
	case UnitTurn:
		return v * 360
	}
	return v
}
