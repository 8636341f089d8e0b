package costing

import "strings"

// Family groups units that can be converted into one another.
type Family string

const (
	FamilyMass    Family = "mass"
	FamilyVolume  Family = "volume"
	FamilyCount   Family = "count"
	FamilyPortion Family = "portion"
	FamilyOther   Family = "other"
)

// Unit is a canonical unit token as produced by Normalize.
type Unit string

const (
	Gram       Unit = "g"
	Kilogram   Unit = "kg"
	Millilitre Unit = "ml"
	Litre      Unit = "l"
	Piece      Unit = "pcs"
	Portion    Unit = "portion"
)

// DefaultUnit is returned for empty unit text.
const DefaultUnit = Gram

type unitDef struct {
	family Family
	base   float64
}

var unitTable = map[Unit]unitDef{
	Gram:       {family: FamilyMass, base: 1},
	Kilogram:   {family: FamilyMass, base: 1000},
	Millilitre: {family: FamilyVolume, base: 1},
	Litre:      {family: FamilyVolume, base: 1000},
	Piece:      {family: FamilyCount, base: 1},
	Portion:    {family: FamilyPortion, base: 1},
}

var unitAliases = map[string]Unit{
	"gr":          Gram,
	"gram":        Gram,
	"grams":       Gram,
	"kilo":        Kilogram,
	"kilos":       Kilogram,
	"kilogram":    Kilogram,
	"kilograms":   Kilogram,
	"millilitre":  Millilitre,
	"millilitres": Millilitre,
	"milliliter":  Millilitre,
	"milliliters": Millilitre,
	"lt":          Litre,
	"litre":       Litre,
	"litres":      Litre,
	"liter":       Litre,
	"liters":      Litre,
	"pc":          Piece,
	"piece":       Piece,
	"pieces":      Piece,
	"ea":          Piece,
	"each":        Piece,
	"portions":    Portion,
}

// Normalize trims and lower-cases unit text. Empty input yields DefaultUnit.
// Unrecognized text is returned as-is (trimmed, lower-cased) in the other family;
// it is never coerced to grams.
func Normalize(unit string) Unit {
	token := strings.ToLower(strings.TrimSpace(unit))
	if token == "" {
		return DefaultUnit
	}
	if alias, ok := unitAliases[token]; ok {
		return alias
	}
	return Unit(token)
}

// Known reports whether the unit belongs to the recognized table.
func (u Unit) Known() bool {
	_, ok := unitTable[u]
	return ok
}

// Family returns the conversion family of the unit.
func (u Unit) Family() Family {
	if def, ok := unitTable[u]; ok {
		return def.family
	}
	return FamilyOther
}

// FamilyOf normalizes the unit text and returns its family.
func FamilyOf(unit string) Family {
	return Normalize(unit).Family()
}

// Convert expresses qty given in fromUnit in toUnit. When the units belong to
// different families, or no ratio exists between them, qty is returned unchanged.
func Convert(qty float64, fromUnit, toUnit string) float64 {
	converted, _ := ConvertChecked(qty, fromUnit, toUnit)
	return converted
}

// ConvertChecked behaves like Convert and also reports whether the result is
// expressed in toUnit. A false result means the quantity was passed through.
func ConvertChecked(qty float64, fromUnit, toUnit string) (float64, bool) {
	from := Normalize(fromUnit)
	to := Normalize(toUnit)
	if from == to {
		return qty, true
	}

	fromDef, fromOK := unitTable[from]
	toDef, toOK := unitTable[to]
	if !fromOK || !toOK || fromDef.family != toDef.family {
		return qty, false
	}

	switch {
	case fromDef.base > toDef.base:
		return qty * (fromDef.base / toDef.base), true
	case fromDef.base < toDef.base:
		return qty / (toDef.base / fromDef.base), true
	default:
		return qty, false
	}
}
