package costing

import "fmt"

// WarningKind classifies a costing diagnostic.
type WarningKind string

const (
	WarningMissingIngredient WarningKind = "missing_ingredient"
	WarningForeignIngredient WarningKind = "foreign_ingredient"
	WarningUnknownUnit       WarningKind = "unknown_unit"
	WarningUnitMismatch      WarningKind = "unit_mismatch"
)

// Warning flags a line whose cost may be understated or overstated. Warnings
// never change the computed figures.
type Warning struct {
	LineID string      `json:"line_id"`
	Kind   WarningKind `json:"kind"`
	Detail string      `json:"detail"`
}

func newWarning(kind WarningKind, line Line) Warning {
	var detail string
	switch kind {
	case WarningMissingIngredient:
		detail = "ingredient not found, line costed at zero"
	case WarningForeignIngredient:
		detail = "ingredient belongs to another kitchen, line costed at zero"
	case WarningUnknownUnit:
		detail = fmt.Sprintf("unit %q is not recognized", string(Normalize(line.Unit)))
	}
	return Warning{LineID: line.ID, Kind: kind, Detail: detail}
}

func unitMismatch(line Line, packUnit string) Warning {
	from := Normalize(line.Unit)
	to := Normalize(packUnit)
	return Warning{
		LineID: line.ID,
		Kind:   WarningUnitMismatch,
		Detail: fmt.Sprintf("cannot convert %s (%s) to %s (%s), quantity used as-is", from, from.Family(), to, to.Family()),
	}
}
