// Package units provides shared constants and conversion for slide length units
package units

import "strings"

// Unit constants
const (
	EMU = "emu"
	PT  = "pt"
	IN  = "in"
	CM  = "cm"
	MM  = "mm"
	PX  = "px"
)

// EMU per unit. Pixels assume 96 dpi.
const (
	emuPerInch = 914400
	emuPerPt   = 12700
	emuPerCM   = 360000
	emuPerMM   = 36000
	emuPerPx   = 9525
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{EMU, PT, IN, CM, MM, PX}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ConvertLength converts a length in EMU to the target units.
// Documents store geometry in EMU.
func ConvertLength(emu int, targetUnits string) float64 {
	v := float64(emu)
	switch targetUnits {
	case IN:
		return v / emuPerInch
	case PT:
		return v / emuPerPt
	case CM:
		return v / emuPerCM
	case MM:
		return v / emuPerMM
	case PX:
		return v / emuPerPx
	default:
		return v // EMU or unknown
	}
}

// ConvertLengths converts every value of vals.
func ConvertLengths(vals []int, targetUnits string) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = ConvertLength(v, targetUnits)
	}
	return out
}
