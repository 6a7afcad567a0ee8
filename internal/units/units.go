// Package units provides shared constants and validation for amplitude units
package units

// Unit constants
const (
	MicroV = "uv"
	MilliV = "mv"
	Volt   = "v"
)

// ValidUnits contains all valid amplitude unit values
var ValidUnits = []string{MicroV, MilliV, Volt}

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
	return "uv, mv, v"
}

// ConvertAmplitude converts an amplitude from microvolts to the target units.
// The engine and database work in microvolts throughout.
func ConvertAmplitude(amplitudeUV float64, targetUnits string) float64 {
	switch targetUnits {
	case MilliV:
		return amplitudeUV / 1e3
	case Volt:
		return amplitudeUV / 1e6
	case MicroV:
		return amplitudeUV // no conversion needed
	default:
		return amplitudeUV // default to microvolts if unknown unit
	}
}
