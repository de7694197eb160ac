package fleet

import "strconv"

// Interior labels surfaced to users.
const (
	LabelNext          = "United Next"
	LabelStandard      = "Standard"
	LabelLegacy777     = "Old Domestic 777 Interior"
	LabelInternational = "International Economy/Premium Plus/Polaris"
)

// legacyOverride labels every aircraft of a fleet below an id threshold
// with a fixed interior name, regardless of the registry flag.
type legacyOverride struct {
	belowID int
	label   string
}

// legacyOverrides holds the fleet-specific override rules. The early
// domestic 777-200s were never refitted and keep their own cabin name.
var legacyOverrides = map[string]legacyOverride{
	"72": {belowID: 2511, label: LabelLegacy777},
}

// ClassifyInterior derives the human-facing interior label for an aircraft.
// Override order: legacy fleet rule first, then the wide-body long-haul
// cabin, then the plain flag.
func ClassifyInterior(code, aircraftID string, hasNext bool) string {
	if o, ok := legacyOverrides[code]; ok {
		if n, err := strconv.Atoi(Normalize(aircraftID)); err == nil && n < o.belowID {
			return o.label
		}
	}
	if !IsNarrowBody(code) && !hasNext {
		return LabelInternational
	}
	if hasNext {
		return LabelNext
	}
	return LabelStandard
}
