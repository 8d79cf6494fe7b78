// Package climate classifies a location into the coarse climate zones used to
// adjust system lifespans and seasonal task timing.
package climate

import (
	"strings"
	"unicode"
)

// Zone is a coarse climate classification.
type Zone string

// Climate zones.
const (
	HighHeat   Zone = "high_heat"
	Coastal    Zone = "coastal"
	FreezeThaw Zone = "freeze_thaw"
	Moderate   Zone = "moderate"
)

// Zones lists every zone in classification order.
var Zones = []Zone{HighHeat, Coastal, FreezeThaw, Moderate}

// Latitude thresholds (degrees north).
const (
	highHeatMaxLat   = 28.0 // south of this is always hot
	freezeThawMinLat = 42.0 // north of this sees regular freeze-thaw cycles
)

func (z Zone) String() string { return string(z) }

// Valid reports whether z is one of the four known zones.
func (z Zone) Valid() bool {
	switch z {
	case HighHeat, Coastal, FreezeThaw, Moderate:
		return true
	}
	return false
}

// ParseZone returns the zone named s, or Moderate when s is unknown.
func ParseZone(s string) Zone {
	z := Zone(strings.ToLower(strings.TrimSpace(s)))
	if z.Valid() {
		return z
	}
	return Moderate
}

var hotStates = map[string]bool{
	"fl": true, "tx": true, "az": true, "nv": true, "la": true, "hi": true,
}

// Named cities match the whole city name, so "Mesa" does not match
// "Costa Mesa". Keywords match whole words.
var hotCities = cityNames(
	"phoenix", "tucson", "las vegas", "miami", "tampa", "orlando", "houston",
	"san antonio", "austin", "dallas", "el paso", "palm springs", "new orleans",
	"scottsdale", "mesa", "fort lauderdale", "jacksonville",
)

var coastalCities = cityNames(
	"san diego", "santa monica", "santa barbara", "santa cruz", "monterey",
	"san francisco", "long beach", "malibu", "costa mesa", "charleston", "savannah",
	"wilmington", "virginia beach", "myrtle beach", "outer banks", "cape cod",
	"galveston", "mobile", "biloxi", "seattle",
)

// coastalStateCities are coastal only in the listed state.
var coastalStateCities = map[string]string{
	"portland": "me",
	"newport":  "ri",
}

var coastalKeywords = cityNames("beach", "coast", "shore", "harbor", "harbour", "island")

var coldStates = map[string]bool{
	"ak": true, "mn": true, "wi": true, "mi": true, "nd": true, "sd": true,
	"me": true, "vt": true, "nh": true, "ny": true, "ma": true, "mt": true,
	"wy": true, "id": true, "ia": true, "ne": true, "co": true, "ct": true,
	"ri": true, "pa": true, "oh": true, "il": true, "in": true, "ut": true,
}

var coldCities = cityNames(
	"minneapolis", "st. paul", "chicago", "detroit", "buffalo", "milwaukee",
	"denver", "boston", "cleveland", "pittsburgh", "fargo", "anchorage",
	"madison", "rochester", "syracuse", "burlington", "duluth", "green bay",
)

// DeriveZone classifies a location. It is total: any combination of inputs,
// including all empty, yields exactly one zone. Rules are checked in order
// and the first match wins: high heat, coastal, freeze-thaw, then moderate.
func DeriveZone(state, city string, lat *float64) Zone {
	st := stateCode(state)
	c := normalizeCity(city)

	if hotStates[st] || (lat != nil && *lat < highHeatMaxLat) || hotCities[c] {
		return HighHeat
	}
	if c != "" && (coastalCities[c] || (st != "" && coastalStateCities[c] == st) || hasWord(c, coastalKeywords)) {
		return Coastal
	}
	if coldStates[st] || (lat != nil && *lat > freezeThawMinLat) || coldCities[c] {
		return FreezeThaw
	}
	return Moderate
}

// normalizeCity lower-cases a city name and reduces punctuation and runs of
// whitespace to single spaces.
func normalizeCity(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

func cityNames(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[normalizeCity(n)] = true
	}
	return m
}

func hasWord(s string, words map[string]bool) bool {
	for _, w := range strings.Fields(s) {
		if words[w] {
			return true
		}
	}
	return false
}
