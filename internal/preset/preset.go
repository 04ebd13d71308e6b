// Package preset holds the fixed catalog of gradient presets.
//
// The catalog is a process-wide constant: initialized once, never mutated,
// never exposed through a mutation API. Every integer in [0, Count()) maps to
// exactly one preset, and the mapping only changes with a deploy — callers
// can cache lookups freely. Because it's immutable after init, concurrent
// reads need no locking.
package preset

import (
	"fmt"
	"strings"

	"github.com/sakif/gradient-mcp/internal/apperror"
)

// Preset is one named, indexed, immutable gradient configuration.
// The colors/angle payload is consumed by the presentation layer only —
// nothing in this server interprets it beyond rendering the CSS string.
type Preset struct {
	Name   string    `json:"name"`
	Colors [2]string `json:"colors"`
	Angle  int       `json:"angle"` // degrees, for linear-gradient
}

// DefaultIndex is the preset returned when a caller omits the index.
// Deterministic by contract — never a random choice.
const DefaultIndex = 0

// catalog is the full ordered preset list. Index positions are stable across
// the deployment's lifetime; reordering or removing entries is a breaking
// content change.
var catalog = []Preset{
	{Name: "Sunset Blaze", Colors: [2]string{"#FF6B6B", "#FFE66D"}, Angle: 135},
	{Name: "Ocean Deep", Colors: [2]string{"#00D4FF", "#0099FF"}, Angle: 180},
	{Name: "Forest Dawn", Colors: [2]string{"#11998E", "#38EF7D"}, Angle: 120},
	{Name: "Purple Haze", Colors: [2]string{"#9D50BB", "#6E48AA"}, Angle: 135},
	{Name: "Fire Burst", Colors: [2]string{"#FF512F", "#DD2476"}, Angle: 45},
	{Name: "Candy Floss", Colors: [2]string{"#FFA8D5", "#FF85E4"}, Angle: 90},
	{Name: "Northern Lights", Colors: [2]string{"#00C9FF", "#92FE9D"}, Angle: 45},
	{Name: "Peachy Keen", Colors: [2]string{"#FF9A56", "#FFBE76"}, Angle: 180},
	{Name: "Neon Nights", Colors: [2]string{"#FF006E", "#8338EC"}, Angle: 135},
	{Name: "Emerald Sea", Colors: [2]string{"#08AEEA", "#2AF598"}, Angle: 90},
	{Name: "Lavender Dream", Colors: [2]string{"#B993D6", "#8CA6DB"}, Angle: 120},
	{Name: "Cosmic Dust", Colors: [2]string{"#7F00FF", "#E100FF"}, Angle: 45},
	{Name: "Mango Tango", Colors: [2]string{"#FF8008", "#FFC837"}, Angle: 90},
	{Name: "Sky Blue", Colors: [2]string{"#56CCF2", "#2F80ED"}, Angle: 180},
	{Name: "Rose Gold", Colors: [2]string{"#F093FB", "#F5576C"}, Angle: 135},
	{Name: "Mint Fresh", Colors: [2]string{"#A8EDEA", "#FED6E3"}, Angle: 120},
	{Name: "Electric Violet", Colors: [2]string{"#4776E6", "#8E54E9"}, Angle: 45},
	{Name: "Citrus Burst", Colors: [2]string{"#FDFC47", "#24FE41"}, Angle: 90},
	{Name: "Cherry Blossom", Colors: [2]string{"#FBC2EB", "#A6C1EE"}, Angle: 135},
	{Name: "Aqua Marine", Colors: [2]string{"#1CB5E0", "#000851"}, Angle: 180},
	{Name: "Golden Hour", Colors: [2]string{"#FDBB2D", "#22C1C3"}, Angle: 45},
	{Name: "Berry Smoothie", Colors: [2]string{"#E94057", "#8A2387"}, Angle: 120},
	{Name: "Ice Blue", Colors: [2]string{"#AAFFA9", "#11FFBD"}, Angle: 90},
	{Name: "Sunset Purple", Colors: [2]string{"#6D28D9", "#DB2777"}, Angle: 135},
	{Name: "Coral Reef", Colors: [2]string{"#FF7E5F", "#FEB47B"}, Angle: 180},
}

// heroIndexes are the curated subset that looks best behind tweet text.
var heroIndexes = []int{0, 1, 3, 4, 9, 12, 14, 24}

// Count returns the number of presets in the catalog.
func Count() int {
	return len(catalog)
}

// Lookup resolves an optional preset index.
//
// A nil index resolves to DefaultIndex — the same preset on every call, so
// responses stay reproducible and cacheable. An out-of-range index fails
// with an invalid-argument error rather than clamping or wrapping: silently
// substituting a different preset would hide client bugs.
func Lookup(index *int) (Preset, error) {
	if index == nil {
		return catalog[DefaultIndex], nil
	}
	if *index < 0 || *index >= len(catalog) {
		return Preset{}, apperror.InvalidArgument("presetIndex",
			fmt.Sprintf("index out of bounds: %d (valid range 0..%d)", *index, len(catalog)-1))
	}
	return catalog[*index], nil
}

// Get returns the preset at a known-valid index. It panics on an invalid
// index — use Lookup for caller-supplied values.
func Get(i int) Preset {
	return catalog[i]
}

// ByName finds a preset by its label, case-insensitively.
func ByName(name string) (Preset, int, error) {
	for i, p := range catalog {
		if strings.EqualFold(p.Name, name) {
			return p, i, nil
		}
	}
	return Preset{}, 0, apperror.NotFound("preset", name)
}

// CSS renders the preset as a CSS linear-gradient value for the widget.
func (p Preset) CSS() string {
	return fmt.Sprintf("linear-gradient(%ddeg, %s, %s)", p.Angle, p.Colors[0], p.Colors[1])
}

// Hero returns one of the curated hero presets by hero-slot index [0, HeroCount).
func Hero(i int) (Preset, error) {
	if i < 0 || i >= len(heroIndexes) {
		return Preset{}, apperror.InvalidArgument("heroIndex",
			fmt.Sprintf("index out of bounds: %d (valid range 0..%d)", i, len(heroIndexes)-1))
	}
	return catalog[heroIndexes[i]], nil
}

// HeroCount returns the size of the hero subset.
func HeroCount() int {
	return len(heroIndexes)
}

// Heroes returns the curated hero presets in display order.
func Heroes() []Preset {
	out := make([]Preset, len(heroIndexes))
	for i, idx := range heroIndexes {
		out[i] = catalog[idx]
	}
	return out
}
