// Package care turns raw care-facts field values into display strings.
//
// The care-facts API returns each attribute (sunlight, watering, humidity) as
// either a string, a list of strings, or nothing at all, and on the free tier
// replaces gated values with a marketing placeholder. Normalize maps every
// such input to a string that is safe to show.
package care

import (
	"strings"

	"github.com/dmitrijs2005/bloombuddy/internal/common"
)

// FieldKind names the care attribute a value belongs to. It selects the
// fallback shown when the real value is hidden behind the paywall.
type FieldKind int

const (
	Other FieldKind = iota
	Sunlight
	Watering
	Humidity
)

// Fallback returns the placeholder-free default for the kind.
func (k FieldKind) Fallback() string {
	switch k {
	case Sunlight:
		return "Medium"
	case Watering:
		return "2 times a day"
	case Humidity:
		return "Regular atmosphere humidity"
	case Other:
		return "Not available on free plan"
	}
	return "Not available on free plan"
}

func (k FieldKind) String() string {
	switch k {
	case Sunlight:
		return "sunlight"
	case Watering:
		return "watering"
	case Humidity:
		return "humidity"
	case Other:
		return "other"
	}
	return "other"
}

// Normalize returns the display string for v.
//
//  1. a single string containing the paywall marker yields kind's fallback;
//  2. a list drops every entry containing the marker, yields the fallback if
//     nothing is left, and otherwise joins the survivors with ", ";
//  3. an absent value or empty string yields "N/A";
//  4. anything else is returned as is.
//
// v is never modified.
func Normalize(v Value, kind FieldKind) string {
	switch v.shape {
	case shapeText:
		if isPaywalled(v.text) {
			return kind.Fallback()
		}
		if v.text == "" {
			return common.NotAvailable
		}
		return v.text
	case shapeList:
		kept := make([]string, 0, len(v.list))
		for _, item := range v.list {
			if !isPaywalled(item) {
				kept = append(kept, item)
			}
		}
		if len(kept) == 0 {
			return kind.Fallback()
		}
		return strings.Join(kept, ", ")
	}
	return common.NotAvailable
}

// OrNA returns the value's text, or "N/A" when it has none. Lists are joined
// without filtering. Used for free-text fields such as the description.
func OrNA(v Value) string {
	if s := v.String(); s != "" {
		return s
	}
	return common.NotAvailable
}

func isPaywalled(s string) bool {
	return strings.Contains(strings.ToLower(s), common.PaywallMarker)
}
