package address

import "strings"

// supportedCountryCodes is the European set the storefront ships to.
var supportedCountryCodes = map[string]struct{}{
	"dk": {}, "fr": {}, "de": {}, "it": {}, "es": {}, "se": {}, "gb": {},
	"nl": {}, "be": {}, "at": {}, "ch": {}, "pt": {}, "ie": {}, "fi": {},
	"no": {}, "pl": {}, "cz": {}, "hu": {}, "ro": {}, "bg": {}, "hr": {},
	"si": {}, "sk": {}, "ee": {}, "lv": {}, "lt": {}, "mt": {}, "cy": {},
	"lu": {}, "gr": {},
}

// countryAliases maps common country names and variants to ISO codes.
var countryAliases = map[string]string{
	"united kingdom": "gb",
	"uk":             "gb",
	"great britain":  "gb",
	"england":        "gb",
	"denmark":        "dk",
	"france":         "fr",
	"germany":        "de",
	"italy":          "it",
	"spain":          "es",
	"sweden":         "se",
	"netherlands":    "nl",
	"belgium":        "be",
	"austria":        "at",
	"switzerland":    "ch",
	"portugal":       "pt",
	"ireland":        "ie",
	"finland":        "fi",
	"norway":         "no",
	"poland":         "pl",
	"czech republic": "cz",
	"hungary":        "hu",
	"romania":        "ro",
	"bulgaria":       "bg",
	"croatia":        "hr",
	"slovenia":       "si",
	"slovakia":       "sk",
	"estonia":        "ee",
	"latvia":         "lv",
	"lithuania":      "lt",
	"malta":          "mt",
	"cyprus":         "cy",
	"luxembourg":     "lu",
	"greece":         "gr",
}

// NormalizeCountryCode lowercases and trims the input, passes supported ISO
// codes through, resolves known country names, and falls back to the
// configured country for anything unrecognized.
func NormalizeCountryCode(raw, fallback string) string {
	if fallback == "" {
		fallback = "gb"
	}
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return fallback
	}
	if mapped, ok := countryAliases[normalized]; ok {
		return mapped
	}
	if _, ok := supportedCountryCodes[normalized]; ok {
		return normalized
	}
	return fallback
}
