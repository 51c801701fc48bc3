package utils

import (
	"regexp"
	"strings"
)

// The channels all describe the same three properties with their own
// free-text unit names ("Green apartment - one bedroom", "garden view /
// child friendly", "RED studio"...). listingPatterns maps those onto the
// small fixed set of canonical listings the ledger reports on. Order
// matters: first match wins.
var listingPatterns = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`(?i)green|\bone\b`), "Aurora Loft"},
	{regexp.MustCompile(`(?i)garden|child`), "Garden House"},
	{regexp.MustCompile(`(?i)red`), "Red Door Studio"},
}

// CanonicalListing maps a raw channel unit name onto a canonical listing.
// Unmatched names fall back to the trimmed raw name so the row still
// reconciles; the caller flags the row with a warning.
func CanonicalListing(rawUnitName string) (string, bool) {
	trimmed := strings.TrimSpace(rawUnitName)
	for _, p := range listingPatterns {
		if p.re.MatchString(trimmed) {
			return p.name, true
		}
	}
	return trimmed, false
}
