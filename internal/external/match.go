package external

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// FuzzyNameThreshold is the name-only match confidence floor (no MMSI/IMO
// backup, no flag pre-filter).
const FuzzyNameThreshold = 92

// FuzzyNameWithFlagThreshold is the match confidence floor once a flag
// pre-filter has narrowed the candidate set.
const FuzzyNameWithFlagThreshold = 85

var mmsiPattern = regexp.MustCompile(`^\d{9}$`)

// isValidMMSI reports whether s looks like a 9-digit MMSI.
func isValidMMSI(s string) bool {
	return mmsiPattern.MatchString(strings.TrimSpace(s))
}

// normalizeName decomposes the name and drops combining marks, so
// accented Latin letters match their plain ASCII spelling, strips
// punctuation, then upper-cases and trims. Letters of other scripts
// (Cyrillic, for example) are kept as they are, not transliterated.
func normalizeName(name string) string {
	if name == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, name)
	if err != nil {
		ascii = name
	}
	ascii = stripPunctuation(ascii)
	return strings.ToUpper(strings.TrimSpace(ascii))
}

var punctuationStripper = regexp.MustCompile(`[^\p{L}\p{N} ]+`)

func stripPunctuation(s string) string {
	return punctuationStripper.ReplaceAllString(s, "")
}

// MatchResult is how a watchlist/GFW row resolved to a canonical vessel.
type MatchResult struct {
	Vessel     models.Vessel
	MatchedOn  string // mmsi/imo/fuzzy_name
	Confidence float64
}

// ResolveVessel tries MMSI, then IMO, then (if a name is given) a fuzzy
// name match, optionally narrowed by flag.
func ResolveVessel(resolver VesselResolver, mmsi, imo, name, flag string) (MatchResult, bool) {
	if mmsi != "" && isValidMMSI(mmsi) {
		if v, ok := resolver.VesselByMMSI(strings.TrimSpace(mmsi)); ok {
			return MatchResult{Vessel: v, MatchedOn: "mmsi", Confidence: 100}, true
		}
	}
	if imo != "" {
		if v, ok := resolver.VesselByIMO(strings.TrimSpace(imo)); ok {
			return MatchResult{Vessel: v, MatchedOn: "imo", Confidence: 100}, true
		}
	}
	if name != "" {
		return FuzzyMatchVessel(resolver, name, flag)
	}
	return MatchResult{}, false
}

// FuzzyMatchVessel ranks every candidate vessel (flag-filtered if flag is
// non-empty) by Levenshtein similarity ratio against name, accepting the
// best match if it clears the threshold for the search mode used.
func FuzzyMatchVessel(resolver VesselResolver, name, flag string) (MatchResult, bool) {
	if name == "" {
		return MatchResult{}, false
	}

	threshold := FuzzyNameWithFlagThreshold
	var candidates []models.Vessel
	if flag != "" {
		candidates = resolver.VesselsByFlag(strings.TrimSpace(flag))
	} else {
		threshold = FuzzyNameThreshold
		candidates = resolver.AllNamedVessels()
	}

	target := normalizeName(name)
	var best models.Vessel
	bestScore := -1.0
	for _, v := range candidates {
		if v.Name == "" {
			continue
		}
		score := similarityRatio(target, normalizeName(v.Name))
		if score > bestScore {
			bestScore = score
			best = v
		}
	}
	if bestScore >= float64(threshold) {
		return MatchResult{Vessel: best, MatchedOn: "fuzzy_name", Confidence: bestScore}, true
	}
	return MatchResult{}, false
}

// similarityRatio converts a Levenshtein edit distance into a 0-100
// similarity ratio, the same normalization rapidfuzz.fuzz.ratio uses:
// 100 * (1 - distance / max(len(a), len(b))).
func similarityRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 100
	}
	maxLen := len([]rune(a))
	if bl := len([]rune(b)); bl > maxLen {
		maxLen = bl
	}
	if maxLen == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(maxLen))
}
