package resolver

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Prefixes that attach to names in transcripts but are not part of the name:
// party-group attributions, chair titles, honorifics.
var prefixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?i)\S+(?:\s+\S+)?\s+GRUBU\s+ADINA\s+`),
	regexp.MustCompile(`^(?i)TBMM\s+BAŞKANI\s+`),
	regexp.MustCompile(`^(?i)KOM[İI]SYON\s+BAŞKANI\s+`),
	regexp.MustCompile(`^(?i)BAŞKAN\s+`),
	regexp.MustCompile(`^(?i)SAYIN\s+`),
	regexp.MustCompile(`^(?i)(?:DR|PROF|DOÇ|AV)\.?\s+`),
}

var trailingParen = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// foldTransformer strips combining marks so ş/s, ğ/g, ö/o compare equal.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// DisplayName reduces a raw transcript name to its displayable core: collapsed
// whitespace, no party-group prefix, no trailing province/title parenthetical.
// Casing is preserved.
func DisplayName(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	for _, p := range prefixPatterns {
		s = p.ReplaceAllString(s, "")
	}
	s = trailingParen.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Fold lowers a display name into the comparison form: Turkish-aware
// lower-casing and diacritic-insensitive folding.
func Fold(name string) string {
	s := strings.ToLowerSpecial(unicode.TurkishCase, name)
	if folded, _, err := transform.String(foldTransformer, s); err == nil {
		s = folded
	}
	// Dotless ı has no combining decomposition; fold it by hand.
	s = strings.Map(func(r rune) rune {
		if r == 'ı' {
			return 'i'
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// KeyFor derives the stable identity key for a canonical display name.
func KeyFor(displayName string) string {
	return strings.ReplaceAll(Fold(displayName), " ", "_")
}
