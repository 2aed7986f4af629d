package vocabulary

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// AlternateSeparator separates a term's primary form from its alternate form.
const AlternateSeparator = " / "

// Normalizer maps a term to its file-safe key.
type Normalizer func(string) string

// Normalizer modes accepted by NewNormalizer.
const (
	ModePlain = "plain"
	ModeASCII = "ascii"
)

// Casers and transform chains keep state between calls, so every call builds
// its own.
func lowerCaser() cases.Caser {
	return cases.Lower(language.Und)
}

func stripAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// PrimaryForm returns the part of term before the first " / ", unchanged.
func PrimaryForm(term string) string {
	primary, _, _ := strings.Cut(term, AlternateSeparator)
	return primary
}

// NormalizeTerm returns the lowercase, hyphenated key of a term's primary form.
// Lowercasing follows the Unicode special casing rules, so a word-final Σ
// becomes ς ("ΝΑΟΣ" -> "ναος").
func NormalizeTerm(term string) string {
	return strings.ReplaceAll(lowerCaser().String(PrimaryForm(term)), " ", "-")
}

// NormalizeTermASCII is NormalizeTerm with combining marks removed
// (e.g. "Ἀγορά" -> "αγορα", "Élodie" -> "elodie").
func NormalizeTermASCII(term string) string {
	result, _, err := transform.String(stripAccents(), NormalizeTerm(term))
	if err != nil {
		return NormalizeTerm(term)
	}
	return result
}

// NewNormalizer returns the normalizer for mode. Unknown modes fall back to
// ModePlain.
func NewNormalizer(mode string) Normalizer {
	switch strings.ToLower(mode) {
	case ModeASCII:
		return NormalizeTermASCII
	default:
		return NormalizeTerm
	}
}
