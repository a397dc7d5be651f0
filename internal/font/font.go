// Package font classifies PDF font names into the script/origin categories
// the extraction and mining paths filter on.
package font

import "strings"

// Class is the script/origin category of a font.
type Class int

const (
	// ClassOther covers fonts with no legacy risk: common unmodified Latin
	// faces and anything matching both indicator lists.
	ClassOther Class = iota

	// ClassDevanagari marks Devanagari/Hindi/Bengali rendering fonts. Spans
	// in these fonts are never corrupted IAST and must not enter ambiguity
	// mining.
	ClassDevanagari

	// ClassLatinLegacy marks Latin fonts not on the known-clean list: the
	// suspicious custom faces whose encoding may hide corrupted diacritics.
	ClassLatinLegacy
)

// String returns the class name used in reports and persistence.
func (c Class) String() string {
	switch c {
	case ClassDevanagari:
		return "devanagari"
	case ClassLatinLegacy:
		return "latin_legacy"
	default:
		return "other"
	}
}

// reservedPrefixes are font families that carry Hindi/Bengali diacritics and
// must never be treated as IAST-corrupted Latin text, whatever else their
// name matches.
var reservedPrefixes = []string{"aaritu", "aatripti"}

// devanagariIndicators are name fragments of Devanagari rendering fonts.
var devanagariIndicators = []string{
	"devanagari", "sanskrit", "hindi", "bengali", "mangal",
	"siddhanta", "chandas", "aaritu", "narad", "kruti",
}

// commonLatinIndicators are widespread unmodified Latin faces, used as a
// negative filter when hunting for suspicious unknown fonts.
var commonLatinIndicators = []string{
	"times", "arial", "helvetica", "courier", "georgia",
	"garamond", "janson", "goudy", "palatino", "minion",
	"verdana", "calibri", "cambria",
}

// Classifier classifies font names. The indicator lists are fixed at
// construction; the zero value is not usable, call NewClassifier.
type Classifier struct {
	reserved   []string
	devanagari []string
	latin      []string
}

// NewClassifier returns a Classifier with the curated indicator lists.
func NewClassifier() *Classifier {
	return &Classifier{
		reserved:   reservedPrefixes,
		devanagari: devanagariIndicators,
		latin:      commonLatinIndicators,
	}
}

// Classify categorizes a font name. Matching is case-insensitive substring
// matching; a name matching both lists resolves to ClassOther.
func (c *Classifier) Classify(fontName string) Class {
	if fontName == "" {
		return ClassOther
	}
	lower := strings.ToLower(fontName)

	for _, prefix := range c.reserved {
		if strings.HasPrefix(lower, prefix) {
			return ClassDevanagari
		}
	}

	dev := matchesAny(lower, c.devanagari)
	latin := matchesAny(lower, c.latin)
	switch {
	case dev && latin:
		return ClassOther
	case dev:
		return ClassDevanagari
	case latin:
		return ClassOther
	default:
		return ClassLatinLegacy
	}
}

// Excluded reports whether spans in this font must be dropped when the
// caller requests Devanagari exclusion.
func (c *Classifier) Excluded(fontName string) bool {
	return c.Classify(fontName) == ClassDevanagari
}

func matchesAny(lower string, indicators []string) bool {
	for _, ind := range indicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}
