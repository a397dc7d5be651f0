// Package glyph restores IAST diacritics from legacy-font character
// corruption in extracted PDF text.
package glyph

import (
	"fmt"
	"strings"
)

// Rules holds the substitution tables for a Corrector.
//
// Global rules apply to every book, one pass, character by character.
// Conditional rules apply only to books in the corrector's conditional set,
// strictly after the global pass, and only ever inspect corrected output.
type Rules struct {
	Global      map[rune]rune
	Conditional map[rune]rune
}

// DefaultRules returns the curated substitution tables for the legacy fonts
// this corpus was typeset in.
//
// The ambiguous legacy characters å and ñ are deliberately absent from the
// global table: depending on the word, å stands for ā or ṛ and ñ for ñ or ṣ,
// so a context-free rule would corrupt text. Those characters are resolved
// through corpus mining (package ambiguity) and per-book curation instead.
func DefaultRules() Rules {
	return Rules{
		Global: map[rune]rune{
			'ä': 'ā', 'Ä': 'Ā',
			'é': 'ī', 'É': 'Ī',
			'ë': 'ṇ', 'Ë': 'Ṇ',
			'ï': 'ñ', 'Ï': 'Ñ',
			'ö': 'ṭ', 'Ö': 'Ṭ',
			'ü': 'ū', 'Ü': 'Ū',
			'ò': 'ḍ', 'Ò': 'Ḍ',
			'ç': 'ś', 'Ç': 'Ś',
			'ù': 'ḥ', 'Ù': 'Ḥ',
			'î': 'ī', 'Î': 'Ī',
			'ÿ': 'ṁ', 'Ÿ': 'Ṁ',
			'à': 'ā', 'À': 'Ā',
			'ß': 'ṣ',
			'®': 'ṛ',
			'µ': 'ṁ',
			'√': 'ṇ',
			'∂': 'ḍ',
			'∫': 'ṅ',
			'†': 'ṭ',
			'ˇ': 'Ṭ',
		},
		// The vocalic-r produced by the global pass reads as long-a in a
		// handful of books whose legacy font reused the same slot. Applied
		// second, on corrected output only.
		Conditional: map[rune]rune{
			'ṛ': 'ā',
			'Ṛ': 'Ā',
		},
	}
}

// Corrector applies glyph substitution rules to extracted text.
// It is immutable after construction and safe for concurrent use.
type Corrector struct {
	global           map[rune]rune
	conditional      map[rune]rune
	conditionalBooks map[int]bool
}

// NewCorrector builds a Corrector from the given rules and the set of book
// ids subject to the conditional pass.
//
// The global table is rejected if any rule's target is itself a global source
// key: that would make correction order-dependent and non-idempotent.
func NewCorrector(rules Rules, conditionalBooks map[int]bool) (*Corrector, error) {
	for src, dst := range rules.Global {
		if _, clash := rules.Global[dst]; clash {
			return nil, fmt.Errorf("glyph: global rule %q -> %q maps onto another source character", src, dst)
		}
	}

	global := make(map[rune]rune, len(rules.Global))
	for src, dst := range rules.Global {
		global[src] = dst
	}
	conditional := make(map[rune]rune, len(rules.Conditional))
	for src, dst := range rules.Conditional {
		conditional[src] = dst
	}
	books := make(map[int]bool, len(conditionalBooks))
	for id, ok := range conditionalBooks {
		if ok {
			books[id] = true
		}
	}

	return &Corrector{global: global, conditional: conditional, conditionalBooks: books}, nil
}

// MustCorrector is NewCorrector for tables known valid at compile time.
func MustCorrector(rules Rules, conditionalBooks map[int]bool) *Corrector {
	c, err := NewCorrector(rules, conditionalBooks)
	if err != nil {
		panic(err)
	}
	return c
}

// Correct replaces corrupted legacy glyphs with IAST characters.
//
// A bookID <= 0 means "no book context". Unmapped characters pass through
// unchanged, and Correct never fails: for corrupted scans, preserving what
// is there beats refusing to answer. Correct is idempotent for any text and
// book id.
func (c *Corrector) Correct(text string, bookID int) string {
	if text == "" {
		return text
	}

	out := c.apply(text, c.global)
	if bookID > 0 && c.conditionalBooks[bookID] {
		out = c.apply(out, c.conditional)
	}
	return out
}

// Global returns a copy of the global substitution table.
func (c *Corrector) Global() map[rune]rune {
	table := make(map[rune]rune, len(c.global))
	for src, dst := range c.global {
		table[src] = dst
	}
	return table
}

// IsConditional reports whether the conditional pass applies to bookID.
func (c *Corrector) IsConditional(bookID int) bool {
	return bookID > 0 && c.conditionalBooks[bookID]
}

func (c *Corrector) apply(text string, table map[rune]rune) string {
	changed := false
	for _, r := range text {
		if _, ok := table[r]; ok {
			changed = true
			break
		}
	}
	if !changed {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if dst, ok := table[r]; ok {
			b.WriteRune(dst)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
