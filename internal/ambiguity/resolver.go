// Package ambiguity mines a corpus for words whose glyph correction cannot be
// decided by a context-free table, producing the candidate list a curator
// resolves into book-specific rules.
package ambiguity

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kamaldivi/glyphscan/internal/font"
	"github.com/kamaldivi/glyphscan/internal/glyph"
	"github.com/kamaldivi/glyphscan/internal/model"
)

// The two legacy characters with more than one valid IAST reading. Depending
// on the word, å is ā or ṛ and ñ is ñ or ṣ, so they survive global correction
// and are collected here instead. Case folds to the lowercase bucket key.
var ambiguousNorm = map[rune]rune{
	'å': 'å', 'Å': 'å',
	'ñ': 'ñ', 'Ñ': 'ñ',
}

// wordChars is the character class of a candidate word: plain Latin, IAST
// targets, the ambiguous pair, the raw legacy glyphs (a word may be inspected
// before correction), apostrophe for elisions, hyphen for compounds.
const wordChars = `A-Za-z` +
	`āīūṛṝḷḹṅṭḍṇśṣṃṁḥ` +
	`ĀĪŪṚṜḶḸṄṬḌṆŚṢṂṀḤ` +
	`åÅñÑ` +
	`äÄéÉëËïÏöÖüÜòÒçÇùÙîÎÿŸàÀß®µ√∂∫†ˇ` +
	`'`

var wordPattern = regexp.MustCompile(`[` + wordChars + `-]+`)

type bucketKey struct {
	Font string
	Char rune
}

type bucketEntry struct {
	Count       int
	Occurrences []model.Occurrence
}

type censusKey struct {
	BookID int
	Font   string
	Glyph  rune
}

// Resolver accumulates ambiguous-word candidates across a corpus scan.
// Books are processed concurrently; every bucket update is a single
// atomic read-modify-write under the resolver's lock, which is what keeps
// the substring-minimality invariant intact when two books contribute
// related words at the same time.
type Resolver struct {
	corrector  *glyph.Corrector
	classifier *font.Classifier
	legacy     map[rune]bool

	mu      sync.Mutex
	buckets map[bucketKey]map[string]*bucketEntry
	census  map[censusKey]int
}

// NewResolver builds a Resolver sharing the scan's corrector and classifier.
func NewResolver(corrector *glyph.Corrector, classifier *font.Classifier) *Resolver {
	legacy := make(map[rune]bool)
	for src := range corrector.Global() {
		legacy[src] = true
	}
	for src := range ambiguousNorm {
		legacy[src] = true
	}
	return &Resolver{
		corrector:  corrector,
		classifier: classifier,
		legacy:     legacy,
		buckets:    make(map[bucketKey]map[string]*bucketEntry),
		census:     make(map[censusKey]int),
	}
}

// MinePage feeds every eligible span of a page into the accumulator.
// pageNumber is 1-based.
func (r *Resolver) MinePage(bookID int, pageNumber int, page model.Page) {
	for _, span := range page.Spans {
		r.MineSpan(bookID, pageNumber, span)
	}
}

// MineSpan processes one text span. Devanagari-classified spans carry native
// diacritics, not corruption, and are always skipped.
func (r *Resolver) MineSpan(bookID int, pageNumber int, span model.Span) {
	if r.classifier.Classify(span.Font) == font.ClassDevanagari {
		return
	}

	r.recordCensus(bookID, span.Font, span.Text)

	for _, token := range strings.Fields(span.Text) {
		for _, word := range wordPattern.FindAllString(token, -1) {
			for _, part := range splitCompound(word) {
				r.mineCandidate(bookID, pageNumber, span.Font, part)
			}
		}
	}
}

// mineCandidate corrects a single hyphen-free word and upserts it into the
// bucket of each ambiguous glyph present in the RAW word. The raw form
// decides the buckets: correction can also produce ñ (from ï), but that
// reading is certain and must never manufacture a candidate.
func (r *Resolver) mineCandidate(bookID, pageNumber int, fontName, word string) {
	var chars []rune
	seen := make(map[rune]bool, 2)
	for _, c := range word {
		norm, ok := ambiguousNorm[c]
		if !ok || seen[norm] {
			continue
		}
		seen[norm] = true
		chars = append(chars, norm)
	}
	if len(chars) == 0 {
		return
	}

	corrected := r.corrector.Correct(word, 0)
	for _, norm := range chars {
		r.upsert(fontName, norm, corrected, bookID, pageNumber)
	}
}

// splitCompound reduces a hyphenated compound to its smallest parts. The
// joined form is never a candidate, only the parts are, so a compound cannot
// shadow the short words a curator actually needs to rule on.
func splitCompound(word string) []string {
	if !strings.Contains(word, "-") {
		return []string{word}
	}
	raw := strings.Split(word, "-")
	parts := raw[:0]
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// upsert inserts a candidate under the shortest-form invariant: a candidate
// containing an already-stored word is discarded, and inserting a candidate
// evicts any stored superstring of it. No two stored words in a bucket are
// ever in a substring relation.
func (r *Resolver) upsert(fontName string, char rune, word string, bookID, pageNumber int) {
	occ := model.Occurrence{BookID: bookID, Page: pageNumber}
	key := bucketKey{Font: fontName, Char: char}

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.buckets[key]
	if bucket == nil {
		bucket = make(map[string]*bucketEntry)
		r.buckets[key] = bucket
	}

	if entry, ok := bucket[word]; ok {
		entry.Count++
		entry.Occurrences = append(entry.Occurrences, occ)
		return
	}
	for existing := range bucket {
		if strings.Contains(word, existing) {
			return
		}
	}
	for existing := range bucket {
		if strings.Contains(existing, word) {
			delete(bucket, existing)
		}
	}
	bucket[word] = &bucketEntry{Count: 1, Occurrences: []model.Occurrence{occ}}
}

// recordCensus tallies legacy-glyph frequencies per (book, font). The census
// is what tells a curator which fonts in which books still need rules.
func (r *Resolver) recordCensus(bookID int, fontName, text string) {
	counts := make(map[rune]int)
	for _, c := range text {
		if r.legacy[c] {
			counts[c]++
		}
	}
	if len(counts) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for c, n := range counts {
		r.census[censusKey{BookID: bookID, Font: fontName, Glyph: c}] += n
	}
}

// Records returns a sorted snapshot of the accumulated ambiguous words.
// Safe to call while mining continues; the snapshot is independent of the
// accumulator.
func (r *Resolver) Records() []model.AmbiguousWordRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	var records []model.AmbiguousWordRecord
	for key, bucket := range r.buckets {
		for word, entry := range bucket {
			occs := make([]model.Occurrence, len(entry.Occurrences))
			copy(occs, entry.Occurrences)
			records = append(records, model.AmbiguousWordRecord{
				Font:        key.Font,
				Char:        key.Char,
				Word:        word,
				Count:       entry.Count,
				Occurrences: occs,
			})
		}
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Font != b.Font {
			return a.Font < b.Font
		}
		if a.Char != b.Char {
			return a.Char < b.Char
		}
		return a.Word < b.Word
	})
	return records
}

// CensusRecords returns a sorted snapshot of the glyph census.
func (r *Resolver) CensusRecords() []model.GlyphCensusRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	var records []model.GlyphCensusRecord
	for key, n := range r.census {
		records = append(records, model.GlyphCensusRecord{
			BookID: key.BookID,
			Font:   key.Font,
			Glyph:  key.Glyph,
			Count:  n,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.BookID != b.BookID {
			return a.BookID < b.BookID
		}
		if a.Font != b.Font {
			return a.Font < b.Font
		}
		return a.Glyph < b.Glyph
	})
	return records
}
