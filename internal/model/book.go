package model

// Book is the persisted metadata for one scanned book. Header/footer heights
// are absolute page-unit offsets refined over time by calibration; zero means
// "not yet determined".
type Book struct {
	BookID       int     `json:"book_id"`
	PDFName      string  `json:"pdf_name"`
	BookType     string  `json:"book_type"`
	HeaderHeight float64 `json:"header_height"` // Y below which the header lives, from page top
	FooterHeight float64 `json:"footer_height"` // Y at which the footer starts, from page top
	TotalPages   int     `json:"total_pages"`
}

// TOCEntry is one table-of-contents row, ordered by page within a book.
// Read-only to the core.
type TOCEntry struct {
	Title string `json:"title"`
	Page  int    `json:"page"`
	Level int    `json:"level"`
}

// Occurrence records where a mined word was seen.
type Occurrence struct {
	BookID int `json:"book_id"`
	Page   int `json:"page"`
}

// AmbiguousWordRecord is one curatable row of the ambiguity mining output:
// a word that still carries an ambiguous legacy character after all
// unambiguous substitutions, keyed by the font it was set in.
type AmbiguousWordRecord struct {
	Font        string       `json:"font_name"`
	Char        rune         `json:"diacritic"` // normalized lowercase ambiguous char
	Word        string       `json:"word"`
	Count       int          `json:"occurrence_count"`
	Occurrences []Occurrence `json:"occurrences"`
}

// GlyphCensusRecord aggregates how often a dangerous glyph occurs in a given
// font within one book. Used to derive per-font correction profiles.
type GlyphCensusRecord struct {
	BookID int    `json:"book_id"`
	Font   string `json:"font_name"`
	Glyph  rune   `json:"glyph"`
	Count  int    `json:"occurrence_count"`
}
