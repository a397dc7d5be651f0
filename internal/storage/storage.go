// Package storage persists book metadata, TOC entries, and the mining output
// of a corpus scan.
package storage

import (
	"context"

	"github.com/kamaldivi/glyphscan/internal/model"
)

// Store is the persistence interface for scan input and output. Batch scans
// treat store errors as fatal: there is no meaningful partial progress
// without a working store.
type Store interface {
	// UpsertBook inserts or replaces a book row.
	UpsertBook(ctx context.Context, book model.Book) error

	// GetBook fetches one book by id.
	GetBook(ctx context.Context, bookID int) (model.Book, error)

	// ListBooks returns all books ordered by id.
	ListBooks(ctx context.Context) ([]model.Book, error)

	// SaveBoundaries writes detected absolute header/footer offsets back to
	// the book row.
	SaveBoundaries(ctx context.Context, bookID int, headerHeight, footerHeight float64) error

	// ReplaceTOC swaps a book's TOC entries in one transaction.
	ReplaceTOC(ctx context.Context, bookID int, entries []model.TOCEntry) error

	// TOCEntries returns a book's TOC ordered by page.
	TOCEntries(ctx context.Context, bookID int) ([]model.TOCEntry, error)

	// ReplaceAmbiguousWords swaps the mined candidate words of every font
	// present in records, in one transaction.
	ReplaceAmbiguousWords(ctx context.Context, records []model.AmbiguousWordRecord) error

	// AmbiguousWords returns mined words for one font, or all fonts when
	// fontName is empty.
	AmbiguousWords(ctx context.Context, fontName string) ([]model.AmbiguousWordRecord, error)

	// ReplaceGlyphCensus swaps the glyph census rows of the books present in
	// records, in one transaction.
	ReplaceGlyphCensus(ctx context.Context, records []model.GlyphCensusRecord) error

	// Close releases the underlying connection.
	Close() error
}
