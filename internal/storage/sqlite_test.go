package storage

import (
	"context"
	"testing"

	"github.com/kamaldivi/glyphscan/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBookRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	book := model.Book{
		BookID:       56,
		PDFName:      "jaiva-dharma.pdf",
		BookType:     "translation",
		HeaderHeight: 55,
		FooterHeight: 750,
		TotalPages:   620,
	}
	if err := s.UpsertBook(ctx, book); err != nil {
		t.Fatalf("UpsertBook: %v", err)
	}

	got, err := s.GetBook(ctx, 56)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got != book {
		t.Errorf("GetBook = %+v, want %+v", got, book)
	}

	// Upsert replaces the existing row.
	book.TotalPages = 640
	if err := s.UpsertBook(ctx, book); err != nil {
		t.Fatalf("UpsertBook (replace): %v", err)
	}
	got, _ = s.GetBook(ctx, 56)
	if got.TotalPages != 640 {
		t.Errorf("TotalPages = %d after replace, want 640", got.TotalPages)
	}
}

func TestGetBookMissing(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetBook(context.Background(), 999); err == nil {
		t.Error("GetBook on missing id must error")
	}
}

func TestListBooksOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []int{9, 3, 56} {
		if err := s.UpsertBook(ctx, model.Book{BookID: id, PDFName: "x.pdf"}); err != nil {
			t.Fatalf("UpsertBook(%d): %v", id, err)
		}
	}

	books, err := s.ListBooks(ctx)
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(books) != 3 || books[0].BookID != 3 || books[2].BookID != 56 {
		t.Errorf("ListBooks order wrong: %+v", books)
	}
}

func TestSaveBoundaries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertBook(ctx, model.Book{BookID: 3, PDFName: "x.pdf"}); err != nil {
		t.Fatalf("UpsertBook: %v", err)
	}
	if err := s.SaveBoundaries(ctx, 3, 56.2, 748.9); err != nil {
		t.Fatalf("SaveBoundaries: %v", err)
	}

	got, _ := s.GetBook(ctx, 3)
	if got.HeaderHeight != 56.2 || got.FooterHeight != 748.9 {
		t.Errorf("boundaries = %g/%g, want 56.2/748.9", got.HeaderHeight, got.FooterHeight)
	}

	if err := s.SaveBoundaries(ctx, 999, 1, 2); err == nil {
		t.Error("SaveBoundaries on missing book must error")
	}
}

func TestReplaceTOC(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := []model.TOCEntry{
		{Title: "Preface", Page: 1, Level: 1},
		{Title: "Chapter 1", Page: 10, Level: 1},
	}
	if err := s.ReplaceTOC(ctx, 56, first); err != nil {
		t.Fatalf("ReplaceTOC: %v", err)
	}

	second := []model.TOCEntry{
		{Title: "Chapter 1", Page: 12, Level: 1},
		{Title: "Appendix", Page: 200, Level: 1},
	}
	if err := s.ReplaceTOC(ctx, 56, second); err != nil {
		t.Fatalf("ReplaceTOC (replace): %v", err)
	}

	entries, err := s.TOCEntries(ctx, 56)
	if err != nil {
		t.Fatalf("TOCEntries: %v", err)
	}
	if len(entries) != 2 || entries[0].Title != "Chapter 1" || entries[1].Page != 200 {
		t.Errorf("entries = %+v, want replaced TOC ordered by page", entries)
	}
}

func TestReplaceAmbiguousWords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := []model.AmbiguousWordRecord{
		{
			Font: "BalaramU", Char: 'å', Word: "mahå", Count: 2,
			Occurrences: []model.Occurrence{{BookID: 1, Page: 10}, {BookID: 2, Page: 4}},
		},
		{
			Font: "BalaramU", Char: 'ñ', Word: "Kåñṇa", Count: 1,
			Occurrences: []model.Occurrence{{BookID: 1, Page: 11}},
		},
		{
			Font: "GVGaudiya", Char: 'å', Word: "nåma", Count: 1,
			Occurrences: []model.Occurrence{{BookID: 3, Page: 2}},
		},
	}
	if err := s.ReplaceAmbiguousWords(ctx, records); err != nil {
		t.Fatalf("ReplaceAmbiguousWords: %v", err)
	}

	got, err := s.AmbiguousWords(ctx, "BalaramU")
	if err != nil {
		t.Fatalf("AmbiguousWords: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	if got[0].Word != "Kåñṇa" && got[1].Word != "Kåñṇa" {
		t.Errorf("Kåñṇa missing: %+v", got)
	}
	for _, r := range got {
		if r.Word == "mahå" {
			if r.Char != 'å' || r.Count != 2 || len(r.Occurrences) != 2 {
				t.Errorf("mahå row corrupted: %+v", r)
			}
			if r.Occurrences[0] != (model.Occurrence{BookID: 1, Page: 10}) {
				t.Errorf("occurrences lost order: %+v", r.Occurrences)
			}
		}
	}

	// A rescan of BalaramU replaces only that font's rows.
	rescan := []model.AmbiguousWordRecord{
		{Font: "BalaramU", Char: 'å', Word: "bhåga", Count: 1,
			Occurrences: []model.Occurrence{{BookID: 1, Page: 7}}},
	}
	if err := s.ReplaceAmbiguousWords(ctx, rescan); err != nil {
		t.Fatalf("ReplaceAmbiguousWords (rescan): %v", err)
	}
	all, err := s.AmbiguousWords(ctx, "")
	if err != nil {
		t.Fatalf("AmbiguousWords(all): %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want bhåga + untouched GVGaudiya row: %+v", len(all), all)
	}
}

func TestReplaceGlyphCensus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := []model.GlyphCensusRecord{
		{BookID: 1, Font: "BalaramU", Glyph: 'å', Count: 120},
		{BookID: 1, Font: "BalaramU", Glyph: 'ë', Count: 40},
		{BookID: 2, Font: "GVGaudiya", Glyph: 'å', Count: 7},
	}
	if err := s.ReplaceGlyphCensus(ctx, records); err != nil {
		t.Fatalf("ReplaceGlyphCensus: %v", err)
	}

	// Replacing book 1 leaves book 2 untouched.
	if err := s.ReplaceGlyphCensus(ctx, []model.GlyphCensusRecord{
		{BookID: 1, Font: "BalaramU", Glyph: 'å', Count: 130},
	}); err != nil {
		t.Fatalf("ReplaceGlyphCensus (rescan): %v", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM glyph_census`).Scan(&count); err != nil {
		t.Fatalf("count census: %v", err)
	}
	if count != 2 {
		t.Errorf("census rows = %d, want 2", count)
	}
}
