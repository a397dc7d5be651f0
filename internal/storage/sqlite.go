package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kamaldivi/glyphscan/internal/model"
)

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) a SQLite database at path and
// initializes the schema. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS books (
		book_id       INTEGER PRIMARY KEY,
		pdf_name      TEXT NOT NULL,
		book_type     TEXT NOT NULL DEFAULT '',
		header_height REAL NOT NULL DEFAULT 0,
		footer_height REAL NOT NULL DEFAULT 0,
		total_pages   INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS toc_entries (
		book_id INTEGER NOT NULL,
		title   TEXT NOT NULL,
		page    INTEGER NOT NULL,
		level   INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_toc_book ON toc_entries(book_id, page);

	CREATE TABLE IF NOT EXISTS ambiguous_words (
		font        TEXT NOT NULL,
		char        TEXT NOT NULL,
		word        TEXT NOT NULL,
		count       INTEGER NOT NULL,
		occurrences TEXT NOT NULL,
		PRIMARY KEY (font, char, word)
	);

	CREATE TABLE IF NOT EXISTS glyph_census (
		book_id INTEGER NOT NULL,
		font    TEXT NOT NULL,
		glyph   TEXT NOT NULL,
		count   INTEGER NOT NULL,
		PRIMARY KEY (book_id, font, glyph)
	);`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// UpsertBook inserts or replaces a book row.
func (s *SQLiteStore) UpsertBook(ctx context.Context, book model.Book) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO books
			(book_id, pdf_name, book_type, header_height, footer_height, total_pages)
		VALUES (?, ?, ?, ?, ?, ?)`,
		book.BookID, book.PDFName, book.BookType,
		book.HeaderHeight, book.FooterHeight, book.TotalPages,
	)
	if err != nil {
		return fmt.Errorf("upsert book %d: %w", book.BookID, err)
	}
	return nil
}

// GetBook fetches one book by id.
func (s *SQLiteStore) GetBook(ctx context.Context, bookID int) (model.Book, error) {
	var b model.Book
	err := s.db.QueryRowContext(ctx, `
		SELECT book_id, pdf_name, book_type, header_height, footer_height, total_pages
		FROM books WHERE book_id = ?`, bookID,
	).Scan(&b.BookID, &b.PDFName, &b.BookType, &b.HeaderHeight, &b.FooterHeight, &b.TotalPages)
	if err != nil {
		return model.Book{}, fmt.Errorf("get book %d: %w", bookID, err)
	}
	return b, nil
}

// ListBooks returns all books ordered by id.
func (s *SQLiteStore) ListBooks(ctx context.Context) ([]model.Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT book_id, pdf_name, book_type, header_height, footer_height, total_pages
		FROM books ORDER BY book_id`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.BookID, &b.PDFName, &b.BookType, &b.HeaderHeight, &b.FooterHeight, &b.TotalPages); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// SaveBoundaries writes detected absolute offsets back to the book row.
func (s *SQLiteStore) SaveBoundaries(ctx context.Context, bookID int, headerHeight, footerHeight float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE books SET header_height = ?, footer_height = ? WHERE book_id = ?`,
		headerHeight, footerHeight, bookID,
	)
	if err != nil {
		return fmt.Errorf("save boundaries for book %d: %w", bookID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("save boundaries: book %d not found", bookID)
	}
	return nil
}

// ReplaceTOC swaps a book's TOC entries in one transaction.
func (s *SQLiteStore) ReplaceTOC(ctx context.Context, bookID int, entries []model.TOCEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM toc_entries WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("clear toc for book %d: %w", bookID, err)
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO toc_entries (book_id, title, page, level) VALUES (?, ?, ?, ?)`,
			bookID, e.Title, e.Page, e.Level,
		); err != nil {
			return fmt.Errorf("insert toc entry %q: %w", e.Title, err)
		}
	}
	return tx.Commit()
}

// TOCEntries returns a book's TOC ordered by page.
func (s *SQLiteStore) TOCEntries(ctx context.Context, bookID int) ([]model.TOCEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, page, level FROM toc_entries
		WHERE book_id = ? ORDER BY page, level`, bookID)
	if err != nil {
		return nil, fmt.Errorf("toc for book %d: %w", bookID, err)
	}
	defer rows.Close()

	var entries []model.TOCEntry
	for rows.Next() {
		var e model.TOCEntry
		if err := rows.Scan(&e.Title, &e.Page, &e.Level); err != nil {
			return nil, fmt.Errorf("scan toc entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReplaceAmbiguousWords swaps the candidate words of every font present in
// records, in one transaction, so a rescan fully supersedes the previous
// mining result for those fonts without touching others.
func (s *SQLiteStore) ReplaceAmbiguousWords(ctx context.Context, records []model.AmbiguousWordRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	fonts := make(map[string]bool)
	for _, r := range records {
		if !fonts[r.Font] {
			fonts[r.Font] = true
			if _, err := tx.ExecContext(ctx, `DELETE FROM ambiguous_words WHERE font = ?`, r.Font); err != nil {
				return fmt.Errorf("clear words for font %s: %w", r.Font, err)
			}
		}
	}
	for _, r := range records {
		occs, err := json.Marshal(r.Occurrences)
		if err != nil {
			return fmt.Errorf("marshal occurrences for %q: %w", r.Word, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ambiguous_words (font, char, word, count, occurrences)
			VALUES (?, ?, ?, ?, ?)`,
			r.Font, string(r.Char), r.Word, r.Count, string(occs),
		); err != nil {
			return fmt.Errorf("insert word %q: %w", r.Word, err)
		}
	}
	return tx.Commit()
}

// AmbiguousWords returns mined words for one font, or all fonts when
// fontName is empty.
func (s *SQLiteStore) AmbiguousWords(ctx context.Context, fontName string) ([]model.AmbiguousWordRecord, error) {
	query := `SELECT font, char, word, count, occurrences FROM ambiguous_words`
	args := []interface{}{}
	if fontName != "" {
		query += ` WHERE font = ?`
		args = append(args, fontName)
	}
	query += ` ORDER BY font, char, word`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ambiguous words: %w", err)
	}
	defer rows.Close()

	var records []model.AmbiguousWordRecord
	for rows.Next() {
		var r model.AmbiguousWordRecord
		var char, occs string
		if err := rows.Scan(&r.Font, &char, &r.Word, &r.Count, &occs); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		for _, c := range char {
			r.Char = c
			break
		}
		if err := json.Unmarshal([]byte(occs), &r.Occurrences); err != nil {
			return nil, fmt.Errorf("unmarshal occurrences for %q: %w", r.Word, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ReplaceGlyphCensus swaps the census rows of the books present in records,
// in one transaction.
func (s *SQLiteStore) ReplaceGlyphCensus(ctx context.Context, records []model.GlyphCensusRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	books := make(map[int]bool)
	for _, r := range records {
		if !books[r.BookID] {
			books[r.BookID] = true
			if _, err := tx.ExecContext(ctx, `DELETE FROM glyph_census WHERE book_id = ?`, r.BookID); err != nil {
				return fmt.Errorf("clear census for book %d: %w", r.BookID, err)
			}
		}
	}
	for _, r := range records {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO glyph_census (book_id, font, glyph, count) VALUES (?, ?, ?, ?)`,
			r.BookID, r.Font, string(r.Glyph), r.Count,
		); err != nil {
			return fmt.Errorf("insert census row: %w", err)
		}
	}
	return tx.Commit()
}

// Close releases the underlying connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
