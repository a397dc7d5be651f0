package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kamaldivi/glyphscan/internal/model"
	"github.com/kamaldivi/glyphscan/internal/pipeline"
)

// MockScanner implements Scanner
type MockScanner struct {
	ShouldError bool
}

func (m *MockScanner) ScanBook(ctx context.Context, book model.Book, tocEntries []model.TOCEntry) (*pipeline.ScanResult, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, errors.New("scan error")
	}
	return &pipeline.ScanResult{
		Book:       book,
		PagesTotal: 100,
		CoreStart:  10,
	}, nil
}

func testBooks(ids ...int) []model.Book {
	var books []model.Book
	for _, id := range ids {
		books = append(books, model.Book{BookID: id, PDFName: "book.pdf"})
	}
	return books
}

func TestBatchProcessor_ProcessBooks(t *testing.T) {
	scanner := &MockScanner{}
	processor := NewBatchProcessor(scanner, 2)

	results := processor.ProcessBooks(context.Background(), testBooks(1, 2, 3), nil)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	seen := make(map[int]bool)
	for _, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for book %d: %v", res.BookID, res.Error)
			continue
		}
		if res.Scan == nil || res.Scan.PagesTotal != 100 {
			t.Errorf("missing scan result for book %d", res.BookID)
		}
		seen[res.BookID] = true
	}
	for _, id := range []int{1, 2, 3} {
		if !seen[id] {
			t.Errorf("no result for book %d", id)
		}
	}
}

func TestBatchProcessor_ProcessBooks_Error(t *testing.T) {
	scanner := &MockScanner{ShouldError: true}
	processor := NewBatchProcessor(scanner, 2)

	results := processor.ProcessBooks(context.Background(), testBooks(7), nil)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Scan != nil {
		t.Error("expected nil scan on error")
	}
	if results[0].BookID != 7 {
		t.Errorf("BookID = %d, want 7", results[0].BookID)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockScanner{}, 2)

	results := processor.ProcessBooks(context.Background(), nil, nil)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestReadBookIDsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.txt")
	content := `# corpus batch
3
56

56
12
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	ids, err := ReadBookIDsFromFile(path)
	if err != nil {
		t.Fatalf("ReadBookIDsFromFile: %v", err)
	}
	want := []int{3, 56, 12}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestReadBookIDsFromFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.txt")
	if err := os.WriteFile(path, []byte("3\nnot-a-number\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := ReadBookIDsFromFile(path); err == nil {
		t.Error("invalid id must error")
	}
}
