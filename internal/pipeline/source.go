package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kamaldivi/glyphscan/internal/model"
)

// PageSource supplies the extracted pages of a book. PDF text extraction is
// a collaborator concern; the pipeline only consumes its output.
type PageSource interface {
	Pages(ctx context.Context, book model.Book) ([]model.Page, error)
}

// JSONLSource reads pre-extracted span dumps: one JSON page object per line
// in <pdf name>.spans.jsonl under the configured folder.
type JSONLSource struct {
	dir string
}

// NewJSONLSource creates a source rooted at dir.
func NewJSONLSource(dir string) *JSONLSource {
	return &JSONLSource{dir: dir}
}

// Path returns the span dump path for a book.
func (s *JSONLSource) Path(book model.Book) string {
	name := strings.TrimSuffix(book.PDFName, ".pdf") + ".spans.jsonl"
	return filepath.Join(s.dir, name)
}

// Pages reads a book's span dump. A malformed line is a single bad page: it
// is logged and skipped, never aborting the book.
func (s *JSONLSource) Pages(ctx context.Context, book model.Book) ([]model.Page, error) {
	path := s.Path(book)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open span dump: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	// Dense pages produce long lines; the default scanner limit is too small.
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var pages []model.Page
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var page model.Page
		if err := json.Unmarshal([]byte(line), &page); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: book %d: skipping malformed page at %s:%d: %v\n",
				book.BookID, path, lineNo, err)
			continue
		}
		pages = append(pages, page)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read span dump: %w", err)
	}
	return pages, nil
}
