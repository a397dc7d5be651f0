package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kamaldivi/glyphscan/internal/model"
	"github.com/kamaldivi/glyphscan/internal/pipeline"
)

// Scanner scans one book.
type Scanner interface {
	ScanBook(ctx context.Context, book model.Book, tocEntries []model.TOCEntry) (*pipeline.ScanResult, error)
}

// BookJob scans a single book.
type BookJob struct {
	Book    model.Book
	TOC     []model.TOCEntry
	Scanner Scanner
}

// Execute runs the scan.
func (j *BookJob) Execute(ctx context.Context) Result {
	result, err := j.Scanner.ScanBook(ctx, j.Book, j.TOC)
	if err != nil {
		return &BookResult{BookID: j.Book.BookID, Error: err}
	}
	return &BookResult{BookID: j.Book.BookID, Scan: result}
}

// BookResult is the outcome of one book's scan.
type BookResult struct {
	BookID int
	Scan   *pipeline.ScanResult
	Error  error
}

// GetError returns the error from the scan.
func (r *BookResult) GetError() error {
	return r.Error
}

// BatchProcessor scans many books concurrently. The per-book results come
// back in completion order; the mining accumulator inside the scanner takes
// care of its own consistency.
type BatchProcessor struct {
	scanner     Scanner
	concurrency int
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(scanner Scanner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		scanner:     scanner,
		concurrency: concurrency,
	}
}

// ProcessBooks scans the given books concurrently. tocs maps book id to its
// TOC entries; books without an entry scan with an empty TOC.
func (b *BatchProcessor) ProcessBooks(ctx context.Context, books []model.Book, tocs map[int][]model.TOCEntry) []*BookResult {
	if len(books) == 0 {
		return []*BookResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, book := range books {
		pool.Submit(&BookJob{
			Book:    book,
			TOC:     tocs[book.BookID],
			Scanner: b.scanner,
		})
	}

	results := pool.Wait()

	bookResults := make([]*BookResult, len(results))
	for i, result := range results {
		bookResults[i] = result.(*BookResult)
	}
	return bookResults
}

// ReadBookIDsFromFile reads book ids from a file, one per line. Blank lines
// and #-comments are skipped, duplicates collapsed.
func ReadBookIDsFromFile(filePath string) ([]int, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []int
	seen := make(map[int]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid book id %q", lineNo, line)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return ids, nil
}
