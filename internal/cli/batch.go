package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/kamaldivi/glyphscan/internal/model"
	"github.com/kamaldivi/glyphscan/internal/pipeline"
	"github.com/kamaldivi/glyphscan/internal/storage"
	"github.com/kamaldivi/glyphscan/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [ids-file]",
	Short: "Scan multiple books in parallel and persist the mining output",
	Long: `Batch scans books concurrently:
- Scan every book in the database, or only the ids listed in a file
  (one id per line, #-comments allowed)
- Process books in parallel with configurable worker count
- Accumulate the ambiguous-word table and glyph census across the whole
  corpus, then replace the stored tables in one pass

The corpus-wide mining tables are only written by this command; a partial
scan would clobber words mined from books outside the subset.

Example:
  glyphscan batch
  glyphscan batch books.txt --concurrency 8
  glyphscan batch --save --timeout 30m`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")

	// Inherit flags from scan command
	batchCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	batchCmd.Flags().StringVar(&pdfFolder, "pdf-folder", "", "span extraction folder (overrides config)")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable boundary cache (force fresh detection)")
	batchCmd.Flags().BoolVar(&saveBoundaries, "save", false, "write detected boundaries back to each book row")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyScanFlags(cfg); err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	books, err := selectBooks(ctx, store, args)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		return fmt.Errorf("no books to scan")
	}

	tocs := make(map[int][]model.TOCEntry, len(books))
	for _, book := range books {
		entries, err := store.TOCEntries(ctx, book.BookID)
		if err != nil {
			return fmt.Errorf("load TOC for book %d: %w", book.BookID, err)
		}
		tocs[book.BookID] = entries
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Glyphscan Batch Scan\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Books:        %d\n", len(books))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Database:     %s\n", cfg.DBPath)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	p, err := pipeline.New(cfg, pipeline.NewJSONLSource(cfg.PDFFolder))
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)

	fmt.Fprintf(os.Stderr, "⚙️  Scanning books with %d workers...\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "\n")

	results := processor.ProcessBooks(ctx, books, tocs)

	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ book %d: %v\n", result.BookID, result.Error)
			continue
		}
		successCount++

		scan := result.Scan
		fmt.Fprintf(os.Stderr, "✓ book %d: %d pages, header %.4f, footer %.4f\n",
			result.BookID, scan.PagesTotal, scan.HeaderNorm, scan.FooterNorm)

		if saveBoundaries {
			stats := scan.BoundaryStats
			if err := store.SaveBoundaries(ctx, result.BookID, stats.HeaderAbs, stats.FooterAbs); err != nil {
				return fmt.Errorf("save boundaries for book %d: %w", result.BookID, err)
			}
		}
	}

	// The resolver accumulated across every book; persist the corpus-wide
	// tables once. Store failures are fatal.
	words := p.Resolver().Records()
	census := p.Resolver().CensusRecords()

	if err := store.ReplaceAmbiguousWords(ctx, words); err != nil {
		return fmt.Errorf("store ambiguous words: %w", err)
	}
	if err := store.ReplaceGlyphCensus(ctx, census); err != nil {
		return fmt.Errorf("store glyph census: %w", err)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:           %d books\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:         %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:        %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Ambiguous words: %d\n", len(words))
	fmt.Fprintf(os.Stderr, "  Census rows:     %d\n", len(census))
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d books failed", failureCount, len(results))
	}
	return nil
}

// selectBooks returns every stored book, or the subset named in the optional
// ids file.
func selectBooks(ctx context.Context, store storage.Store, args []string) ([]model.Book, error) {
	if len(args) == 0 {
		books, err := store.ListBooks(ctx)
		if err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
		return books, nil
	}

	ids, err := worker.ReadBookIDsFromFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read ids file: %w", err)
	}

	books := make([]model.Book, 0, len(ids))
	for _, id := range ids {
		book, err := store.GetBook(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load book %d: %w", id, err)
		}
		books = append(books, book)
	}
	return books, nil
}
