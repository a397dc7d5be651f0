package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kamaldivi/glyphscan/internal/model"
	"github.com/kamaldivi/glyphscan/internal/pipeline"
	"github.com/kamaldivi/glyphscan/internal/storage"
	"github.com/spf13/cobra"
)

var (
	dbPath         string
	pdfFolder      string
	timeout        time.Duration
	noCache        bool
	saveBoundaries bool
	llmEnabled     bool
	llmModel       string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <book-id>",
	Short: "Scan a single book: boundaries, ambiguity mining, core page range",
	Long: `Scan analyzes a single book's span extraction to:
- Detect the recurring header and footer bands from page-layout statistics
- Mine ambiguous legacy-glyph words and the per-font glyph census
- Resolve the core page range from the book's table of contents

The book's metadata and TOC come from the database; the span extraction is
read from <pdf_folder>/<pdf>.spans.jsonl.

Example:
  glyphscan scan 12
  glyphscan scan 12 --save
  glyphscan scan 12 --llm openai --llm-model gpt-4`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	scanCmd.Flags().StringVar(&pdfFolder, "pdf-folder", "", "span extraction folder (overrides config)")
	scanCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall scan timeout")
	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable boundary cache (force fresh detection)")
	scanCmd.Flags().BoolVar(&saveBoundaries, "save", false, "write detected boundaries back to the book row")

	// LLM flags
	scanCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable the LLM cleanup pass for reconstructed text")
	scanCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4", "LLM model name")
}

// applyScanFlags folds the shared scan/batch flags into the configuration.
func applyScanFlags(cfg *model.Config) error {
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if pdfFolder != "" {
		cfg.PDFFolder = pdfFolder
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	if llmEnabled {
		cfg.LLM.Provider = "openai"
		cfg.LLM.Model = llmModel
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	return nil
}

func parseBookID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid book id %q", arg)
	}
	return id, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	bookID, err := parseBookID(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyScanFlags(cfg); err != nil {
		return err
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	book, err := store.GetBook(ctx, bookID)
	if err != nil {
		return fmt.Errorf("load book %d: %w", bookID, err)
	}
	tocEntries, err := store.TOCEntries(ctx, bookID)
	if err != nil {
		return fmt.Errorf("load TOC for book %d: %w", bookID, err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning: %s (book %d)\n", book.PDFName, book.BookID)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.New(cfg, pipeline.NewJSONLSource(cfg.PDFFolder))
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Loading span extraction...\n")
	}

	result, err := p.ScanBook(ctx, book, tocEntries)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Measured %d/%d pages\n", result.PagesMeasured, result.PagesTotal)
		fmt.Fprintf(os.Stderr, "✓ Header %.4f (%s), footer %.4f (%s)\n",
			result.HeaderNorm, result.BoundaryStats.HeaderMethod,
			result.FooterNorm, result.BoundaryStats.FooterMethod)
		fmt.Fprintf(os.Stderr, "✓ Mined %d ambiguous words\n", len(p.Resolver().Records()))
		fmt.Fprintln(os.Stderr)
	}

	fmt.Printf("Book %d: %s\n", book.BookID, book.PDFName)
	fmt.Printf("  Pages:        %d (%d measured)\n", result.PagesTotal, result.PagesMeasured)
	fmt.Printf("  Header:       %.4f  [%s]\n", result.HeaderNorm, result.BoundaryStats.HeaderMethod)
	fmt.Printf("  Footer:       %.4f  [%s]\n", result.FooterNorm, result.BoundaryStats.FooterMethod)
	if result.CoreStart > 0 {
		if result.CoreEnd > 0 {
			fmt.Printf("  Core pages:   %d-%d\n", result.CoreStart, result.CoreEnd)
		} else {
			fmt.Printf("  Core pages:   %d-end\n", result.CoreStart)
		}
	} else {
		fmt.Printf("  Core pages:   unresolved\n")
	}
	fmt.Printf("  Mined words:  %d\n", len(p.Resolver().Records()))

	if saveBoundaries {
		stats := result.BoundaryStats
		if err := store.SaveBoundaries(ctx, book.BookID, stats.HeaderAbs, stats.FooterAbs); err != nil {
			return fmt.Errorf("save boundaries: %w", err)
		}
		fmt.Printf("✓ Saved boundaries (%.1f / %.1f page units)\n", stats.HeaderAbs, stats.FooterAbs)
	}

	return nil
}
