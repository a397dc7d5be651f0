package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/kamaldivi/glyphscan/internal/storage"
	"github.com/kamaldivi/glyphscan/internal/toc"
	"github.com/spf13/cobra"
)

// corePagesCmd represents the core-pages command
var corePagesCmd = &cobra.Command{
	Use:   "core-pages <book-id>",
	Short: "Resolve a book's core page range from its TOC",
	Long: `Core-pages reads the stored table of contents and reports the page range
holding the book's main content: from the first chapter past the front
matter up to the page before the first back-matter section.

Example:
  glyphscan core-pages 12`,
	Args: cobra.ExactArgs(1),
	RunE: runCorePages,
}

func init() {
	rootCmd.AddCommand(corePagesCmd)

	corePagesCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
}

func runCorePages(cmd *cobra.Command, args []string) error {
	bookID, err := parseBookID(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
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
	entries, err := store.TOCEntries(ctx, bookID)
	if err != nil {
		return fmt.Errorf("load TOC for book %d: %w", bookID, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("book %d has no TOC entries", bookID)
	}

	start, end := toc.CorePages(entries, book.TotalPages)

	fmt.Printf("Book %d: %s\n", book.BookID, book.PDFName)
	fmt.Printf("  TOC entries: %d\n", len(entries))
	switch {
	case start == 0:
		fmt.Printf("  Core pages:  unresolved (no entry past the front matter)\n")
	case end == 0:
		fmt.Printf("  Core pages:  %d-end (no back-matter anchor)\n", start)
	default:
		fmt.Printf("  Core pages:  %d-%d\n", start, end)
	}

	return nil
}
