package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/kamaldivi/glyphscan/internal/boundary"
	"github.com/kamaldivi/glyphscan/internal/pipeline"
	"github.com/kamaldivi/glyphscan/internal/storage"
	"github.com/spf13/cobra"
)

var (
	boundaryAbsolute    bool
	boundaryDiagnostics bool
	boundarySave        bool
	boundaryIgnore      []int
	minBodyRatio        float64
	epsMultiplier       float64
	minCoverage         float64
)

// boundariesCmd represents the boundaries command
var boundariesCmd = &cobra.Command{
	Use:   "boundaries <book-id>",
	Short: "Detect header and footer bands for one book",
	Long: `Boundaries runs layout-statistics detection for a single book and prints
the result as JSON. Unlike scan, it exposes every tuning knob and the
per-page diagnostics, which makes it the tool for investigating books
whose margins cluster poorly.

Example:
  glyphscan boundaries 12
  glyphscan boundaries 12 --absolute --save
  glyphscan boundaries 12 --diagnostics --min-body-ratio 0.5
  glyphscan boundaries 12 --ignore-page 0 --ignore-page 1`,
	Args: cobra.ExactArgs(1),
	RunE: runBoundaries,
}

func init() {
	rootCmd.AddCommand(boundariesCmd)

	boundariesCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	boundariesCmd.Flags().StringVar(&pdfFolder, "pdf-folder", "", "span extraction folder (overrides config)")
	boundariesCmd.Flags().BoolVar(&boundaryAbsolute, "absolute", false, "report boundaries in page units instead of 0..1")
	boundariesCmd.Flags().BoolVar(&boundaryDiagnostics, "diagnostics", false, "include the per-page report")
	boundariesCmd.Flags().BoolVar(&boundarySave, "save", false, "write absolute boundaries back to the book row")
	boundariesCmd.Flags().IntSliceVar(&boundaryIgnore, "ignore-page", nil, "0-based page index to exclude (repeatable)")
	boundariesCmd.Flags().Float64Var(&minBodyRatio, "min-body-ratio", 0, "minimum body coverage for a measured page (0 = config)")
	boundariesCmd.Flags().Float64Var(&epsMultiplier, "eps-multiplier", 0, "clustering bandwidth multiplier (0 = config)")
	boundariesCmd.Flags().Float64Var(&minCoverage, "min-coverage", 0, "minimum cluster coverage (0 = config)")
}

// boundaryReport is the JSON output of the boundaries command.
type boundaryReport struct {
	BookID int                 `json:"book_id"`
	Header float64             `json:"header"`
	Footer float64             `json:"footer"`
	Stats  boundary.Stats      `json:"stats"`
	Pages  []boundary.PageDiag `json:"pages,omitempty"`
}

func runBoundaries(cmd *cobra.Command, args []string) error {
	bookID, err := parseBookID(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
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

	source := pipeline.NewJSONLSource(cfg.PDFFolder)
	pages, err := source.Pages(ctx, book)
	if err != nil {
		return fmt.Errorf("load pages for book %d: %w", bookID, err)
	}

	bcfg := boundary.DefaultConfig()
	if cfg.Boundary.MinBodyRatio > 0 {
		bcfg.MinBodyRatio = cfg.Boundary.MinBodyRatio
	}
	if cfg.Boundary.EpsMultiplier > 0 {
		bcfg.EpsMultiplier = cfg.Boundary.EpsMultiplier
	}
	if cfg.Boundary.MinClusterCoverage > 0 {
		bcfg.MinClusterCoverage = cfg.Boundary.MinClusterCoverage
	}
	if minBodyRatio > 0 {
		bcfg.MinBodyRatio = minBodyRatio
	}
	if epsMultiplier > 0 {
		bcfg.EpsMultiplier = epsMultiplier
	}
	if minCoverage > 0 {
		bcfg.MinClusterCoverage = minCoverage
	}
	bcfg.Normalized = !boundaryAbsolute
	bcfg.Diagnostics = boundaryDiagnostics
	if len(boundaryIgnore) > 0 {
		bcfg.IgnoredPages = make(map[int]bool, len(boundaryIgnore))
		for _, idx := range boundaryIgnore {
			bcfg.IgnoredPages[idx] = true
		}
	}

	detector := boundary.NewDetector(bcfg)
	header, footer, stats, diags := detector.Detect(pages)

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Measured %d/%d pages\n", stats.PagesMeasured, stats.PagesTotal)
		fmt.Fprintf(os.Stderr, "✓ Header method %s, footer method %s\n", stats.HeaderMethod, stats.FooterMethod)
	}

	report := boundaryReport{
		BookID: book.BookID,
		Header: header,
		Footer: footer,
		Stats:  stats,
		Pages:  diags,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	fmt.Println(string(data))

	if boundarySave {
		if err := store.SaveBoundaries(ctx, book.BookID, stats.HeaderAbs, stats.FooterAbs); err != nil {
			return fmt.Errorf("save boundaries: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Saved boundaries (%.1f / %.1f page units)\n", stats.HeaderAbs, stats.FooterAbs)
	}

	return nil
}
