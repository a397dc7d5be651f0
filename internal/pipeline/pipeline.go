// Package pipeline orchestrates the per-book scan: page loading, boundary
// detection, ambiguity mining, and text reconstruction.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/kamaldivi/glyphscan/internal/ambiguity"
	"github.com/kamaldivi/glyphscan/internal/boundary"
	"github.com/kamaldivi/glyphscan/internal/cache"
	"github.com/kamaldivi/glyphscan/internal/font"
	"github.com/kamaldivi/glyphscan/internal/glyph"
	"github.com/kamaldivi/glyphscan/internal/llm"
	"github.com/kamaldivi/glyphscan/internal/model"
	"github.com/kamaldivi/glyphscan/internal/toc"
)

// Pipeline wires the scan components together.
type Pipeline struct {
	corrector  *glyph.Corrector
	classifier *font.Classifier
	resolver   *ambiguity.Resolver
	detector   *boundary.Detector
	source     PageSource
	cache      cache.Cache
	cleaner    *llm.Cleaner // nil if disabled
	config     *model.Config
}

// New creates a pipeline from configuration and a page source.
func New(cfg *model.Config, source PageSource) (*Pipeline, error) {
	corrector, err := glyph.NewCorrector(glyph.DefaultRules(), cfg.ConditionalSet())
	if err != nil {
		return nil, fmt.Errorf("build corrector: %w", err)
	}
	classifier := font.NewClassifier()

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

	var c cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			c = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		} else {
			c = cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.TTL)
		}
	}

	var cleaner *llm.Cleaner
	if cfg.LLM.Provider != "" {
		cl, err := llm.NewCleaner(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to initialize LLM provider: %v\n", err)
		} else {
			cleaner = cl
		}
	}

	return &Pipeline{
		corrector:  corrector,
		classifier: classifier,
		resolver:   ambiguity.NewResolver(corrector, classifier),
		detector:   boundary.NewDetector(bcfg),
		source:     source,
		cache:      c,
		cleaner:    cleaner,
		config:     cfg,
	}, nil
}

// ScanResult contains the outcome of one book's scan.
type ScanResult struct {
	Book          model.Book
	PagesTotal    int
	PagesMeasured int
	HeaderNorm    float64
	FooterNorm    float64
	BoundaryStats boundary.Stats
	CoreStart     int
	CoreEnd       int
}

// ScanBook loads a book's pages, detects its layout boundaries, mines its
// spans for ambiguous words, and resolves its core page range.
func (p *Pipeline) ScanBook(ctx context.Context, book model.Book, tocEntries []model.TOCEntry) (*ScanResult, error) {
	pages, err := p.source.Pages(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("load pages for book %d: %w", book.BookID, err)
	}

	header, footer, stats, err := p.DetectBoundaries(ctx, book.BookID, pages)
	if err != nil {
		return nil, fmt.Errorf("detect boundaries for book %d: %w", book.BookID, err)
	}

	for _, page := range pages {
		p.resolver.MinePage(book.BookID, page.Number(), page)
	}

	coreStart, coreEnd := toc.CorePages(tocEntries, book.TotalPages)

	return &ScanResult{
		Book:          book,
		PagesTotal:    len(pages),
		PagesMeasured: stats.PagesMeasured,
		HeaderNorm:    header,
		FooterNorm:    footer,
		BoundaryStats: stats,
		CoreStart:     coreStart,
		CoreEnd:       coreEnd,
	}, nil
}

// boundaryEntry is the cached form of a detection result.
type boundaryEntry struct {
	Header float64        `json:"header"`
	Footer float64        `json:"footer"`
	Stats  boundary.Stats `json:"stats"`
}

// DetectBoundaries runs boundary detection for a book's pages, consulting
// the cache first. Detection is deterministic, so a cached result under the
// same tuning is as good as a fresh one.
func (p *Pipeline) DetectBoundaries(ctx context.Context, bookID int, pages []model.Page) (header, footer float64, stats boundary.Stats, err error) {
	key := ""
	if p.cache != nil && bookID > 0 {
		b := p.config.Boundary
		key = cache.BoundaryKey(bookID, b.MinBodyRatio, b.EpsMultiplier, b.MinClusterCoverage)
		if data, found := p.cache.Get(key); found {
			var entry boundaryEntry
			if err := json.Unmarshal(data, &entry); err == nil {
				return entry.Header, entry.Footer, entry.Stats, nil
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, boundary.Stats{}, err
	}

	header, footer, stats, _ = p.detector.Detect(pages)

	if key != "" {
		if data, err := json.Marshal(boundaryEntry{Header: header, Footer: footer, Stats: stats}); err == nil {
			_ = p.cache.Set(key, data, 0)
		}
	}
	return header, footer, stats, nil
}

// ReconstructOptions controls page text reconstruction.
type ReconstructOptions struct {
	// ExcludeDevanagari drops spans whose font renders Devanagari script.
	ExcludeDevanagari bool

	// HeaderNorm/FooterNorm clip spans outside the body region when
	// FooterNorm > HeaderNorm. Normalized 0..1 coordinates.
	HeaderNorm float64
	FooterNorm float64
}

// ReconstructPage rebuilds a page's text in reading order and applies glyph
// correction for the book. Spans are joined with spaces within a line and
// newlines between lines.
func (p *Pipeline) ReconstructPage(bookID int, page model.Page, opts ReconstructOptions) string {
	spans := make([]model.Span, 0, len(page.Spans))
	clip := opts.FooterNorm > opts.HeaderNorm && page.Height > 0
	for _, s := range page.Spans {
		if opts.ExcludeDevanagari && p.classifier.Excluded(s.Font) {
			continue
		}
		if clip {
			center := (s.Y0 + s.Y1) / 2 / page.Height
			if center < opts.HeaderNorm || center > opts.FooterNorm {
				continue
			}
		}
		spans = append(spans, s)
	}
	if len(spans) == 0 {
		return ""
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Y0 != spans[j].Y0 {
			return spans[i].Y0 < spans[j].Y0
		}
		return spans[i].X0 < spans[j].X0
	})

	var b strings.Builder
	prev := spans[0]
	b.WriteString(prev.Text)
	for _, s := range spans[1:] {
		if s.Y0 >= prev.Y1 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
		b.WriteString(s.Text)
		prev = s
	}
	return p.corrector.Correct(b.String(), bookID)
}

// CleanPage runs the optional LLM cleanup pass over reconstructed text.
// With no provider configured the text passes through unchanged.
func (p *Pipeline) CleanPage(ctx context.Context, text string) (string, error) {
	if p.cleaner == nil {
		return text, nil
	}
	return p.cleaner.CleanPage(ctx, text)
}

// Corrector exposes the pipeline's glyph corrector.
func (p *Pipeline) Corrector() *glyph.Corrector {
	return p.corrector
}

// Resolver exposes the shared mining accumulator.
func (p *Pipeline) Resolver() *ambiguity.Resolver {
	return p.resolver
}
