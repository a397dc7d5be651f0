package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kamaldivi/glyphscan/internal/model"
)

type fakeSource struct {
	pages []model.Page
	calls int
}

func (f *fakeSource) Pages(_ context.Context, _ model.Book) ([]model.Page, error) {
	f.calls++
	return f.pages, nil
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.ConditionalBookIDs = []int{56}
	cfg.Cache.Enabled = false
	return cfg
}

func newTestPipeline(t *testing.T, cfg *model.Config, source PageSource) *Pipeline {
	t.Helper()
	p, err := New(cfg, source)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func scanPage(idx int) model.Page {
	return model.Page{
		Index:  idx,
		Width:  600,
		Height: 800,
		Spans: []model.Span{
			{Text: "Jaiva Dharma", Font: "Times-Roman", X0: 72, Y0: 40, X1: 300, Y1: 55},
			{Text: "Kåñëa uväca", Font: "BalaramU", X0: 72, Y0: 120, X1: 520, Y1: 140},
			{Text: "mahå-bhågå", Font: "BalaramU", X0: 72, Y0: 300, X1: 520, Y1: 500},
			{Text: "body text", Font: "Times-Roman", X0: 72, Y0: 600, X1: 520, Y1: 680},
			{Text: "42", Font: "Times-Roman", X0: 280, Y0: 750, X1: 320, Y1: 765},
		},
	}
}

func TestScanBook(t *testing.T) {
	var pages []model.Page
	for i := 0; i < 10; i++ {
		pages = append(pages, scanPage(i))
	}
	p := newTestPipeline(t, testConfig(), &fakeSource{pages: pages})

	book := model.Book{BookID: 12, PDFName: "jaiva-dharma.pdf", TotalPages: 220}
	tocEntries := []model.TOCEntry{
		{Title: "Preface", Page: 1, Level: 1},
		{Title: "Chapter 1", Page: 10, Level: 1},
		{Title: "Appendix A", Page: 200, Level: 1},
	}

	result, err := p.ScanBook(context.Background(), book, tocEntries)
	if err != nil {
		t.Fatalf("ScanBook: %v", err)
	}

	if result.PagesTotal != 10 || result.PagesMeasured != 10 {
		t.Errorf("pages = %d/%d, want 10/10", result.PagesTotal, result.PagesMeasured)
	}
	if result.HeaderNorm <= 0 || result.FooterNorm <= result.HeaderNorm {
		t.Errorf("implausible boundaries: %g/%g", result.HeaderNorm, result.FooterNorm)
	}
	if result.CoreStart != 10 || result.CoreEnd != 199 {
		t.Errorf("core pages = (%d, %d), want (10, 199)", result.CoreStart, result.CoreEnd)
	}

	// Mining ran over every page: the ambiguous words are in the buckets.
	records := p.Resolver().Records()
	words := make(map[string]bool)
	for _, r := range records {
		words[r.Word] = true
	}
	for _, want := range []string{"Kåñṇa", "mahå", "bhågå"} {
		if !words[want] {
			t.Errorf("expected mined word %q, have %v", want, words)
		}
	}
	if words["mahå-bhågå"] {
		t.Error("joined compound must not be mined")
	}
}

func TestDetectBoundariesCaching(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Enabled = true
	var pages []model.Page
	for i := 0; i < 10; i++ {
		pages = append(pages, scanPage(i))
	}
	p := newTestPipeline(t, cfg, &fakeSource{pages: pages})
	ctx := context.Background()

	h1, f1, _, err := p.DetectBoundaries(ctx, 7, pages)
	if err != nil {
		t.Fatalf("DetectBoundaries: %v", err)
	}
	// Different input under the same key must hit the cache, proving the
	// second call never recomputed.
	h2, f2, _, err := p.DetectBoundaries(ctx, 7, nil)
	if err != nil {
		t.Fatalf("DetectBoundaries (cached): %v", err)
	}
	if h1 != h2 || f1 != f2 {
		t.Errorf("cached result differs: %g/%g vs %g/%g", h1, f1, h2, f2)
	}

	// A different book misses the cache.
	h3, _, _, err := p.DetectBoundaries(ctx, 8, nil)
	if err != nil {
		t.Fatalf("DetectBoundaries (other book): %v", err)
	}
	if h3 == h1 {
		t.Errorf("different book unexpectedly reused cached boundaries")
	}
}

func TestReconstructPage(t *testing.T) {
	p := newTestPipeline(t, testConfig(), &fakeSource{})

	page := model.Page{
		Index:  0,
		Width:  600,
		Height: 800,
		Spans: []model.Span{
			{Text: "uväca", Font: "BalaramU", X0: 200, Y0: 120, X1: 300, Y1: 140},
			{Text: "Kåñëa", Font: "BalaramU", X0: 72, Y0: 120, X1: 190, Y1: 140},
			{Text: "second line", Font: "Times-Roman", X0: 72, Y0: 160, X1: 300, Y1: 180},
		},
	}

	// uväca sits mid-span list but shares the first line; ä corrects to ā.
	got := p.ReconstructPage(0, page, ReconstructOptions{})
	want := "Kåñṇa uvāca\nsecond line"
	if got != want {
		t.Errorf("ReconstructPage = %q, want %q", got, want)
	}
}

func TestReconstructPageExcludesDevanagari(t *testing.T) {
	p := newTestPipeline(t, testConfig(), &fakeSource{})

	page := model.Page{
		Index:  0,
		Width:  600,
		Height: 800,
		Spans: []model.Span{
			{Text: "hindi commentary", Font: "AARituPlus2-Bold", X0: 72, Y0: 120, X1: 400, Y1: 140},
			{Text: "english text", Font: "Times-Roman", X0: 72, Y0: 160, X1: 400, Y1: 180},
		},
	}

	got := p.ReconstructPage(0, page, ReconstructOptions{ExcludeDevanagari: true})
	if got != "english text" {
		t.Errorf("ReconstructPage = %q, want Devanagari span dropped", got)
	}

	// Without the flag the span stays.
	got = p.ReconstructPage(0, page, ReconstructOptions{})
	if !strings.Contains(got, "hindi commentary") {
		t.Errorf("ReconstructPage = %q, want span kept without exclusion", got)
	}
}

func TestReconstructPageClipsBody(t *testing.T) {
	p := newTestPipeline(t, testConfig(), &fakeSource{})

	page := scanPage(0)
	got := p.ReconstructPage(0, page, ReconstructOptions{
		HeaderNorm: 55.0 / 800,
		FooterNorm: 750.0 / 800,
	})

	if strings.Contains(got, "Jaiva Dharma") || strings.Contains(got, "42") {
		t.Errorf("margin spans survived clipping: %q", got)
	}
	if !strings.Contains(got, "body text") {
		t.Errorf("body span lost: %q", got)
	}
}

func TestReconstructPageConditionalBook(t *testing.T) {
	p := newTestPipeline(t, testConfig(), &fakeSource{})

	page := model.Page{
		Index: 0, Width: 600, Height: 800,
		Spans: []model.Span{
			{Text: "k®pä", Font: "BalaramU", X0: 72, Y0: 120, X1: 200, Y1: 140},
		},
	}

	if got := p.ReconstructPage(56, page, ReconstructOptions{}); got != "kāpā" {
		t.Errorf("conditional book: %q, want kāpā", got)
	}
	if got := p.ReconstructPage(57, page, ReconstructOptions{}); got != "kṛpā" {
		t.Errorf("unflagged book: %q, want kṛpā", got)
	}
}

func TestCleanPageDisabled(t *testing.T) {
	p := newTestPipeline(t, testConfig(), &fakeSource{})

	out, err := p.CleanPage(context.Background(), "kṛṣṇa uvāca")
	if err != nil {
		t.Fatalf("CleanPage: %v", err)
	}
	if out != "kṛṣṇa uvāca" {
		t.Errorf("disabled cleanup changed text: %q", out)
	}
}

func TestNewWarnsOnStderrWhenLLMInitFails(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.Provider = "openai" // no API key: provider init must fail

	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = w

	p, newErr := New(cfg, &fakeSource{})

	os.Stderr = old
	_ = w.Close()
	captured, _ := io.ReadAll(r)

	if newErr != nil {
		t.Fatalf("New must not fail on a broken LLM config: %v", newErr)
	}
	if !strings.Contains(string(captured), "Warning") {
		t.Errorf("warning missing from stderr, got %q", captured)
	}

	// The cleanup pass is disabled, not broken: text passes through.
	out, err := p.CleanPage(context.Background(), "kṛṣṇa uvāca")
	if err != nil {
		t.Fatalf("CleanPage: %v", err)
	}
	if out != "kṛṣṇa uvāca" {
		t.Errorf("disabled cleanup changed text: %q", out)
	}
}

func TestJSONLSource(t *testing.T) {
	dir := t.TempDir()
	dump := `{"index":0,"width":600,"height":800,"spans":[{"text":"Kåñëa","font":"BalaramU","x0":72,"y0":120,"x1":200,"y1":140}]}
not json at all
{"index":1,"width":600,"height":800,"spans":[]}
`
	if err := os.WriteFile(filepath.Join(dir, "jaiva-dharma.spans.jsonl"), []byte(dump), 0644); err != nil {
		t.Fatalf("write dump: %v", err)
	}

	source := NewJSONLSource(dir)
	book := model.Book{BookID: 1, PDFName: "jaiva-dharma.pdf"}

	pages, err := source.Pages(context.Background(), book)
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("len(pages) = %d, want 2 with the malformed line skipped", len(pages))
	}
	if pages[0].Spans[0].Text != "Kåñëa" || pages[0].Spans[0].Font != "BalaramU" {
		t.Errorf("span decoded wrong: %+v", pages[0].Spans[0])
	}
	if pages[1].Index != 1 {
		t.Errorf("second page index = %d, want 1", pages[1].Index)
	}
}

func TestJSONLSourceMissingFile(t *testing.T) {
	source := NewJSONLSource(t.TempDir())

	_, err := source.Pages(context.Background(), model.Book{BookID: 1, PDFName: "missing.pdf"})
	if err == nil {
		t.Error("missing span dump must error")
	}
}
