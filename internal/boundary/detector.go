// Package boundary detects recurring header and footer bands from the page
// layout statistics of a whole book.
package boundary

import (
	"fmt"
	"math"
	"sort"

	"github.com/kamaldivi/glyphscan/internal/model"
)

// marginZone is the fraction of page height at each extreme treated as the
// header/footer candidate zone; spans centered inside it do not count toward
// the body mass of a page.
const marginZone = 0.12

// Conservative margins used when a book has too few measurable pages for any
// statistics at all.
const (
	defaultHeaderNorm = 0.10
	defaultFooterNorm = 0.90
)

// Config tunes Detect. The zero value is not useful, start from DefaultConfig.
type Config struct {
	// IgnoredPages holds 0-based page indexes excluded from measurement
	// (plates, front matter already known to be irregular).
	IgnoredPages map[int]bool

	// MinBodyRatio is the minimum fraction of page height that body spans
	// must cover for a page to count as measured. Covers and blanks fail it.
	MinBodyRatio float64

	// EpsMultiplier scales the MAD-derived clustering bandwidth.
	EpsMultiplier float64

	// MinSamples is the minimum band population; 0 picks max(3, 3% of
	// observations).
	MinSamples int

	// MinClusterCoverage is the fraction of measured pages a band must
	// contain before it is trusted as a recurring header/footer.
	MinClusterCoverage float64

	// Normalized selects 0..1 boundaries; false converts to absolute page
	// units via the dominant page height.
	Normalized bool

	// Diagnostics enables the per-page report.
	Diagnostics bool
}

// DefaultConfig returns the tuning that works across the scanned corpus.
func DefaultConfig() Config {
	return Config{
		MinBodyRatio:       0.35,
		EpsMultiplier:      3.0,
		MinClusterCoverage: 0.40,
		Normalized:         true,
	}
}

// ClusterInfo describes one side's dominant band.
type ClusterInfo struct {
	Count    int     `json:"count"`
	Coverage float64 `json:"coverage"`
	Center   float64 `json:"center"`
	Eps      float64 `json:"eps"`
	MAD      float64 `json:"mad"`
}

// Stats carries the detection diagnostics alongside the boundaries.
type Stats struct {
	PagesTotal         int         `json:"pages_total"`
	PagesMeasured      int         `json:"pages_measured"`
	DominantPageHeight float64     `json:"dominant_page_height"`
	HeaderMethod       string      `json:"header_method"`
	FooterMethod       string      `json:"footer_method"`
	Header             ClusterInfo `json:"header"`
	Footer             ClusterInfo `json:"footer"`
	HeaderNorm         float64     `json:"header_norm"`
	FooterNorm         float64     `json:"footer_norm"`
	HeaderAbs          float64     `json:"header_abs"`
	FooterAbs          float64     `json:"footer_abs"`
}

// PageDiag is the per-page report entry produced when Config.Diagnostics is
// set.
type PageDiag struct {
	PageIndex       int     `json:"page_index"`
	PageHeight      float64 `json:"page_height"`
	Ignored         bool    `json:"ignored"`
	NoText          bool    `json:"no_text"`
	Measured        bool    `json:"measured"`
	HeaderNorm      float64 `json:"header_norm,omitempty"`
	FooterNorm      float64 `json:"footer_norm,omitempty"`
	InHeaderCluster bool    `json:"in_header_cluster"`
	InFooterCluster bool    `json:"in_footer_cluster"`
}

// Detector finds the safe clip boundaries of a book. A pure function of
// (pages, config): identical inputs give identical outputs.
type Detector struct {
	cfg Config
}

// NewDetector returns a Detector for the given configuration.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Detect computes the header and footer boundary of a book.
//
// Per page, the bottom of the topmost span and the top of the bottommost span
// (each normalized by that page's own height, which keeps mixed page sizes
// comparable) are the margin-band candidates. Only measured pages contribute:
// a page counts when its body spans cover at least MinBodyRatio of the
// height. Each side's candidates are density-clustered; a band covering
// MinClusterCoverage of measured pages wins, with the header boundary at the
// band's maximum and the footer boundary at its minimum. Without a trusted
// band Detect falls back to robust percentiles, and with no measured pages
// at all to fixed conservative margins. Detect never fails.
func (d *Detector) Detect(pages []model.Page) (header, footer float64, stats Stats, diags []PageDiag) {
	cfg := d.cfg

	var headerObs, footerObs []obs
	var heights []float64
	pageDiags := make([]PageDiag, 0, len(pages))

	measured := 0
	for _, page := range pages {
		diag := PageDiag{PageIndex: page.Index, PageHeight: page.Height}
		heights = append(heights, page.Height)

		switch {
		case cfg.IgnoredPages[page.Index]:
			diag.Ignored = true
		case len(page.Spans) == 0 || page.Height <= 0:
			diag.NoText = true
		default:
			h, f, ok := measurePage(page, cfg.MinBodyRatio)
			diag.HeaderNorm, diag.FooterNorm = h, f
			if ok {
				diag.Measured = true
				measured++
				headerObs = append(headerObs, obs{value: h, page: page.Index})
				footerObs = append(footerObs, obs{value: f, page: page.Index})
			}
		}
		pageDiags = append(pageDiags, diag)
	}

	minSamples := cfg.MinSamples
	if minSamples <= 0 {
		n := len(headerObs)
		if len(footerObs) > n {
			n = len(footerObs)
		}
		minSamples = 3
		if s := int(0.03 * float64(n)); s > minSamples {
			minSamples = s
		}
	}

	headerBand := dominantBand(headerObs, cfg.EpsMultiplier, minSamples)
	footerBand := dominantBand(footerObs, cfg.EpsMultiplier, minSamples)

	headerNorm, headerMethod := resolveSide(headerBand, headerObs, cfg.MinClusterCoverage, true)
	footerNorm, footerMethod := resolveSide(footerBand, footerObs, cfg.MinClusterCoverage, false)

	domHeight := dominantPageHeight(heights)
	stats = Stats{
		PagesTotal:         len(pages),
		PagesMeasured:      measured,
		DominantPageHeight: domHeight,
		HeaderMethod:       headerMethod,
		FooterMethod:       footerMethod,
		Header:             clusterInfo(headerBand, len(headerObs)),
		Footer:             clusterInfo(footerBand, len(footerObs)),
		HeaderNorm:         headerNorm,
		FooterNorm:         footerNorm,
		HeaderAbs:          headerNorm * domHeight,
		FooterAbs:          footerNorm * domHeight,
	}

	if cfg.Diagnostics {
		markMembership(pageDiags, headerBand.Members, footerBand.Members)
		diags = pageDiags
	}

	if cfg.Normalized {
		return headerNorm, footerNorm, stats, diags
	}
	return stats.HeaderAbs, stats.FooterAbs, stats, diags
}

// measurePage returns the page's normalized header/footer candidates and
// whether the page qualifies as measured.
func measurePage(page model.Page, minBodyRatio float64) (headerNorm, footerNorm float64, measured bool) {
	h := page.Height

	top := page.Spans[0]
	bottom := page.Spans[0]
	bodyTop, bodyBottom := math.Inf(1), math.Inf(-1)
	for _, s := range page.Spans {
		if s.Y0 < top.Y0 {
			top = s
		}
		if s.Y1 > bottom.Y1 {
			bottom = s
		}
		center := (s.Y0 + s.Y1) / 2 / h
		if center >= marginZone && center <= 1-marginZone {
			if s.Y0 < bodyTop {
				bodyTop = s.Y0
			}
			if s.Y1 > bodyBottom {
				bodyBottom = s.Y1
			}
		}
	}

	headerNorm = top.Y1 / h
	footerNorm = bottom.Y0 / h

	bodyExtent := 0.0
	if bodyBottom > bodyTop {
		bodyExtent = (bodyBottom - bodyTop) / h
	}
	return headerNorm, footerNorm, bodyExtent >= minBodyRatio
}

// resolveSide picks the boundary for one side: the accepted band's extreme
// edge, or a robust percentile of the raw candidates, or the fixed
// conservative default when the book yielded no candidates at all.
func resolveSide(band clusterResult, observations []obs, minCoverage float64, isHeader bool) (float64, string) {
	if len(band.Members) > 0 && coverage(len(band.Members), len(observations)) >= minCoverage {
		if isHeader {
			return maxValue(band.Members), "cluster_max"
		}
		return minValue(band.Members), "cluster_min"
	}
	if len(observations) > 0 {
		if isHeader {
			return percentile(values(observations), 0.95), "percentile_0.95"
		}
		return percentile(values(observations), 0.05), "percentile_0.05"
	}
	if isHeader {
		return defaultHeaderNorm, "default"
	}
	return defaultFooterNorm, "default"
}

func coverage(members, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(members) / float64(total)
}

func clusterInfo(band clusterResult, total int) ClusterInfo {
	return ClusterInfo{
		Count:    len(band.Members),
		Coverage: coverage(len(band.Members), total),
		Center:   band.Center,
		Eps:      band.Eps,
		MAD:      band.MAD,
	}
}

func markMembership(diags []PageDiag, headerMembers, footerMembers []obs) {
	inHeader := make(map[int]bool, len(headerMembers))
	for _, o := range headerMembers {
		inHeader[o.page] = true
	}
	inFooter := make(map[int]bool, len(footerMembers))
	for _, o := range footerMembers {
		inFooter[o.page] = true
	}
	for i := range diags {
		diags[i].InHeaderCluster = inHeader[diags[i].PageIndex]
		diags[i].InFooterCluster = inFooter[diags[i].PageIndex]
	}
}

// dominantPageHeight picks the most common height, rounding to one decimal to
// absorb numeric noise, then takes the median of the heights near that mode.
func dominantPageHeight(heights []float64) float64 {
	if len(heights) == 0 {
		return math.NaN()
	}
	freq := make(map[string][]float64)
	for _, h := range heights {
		key := fmt.Sprintf("%.1f", h)
		freq[key] = append(freq[key], h)
	}
	bestKey := ""
	bestCount := 0
	keys := make([]string, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(freq[k]) > bestCount {
			bestKey, bestCount = k, len(freq[k])
		}
	}
	return median(freq[bestKey])
}
