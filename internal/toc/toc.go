// Package toc resolves a book's core content range from its table of
// contents: everything between the front matter and the first back-matter
// section.
package toc

import (
	"strings"

	"github.com/kamaldivi/glyphscan/internal/model"
)

// frontMatterKeywords mark TOC entries that precede the core content.
var frontMatterKeywords = []string{
	"preface", "foreword", "dedication", "acknowledgment", "acknowledgement",
	"copyright", "contents", "illustrations", "abbreviations",
	"pronunciation", "publisher",
}

// backMatterKeywords mark the first section after the core content.
var backMatterKeywords = []string{
	"appendix", "index", "glossary", "bibliography", "notes",
}

// CorePages returns the first and last page of a book's core content, given
// its TOC entries ordered by page and the total page count.
//
// The start is the page of the first entry whose title matches no
// front-matter keyword; the end is one page before the first later entry
// whose title contains a back-matter keyword. A zero return value means "not
// found": (start, 0) when the book has no back-matter anchor, (0, 0) when
// the TOC is missing or holds nothing but front matter. CorePages never
// fails on malformed input.
func CorePages(entries []model.TOCEntry, totalPages int) (start, end int) {
	for _, e := range entries {
		if e.Page <= 0 || matchesAny(e.Title, frontMatterKeywords) {
			continue
		}
		start = e.Page
		break
	}
	if start == 0 {
		return 0, 0
	}

	for _, e := range entries {
		if e.Page <= start {
			continue
		}
		if matchesAny(e.Title, backMatterKeywords) {
			end = e.Page - 1
			break
		}
	}
	if end > 0 && totalPages > 0 && end > totalPages {
		end = totalPages
	}
	return start, end
}

// IsFrontMatter reports whether a TOC title names a front-matter section.
func IsFrontMatter(title string) bool {
	return matchesAny(title, frontMatterKeywords)
}

// IsBackMatter reports whether a TOC title names a back-matter section.
func IsBackMatter(title string) bool {
	return matchesAny(title, backMatterKeywords)
}

func matchesAny(title string, keywords []string) bool {
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
