package model

// Span is a contiguous run of same-styled text within a page, as produced by
// the extraction collaborator. The core reads spans but never mutates them.
type Span struct {
	Text string  `json:"text"`
	Font string  `json:"font"`
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
}

// Height returns the vertical extent of the span in page units.
func (s Span) Height() float64 {
	if s.Y1 < s.Y0 {
		return s.Y0 - s.Y1
	}
	return s.Y1 - s.Y0
}

// Page holds the ordered spans of a single PDF page plus its dimensions.
// Index is 0-based; page numbers shown to users are Index+1.
type Page struct {
	Index  int     `json:"index"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Spans  []Span  `json:"spans"`
}

// Number returns the 1-based page number.
func (p Page) Number() int {
	return p.Index + 1
}

// BookPages is the complete span extraction of one book, the unit of input
// for boundary detection and corpus scanning.
type BookPages struct {
	BookID int    `json:"book_id"`
	Pages  []Page `json:"pages"`
}
