// Package pdf opens in-memory PDF documents and counts the Devanagari
// words in their text layer.
//
// Extraction uses ledongthuc/pdf (pure Go, no CGO): the whole document
// stays in memory and the flattened Unicode text stream of each page is
// all that matters — ligatures, whitespace, and layout are not preserved
// structurally.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/anvitrao/shabdcount/internal/counter"
)

// ErrParse reports that a byte buffer could not be opened or read as a
// PDF: corrupt header, truncated stream, or an encrypted document without
// the handling needed to open it. All open failures collapse to this one
// condition; retrying cannot succeed.
var ErrParse = errors.New("not a valid PDF")

// Page holds the flattened text of one page, in document order.
type Page struct {
	Number int
	Text   string
}

// ExtractPages opens data as a PDF and returns the plain text of every
// page in page order. A page whose text cannot be decoded (image-only,
// broken font tables) is returned with empty text rather than failing the
// document; only a buffer that cannot be opened at all yields ErrParse.
// The input is neither mutated nor retained.
func ExtractPages(data []byte) (pages []Page, err error) {
	// The parser panics on some malformed inputs; fold those into ErrParse.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrParse, r)
		}
	}()

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrParse)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	total := r.NumPage()
	pages = make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			pages = append(pages, Page{Number: i})
			continue
		}
		pages = append(pages, Page{Number: i, Text: strings.TrimSpace(text)})
	}
	return pages, nil
}

// CountHindiWords counts Devanagari words across every page of the PDF in
// data. The result is a pure function of the buffer contents: identical
// bytes always yield identical counts, and zero is a valid result for a
// document with no Devanagari text.
func CountHindiWords(data []byte) (int, error) {
	pages, err := ExtractPages(data)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, p := range pages {
		total += counter.Count(p.Text)
	}
	return total, nil
}
