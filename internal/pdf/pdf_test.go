package pdf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/jung-kurt/gofpdf"

	"github.com/anvitrao/shabdcount/internal/counter"
)

// buildPDF renders one page per entry of pageTexts and returns the raw
// document bytes. The built-in fonts only cover Latin text, which is
// enough here: Devanagari matching itself is covered by the counter tests.
func buildPDF(t *testing.T, pageTexts ...string) []byte {
	t.Helper()

	doc := gofpdf.New("P", "mm", "A4", "")
	for _, text := range pageTexts {
		doc.AddPage()
		doc.SetFont("Arial", "", 12)
		doc.MultiCell(0, 10, text, "", "", false)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("failed to build test PDF: %v", err)
	}
	return buf.Bytes()
}

func TestCountHindiWordsLatinOnlyIsZero(t *testing.T) {
	t.Parallel()

	data := buildPDF(t, "hello world, nothing to count here")

	got, err := CountHindiWords(data)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected 0 words, got %d", got)
	}
}

func TestCountHindiWordsIsIdempotent(t *testing.T) {
	t.Parallel()

	data := buildPDF(t, "first page", "second page")

	first, err := CountHindiWords(data)
	if err != nil {
		t.Fatalf("first count failed: %v", err)
	}
	second, err := CountHindiWords(data)
	if err != nil {
		t.Fatalf("second count failed: %v", err)
	}
	if first != second {
		t.Fatalf("counts differ across identical inputs: %d vs %d", first, second)
	}
}

func TestCountHindiWordsEqualsPerPageSum(t *testing.T) {
	t.Parallel()

	data := buildPDF(t, "page one text", "page two text", "page three text")

	pages, err := ExtractPages(data)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	want := 0
	for _, p := range pages {
		want += counter.Count(p.Text)
	}

	got, err := CountHindiWords(data)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if got != want {
		t.Fatalf("total %d does not equal per-page sum %d", got, want)
	}
}

func TestExtractPagesPreservesPageOrder(t *testing.T) {
	t.Parallel()

	data := buildPDF(t, "alpha", "beta", "gamma")

	pages, err := ExtractPages(data)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	for i, p := range pages {
		if p.Number != i+1 {
			t.Fatalf("page %d has number %d", i, p.Number)
		}
	}
}

func TestExtractPagesDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	data := buildPDF(t, "immutable input")
	snapshot := make([]byte, len(data))
	copy(snapshot, data)

	if _, err := ExtractPages(data); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !bytes.Equal(data, snapshot) {
		t.Fatalf("input buffer was mutated")
	}
}

func TestCountHindiWordsRejectsNonPDF(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		data []byte
	}{
		{"plain text", []byte("just some plain text, definitely not a PDF")},
		{"empty buffer", nil},
		{"header only", []byte("%PDF-1.7")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CountHindiWords(tc.data)
			if err == nil {
				t.Fatalf("expected parse error, got nil")
			}
			if !errors.Is(err, ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}
		})
	}
}

func TestCountHindiWordsRejectsTruncatedPDF(t *testing.T) {
	t.Parallel()

	data := buildPDF(t, "soon to be truncated")

	_, err := CountHindiWords(data[:len(data)/2])
	if err == nil {
		t.Fatalf("expected parse error for truncated document")
	}
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}
