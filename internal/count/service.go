// Package count turns an uploaded document into a Devanagari word-count
// result. It validates the claimed file name, runs the PDF extraction,
// and sums per-page counts into one Result.
package count

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/anvitrao/shabdcount/internal/counter"
	"github.com/anvitrao/shabdcount/internal/pdf"
	"github.com/anvitrao/shabdcount/internal/upload"
)

// ParseErrorMessage is the one user-facing message for every document
// that cannot be opened as a PDF. Corruption and unsupported features are
// deliberately not distinguished.
const ParseErrorMessage = "Could not process the PDF file. It may be corrupt or invalid."

type Service struct {
	maxWordsReturned int
}

// NewService returns a Service. maxWordsReturned caps how many matched
// words the includeWords option may echo back in a Result.
func NewService(maxWordsReturned int) *Service {
	return &Service{maxWordsReturned: maxWordsReturned}
}

// Count counts the Devanagari words in file. Each invocation is
// independent and shares no mutable state, so calls may run concurrently
// without locking. The ctx deadline bounds the whole call; extraction
// itself is not resumable.
//
// Options:
//   - includeWords: echo the matched runs (capped) in Result.Words.
func (s *Service) Count(ctx context.Context, file upload.File, options map[string]any) (Result, error) {
	if err := upload.ValidateFileName(file.FileName); err != nil {
		return failure(file, err.Error()), err
	}

	select {
	case <-ctx.Done():
		return failure(file, ParseErrorMessage), ctx.Err()
	default:
	}

	pages, err := pdf.ExtractPages(file.Data)
	if err != nil {
		return failure(file, ParseErrorMessage), err
	}

	includeWords := boolOption(options, "includeWords", false)

	pageCounts := make([]PageCount, 0, len(pages))
	total := 0
	var words []string
	for _, p := range pages {
		n := counter.Count(p.Text)
		total += n
		pageCounts = append(pageCounts, PageCount{PageNumber: p.Number, WordCount: n})
		if includeWords && len(words) < s.maxWordsReturned {
			words = append(words, counter.Runs(p.Text)...)
		}
	}
	if len(words) > s.maxWordsReturned {
		words = words[:s.maxWordsReturned]
	}

	return Result{
		Success:   true,
		FileName:  file.FileName,
		MIMEType:  file.MIMEType,
		PageCount: len(pages),
		WordCount: total,
		Pages:     pageCounts,
		Words:     words,
	}, nil
}

// IsParseError reports whether err came from the PDF parser rather than
// the caller-side file-name check.
func IsParseError(err error) bool {
	return errors.Is(err, pdf.ErrParse)
}

func failure(file upload.File, message string) Result {
	return Result{
		Success:  false,
		FileName: file.FileName,
		MIMEType: file.MIMEType,
		Error:    &message,
	}
}

func boolOption(options map[string]any, key string, fallback bool) bool {
	if options == nil {
		return fallback
	}
	v, ok := options[key]
	if !ok {
		return fallback
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err == nil {
			return parsed
		}
	}
	return fallback
}
