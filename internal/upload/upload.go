// Package upload handles the request-side intake of submitted documents.
// Uploads are buffered fully in memory for the lifetime of one request
// and never written to disk.
package upload

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrInvalidFileType reports that the advisory file-name check failed.
// The PDF parser, not this check, decides whether the bytes are actually
// a PDF.
var ErrInvalidFileType = errors.New("invalid file type: please upload a PDF")

// File is one uploaded document held in memory.
type File struct {
	FileName string
	MIMEType string
	Size     int64
	Data     []byte
}

// ReadFile drains a multipart file field into memory, enforcing maxBytes,
// and sniffs the MIME type from the buffered content. The claimed file
// name is reduced to its base to strip any path components.
func ReadFile(r io.Reader, fileName string, maxBytes int64) (File, error) {
	safeName := filepath.Base(strings.TrimSpace(fileName))
	if safeName == "." || safeName == string(filepath.Separator) {
		safeName = ""
	}

	lr := &io.LimitedReader{R: r, N: maxBytes + 1}
	data, err := io.ReadAll(lr)
	if err != nil {
		return File{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return File{}, fmt.Errorf("file exceeds %dMB limit", maxBytes/(1<<20))
	}

	mt := strings.ToLower(strings.TrimSpace(mimetype.Detect(data).String()))
	if i := strings.Index(mt, ";"); i > 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	return File{
		FileName: safeName,
		MIMEType: mt,
		Size:     int64(len(data)),
		Data:     data,
	}, nil
}

// ValidateFileName enforces the caller-side upload check: the claimed
// name must end in .pdf, case-insensitive.
func ValidateFileName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: file name is required", ErrInvalidFileType)
	}
	if !strings.EqualFold(filepath.Ext(trimmed), ".pdf") {
		return ErrInvalidFileType
	}
	return nil
}
