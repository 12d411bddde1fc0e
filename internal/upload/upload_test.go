package upload

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestValidateFileName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"lowercase pdf", "report.pdf", false},
		{"uppercase pdf", "REPORT.PDF", false},
		{"mixed case pdf", "Report.Pdf", false},
		{"surrounding whitespace", "  report.pdf  ", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"text file", "notes.txt", true},
		{"no extension", "report", true},
		{"pdf in the middle", "report.pdf.exe", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFileName(tc.input)
			if tc.wantErr && err == nil {
				t.Fatalf("expected %q to be rejected", tc.input)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("expected %q to be accepted, got %v", tc.input, err)
			}
			if err != nil && !errors.Is(err, ErrInvalidFileType) {
				t.Fatalf("expected ErrInvalidFileType, got %v", err)
			}
		})
	}
}

func TestReadFileSniffsPDF(t *testing.T) {
	t.Parallel()

	data := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")

	f, err := ReadFile(bytes.NewReader(data), "sample.pdf", 1<<20)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if f.MIMEType != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", f.MIMEType)
	}
	if f.Size != int64(len(data)) {
		t.Fatalf("expected size %d, got %d", len(data), f.Size)
	}
	if !bytes.Equal(f.Data, data) {
		t.Fatalf("buffered data does not match input")
	}
}

func TestReadFileEnforcesByteLimit(t *testing.T) {
	t.Parallel()

	payload := strings.Repeat("x", (2<<20)+1)

	_, err := ReadFile(strings.NewReader(payload), "big.pdf", 2<<20)
	if err == nil {
		t.Fatalf("expected oversized upload to be rejected")
	}
}

func TestReadFileAcceptsExactLimit(t *testing.T) {
	t.Parallel()

	payload := strings.Repeat("x", 1024)

	f, err := ReadFile(strings.NewReader(payload), "exact.pdf", 1024)
	if err != nil {
		t.Fatalf("expected upload at the limit to be accepted, got %v", err)
	}
	if f.Size != 1024 {
		t.Fatalf("expected size 1024, got %d", f.Size)
	}
}

func TestReadFileStripsPathComponents(t *testing.T) {
	t.Parallel()

	f, err := ReadFile(strings.NewReader("data"), "../../etc/evil.pdf", 1<<10)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if f.FileName != "evil.pdf" {
		t.Fatalf("expected path components stripped, got %q", f.FileName)
	}
}
