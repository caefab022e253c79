package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docpersona/internal/outline"
)

var (
	// ErrMalformedDocument means the bytes could not be parsed in the declared format.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrUnsupportedFormat means no parser handles the file extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Parser extracts an outline from raw document bytes.
type Parser interface {
	Parse(r io.Reader, filename string) (*outline.Outline, error)
}

// Options bounds the work a parser does on a single document.
type Options struct {
	MaxPages        int
	MaxLinesPerPage int
}

// DefaultOptions returns the limits used when none are configured.
func DefaultOptions() Options {
	return Options{
		MaxPages:        500,
		MaxLinesPerPage: 2000,
	}
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFParser{Options: opts}, nil
	case ".txt":
		return &TextParser{MaxLines: opts.MaxLinesPerPage * opts.MaxPages}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// IsPDF reports whether the filename carries a .pdf extension.
func IsPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
}
