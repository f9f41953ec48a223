// Package export renders the will preview as HTML and PDF and archives
// finished PDFs in object storage.
package export

import "errors"

type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrArchiveNotConfigured is returned by archive calls when no bucket is set up.
	ErrArchiveNotConfigured = errors.New("export archive not configured")
)
