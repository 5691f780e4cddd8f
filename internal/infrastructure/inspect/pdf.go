// Package inspect derives lightweight metadata from staged uploads
// before they are handed to the conversion tool.
package inspect

import (
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFInspector reports the page count of a staged PDF. It is strictly
// best effort: anything that is not a parseable PDF counts as zero
// pages, and nothing in the pipeline fails because of it.
type PDFInspector struct{}

func NewPDFInspector() PDFInspector {
	return PDFInspector{}
}

func (PDFInspector) PageCount(path string) (n int) {
	// The parser panics on some malformed files.
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()

	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return 0
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	return reader.NumPage()
}
