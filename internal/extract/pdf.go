package extract

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	"medchat/internal/sanitize"
)

// extractPDF runs a text-extraction pass over a PDF. Pages that fail to
// decode individually are skipped; a document yielding no text at all is
// reported as EmptyExtraction so callers can tell a scanned document apart
// from a corrupt one.
func extractPDF(data []byte) (res Result) {
	// The parser panics on some malformed cross-reference tables; treat
	// that the same as a reader error.
	defer func() {
		if r := recover(); r != nil {
			res = failure(ParseFailure)
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return failure(ParseFailure)
	}

	var pages []string
	for i := 1; i <= rdr.NumPage(); i++ {
		page := rdr.Page(i)
		if page.V.IsNull() {
			continue
		}
		txt, err := page.GetPlainText(nil)
		if err != nil {
			// Image-only or problematic page, keep going.
			continue
		}
		if s := strings.TrimSpace(txt); s != "" {
			pages = append(pages, s)
		}
	}

	text := sanitize.Sanitize(strings.Join(pages, "\n\n"))
	if text == "" {
		return failure(EmptyExtraction)
	}
	return textResult(text)
}
