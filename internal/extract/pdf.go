package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/fieldops-ai/fieldops/internal/domain"
)

// extractPDF pulls text page by page. No OCR: image-only PDFs yield empty
// text, which is a valid result. Each non-empty page is prefixed with a
// [Page N] marker so the chunker can recover page numbers.
func extractPDF(content []byte) (result domain.ExtractionResult, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v: %w", r, domain.ErrExtraction)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("parse pdf: %v: %w", err, domain.ErrExtraction)
	}

	pageCount := reader.NumPage()
	var pages []string

	for n := 1; n <= pageCount; n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue // skip unreadable pages, keep the rest
		}
		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, fmt.Sprintf("[Page %d]\n%s", n, text))
		}
	}

	metadata := make(map[string]string)
	info := reader.Trailer().Key("Info")
	if !info.IsNull() {
		for _, key := range []struct{ dict, meta string }{
			{"Title", "title"},
			{"Author", "author"},
			{"Subject", "subject"},
		} {
			if v := info.Key(key.dict); v.Kind() == pdf.String {
				if s := strings.TrimSpace(v.RawString()); s != "" {
					metadata[key.meta] = s
				}
			}
		}
	}

	return domain.ExtractionResult{
		Text:      strings.Join(pages, "\n\n"),
		PageCount: pageCount,
		Metadata:  metadata,
	}, nil
}
