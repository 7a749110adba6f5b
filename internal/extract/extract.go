// Package extract pulls plain text out of uploaded documents. Each format
// emits structural markers ([Page N], ## heading, [Table], [Sheet: name]) that
// the chunker uses to attribute page numbers and section titles.
package extract

import (
	"fmt"
	"strings"

	"github.com/fieldops-ai/fieldops/internal/domain"
)

// Service dispatches extraction by filename extension.
type Service struct{}

// NewService creates an extraction service.
func NewService() *Service {
	return &Service{}
}

// Extract converts document bytes into plain text with structural markers.
// The extension decides the format; declared content types are not trusted.
// Empty text is a valid result, the caller decides whether that is a failure.
func (s *Service) Extract(content []byte, filename string) (domain.ExtractionResult, error) {
	ext := fileExt(filename)

	switch ext {
	case "pdf":
		return extractPDF(content)
	case "docx":
		return extractDOCX(content)
	case "txt", "md", "html", "htm":
		return extractText(content, ext)
	case "xlsx":
		return extractXLSX(content)
	case "csv":
		return extractCSV(content)
	default:
		return domain.ExtractionResult{}, fmt.Errorf("extension %q: %w", ext, domain.ErrUnsupportedFileType)
	}
}

// fileExt returns the lowercase extension without the dot, or "".
func fileExt(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}
