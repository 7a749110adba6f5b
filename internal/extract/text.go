package extract

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/fieldops-ai/fieldops/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractText handles txt, md and html. Markdown and plain text pass through
// as-is; HTML is tag-stripped first. Whitespace is normalised in both cases.
func extractText(content []byte, ext string) (domain.ExtractionResult, error) {
	text, err := decodeText(content)
	if err != nil {
		return domain.ExtractionResult{}, err
	}

	if ext == "html" || ext == "htm" {
		text = stripHTML(text)
	}

	return domain.ExtractionResult{
		Text:      normalizeWhitespace(text),
		PageCount: 1,
		Metadata:  map[string]string{},
	}, nil
}

// decodeText tries utf-8 (with or without BOM) first, then latin-1. Latin-1
// maps every byte, so every input decodes.
func decodeText(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	if utf8.Valid(content) {
		return string(content), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return "", fmt.Errorf("decode text: %v: %w", err, domain.ErrExtraction)
	}
	return string(decoded), nil
}

// Pre-compiled regular expressions for HTML stripping.
var (
	scriptTag     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements = regexp.MustCompile(`(?i)</?(p|div|br|h[1-6]|li|tr|td|th|table|section|article)[^>]*>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripHTML converts HTML to plain text: script/style/comment blocks removed,
// block-level tags become newlines, remaining tags dropped, entities decoded.
func stripHTML(content string) string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")
	content = blockElements.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, "")
	return html.UnescapeString(content)
}

// normalizeWhitespace collapses runs of spaces/tabs, caps blank lines at one,
// and trims every line.
func normalizeWhitespace(text string) string {
	text = multiSpaces.ReplaceAllString(text, " ")
	text = multiNewlines.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
