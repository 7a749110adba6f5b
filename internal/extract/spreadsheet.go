package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fieldops-ai/fieldops/internal/domain"
)

// extractXLSX renders every sheet as a pipe-delimited text table under a
// [Sheet: name] marker. Page count is the sheet count.
func extractXLSX(content []byte) (domain.ExtractionResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("open xlsx: %v: %w", err, domain.ErrExtraction)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var parts []string

	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return domain.ExtractionResult{}, fmt.Errorf("read sheet %q: %v: %w", sheet, err, domain.ErrExtraction)
		}
		if text := renderTable(rows, sheet); text != "" {
			parts = append(parts, text)
		}
	}

	return domain.ExtractionResult{
		Text:      strings.Join(parts, "\n\n"),
		PageCount: len(sheets),
		Metadata:  map[string]string{"sheet_count": strconv.Itoa(len(sheets))},
	}, nil
}

// csvDelimiters tried in order when the default comma fails to parse.
var csvDelimiters = []rune{',', ';', '\t', '|'}

// extractCSV decodes the bytes with the same encoding ladder as plain text,
// then tries each delimiter until one parses.
func extractCSV(content []byte) (domain.ExtractionResult, error) {
	text, err := decodeText(content)
	if err != nil {
		return domain.ExtractionResult{}, err
	}

	var rows [][]string
	var lastErr error
	for _, delim := range csvDelimiters {
		r := csv.NewReader(strings.NewReader(text))
		r.Comma = delim
		r.FieldsPerRecord = -1 // tolerate ragged rows
		r.LazyQuotes = true

		rows, lastErr = r.ReadAll()
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return domain.ExtractionResult{}, fmt.Errorf("parse csv: %v: %w", lastErr, domain.ErrExtraction)
	}

	rowCount := 0
	if len(rows) > 0 {
		rowCount = len(rows) - 1 // data rows, excluding header
	}

	return domain.ExtractionResult{
		Text:      renderTable(rows, ""),
		PageCount: 1,
		Metadata:  map[string]string{"row_count": strconv.Itoa(rowCount)},
	}, nil
}

// renderTable formats rows as "a | b | c" lines: optional [Sheet: name]
// marker, then the header, a dashed separator, then data rows.
func renderTable(rows [][]string, sheetName string) string {
	if len(rows) == 0 {
		return ""
	}

	var lines []string
	if sheetName != "" {
		lines = append(lines, fmt.Sprintf("[Sheet: %s]", sheetName))
	}

	header := strings.Join(trimCells(rows[0]), " | ")
	lines = append(lines, header, strings.Repeat("-", len(header)))

	for _, row := range rows[1:] {
		lines = append(lines, strings.Join(trimCells(row), " | "))
	}

	return strings.Join(lines, "\n")
}

func trimCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
