package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/fieldops-ai/fieldops/internal/domain"
)

// docxDocument maps the parts of word/document.xml we read. Namespace
// prefixes are ignored; matching is by local element name.
type docxDocument struct {
	Body docxBody `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
	Tables     []docxTable     `xml:"tbl"`
}

type docxParagraph struct {
	Props docxParagraphProps `xml:"pPr"`
	Runs  []docxRun          `xml:"r"`
}

type docxParagraphProps struct {
	Style docxStyle `xml:"pStyle"`
}

type docxStyle struct {
	Val string `xml:"val,attr"`
}

type docxRun struct {
	Text []string `xml:"t"`
}

type docxTable struct {
	Rows []docxTableRow `xml:"tr"`
}

type docxTableRow struct {
	Cells []docxTableCell `xml:"tc"`
}

type docxTableCell struct {
	Paragraphs []docxParagraph `xml:"p"`
}

type docxCoreProps struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
	Subject string `xml:"subject"`
}

// extractDOCX reads word/document.xml from the zip container. Heading
// paragraphs are re-emitted as "## text" so the chunker can seed section
// titles; tables become " | "-joined rows under a [Table] marker.
func extractDOCX(content []byte) (domain.ExtractionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("open docx container: %v: %w", err, domain.ErrExtraction)
	}

	raw, err := readZipFile(zr, "word/document.xml")
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("read document.xml: %v: %w", err, domain.ErrExtraction)
	}

	var doc docxDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("parse document.xml: %v: %w", err, domain.ErrExtraction)
	}

	var parts []string

	for _, para := range doc.Body.Paragraphs {
		text := strings.TrimSpace(paragraphText(para))
		if text == "" {
			continue
		}
		if strings.HasPrefix(para.Props.Style.Val, "Heading") {
			parts = append(parts, "\n## "+text+"\n")
		} else {
			parts = append(parts, text)
		}
	}

	for _, table := range doc.Body.Tables {
		var rows []string
		for _, row := range table.Rows {
			cells := make([]string, 0, len(row.Cells))
			empty := true
			for _, cell := range row.Cells {
				var cellParts []string
				for _, p := range cell.Paragraphs {
					if t := strings.TrimSpace(paragraphText(p)); t != "" {
						cellParts = append(cellParts, t)
					}
				}
				text := strings.Join(cellParts, " ")
				if text != "" {
					empty = false
				}
				cells = append(cells, text)
			}
			if !empty {
				rows = append(rows, strings.Join(cells, " | "))
			}
		}
		if len(rows) > 0 {
			parts = append(parts, "\n[Table]\n"+strings.Join(rows, "\n")+"\n")
		}
	}

	return domain.ExtractionResult{
		Text:      strings.Join(parts, "\n"),
		PageCount: 1, // DOCX has no fixed page layout
		Metadata:  docxMetadata(zr),
	}, nil
}

func paragraphText(p docxParagraph) string {
	var b strings.Builder
	for _, run := range p.Runs {
		for _, t := range run.Text {
			b.WriteString(t)
		}
	}
	return b.String()
}

// docxMetadata reads title/author/subject from docProps/core.xml.
// Missing or malformed core properties are not an error.
func docxMetadata(zr *zip.Reader) map[string]string {
	metadata := make(map[string]string)

	raw, err := readZipFile(zr, "docProps/core.xml")
	if err != nil {
		return metadata
	}

	var core docxCoreProps
	if err := xml.Unmarshal(raw, &core); err != nil {
		return metadata
	}

	if s := strings.TrimSpace(core.Title); s != "" {
		metadata["title"] = s
	}
	if s := strings.TrimSpace(core.Creator); s != "" {
		metadata["author"] = s
	}
	if s := strings.TrimSpace(core.Subject); s != "" {
		metadata["subject"] = s
	}
	return metadata
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, file := range zr.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}
