package chunker

import (
	"fmt"
	"strings"
	"testing"
)

func TestSplit_Empty(t *testing.T) {
	if got := Split("", 1000, 150); got != nil {
		t.Errorf("expected nil for empty text, got %d chunks", len(got))
	}
	if got := Split("   \n\n  ", 1000, 150); got != nil {
		t.Errorf("expected nil for whitespace-only text, got %d chunks", len(got))
	}
}

func TestSplit_SingleChunk(t *testing.T) {
	chunks := Split("The compressor motor draws 12A at startup.", 1000, 150)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Index != 0 {
		t.Errorf("index = %d, want 0", c.Index)
	}
	if c.Content != "The compressor motor draws 12A at startup." {
		t.Errorf("unexpected content: %q", c.Content)
	}
	if c.PageNumber != 1 {
		t.Errorf("page = %d, want 1", c.PageNumber)
	}
	if c.SectionTitle != "" {
		t.Errorf("section = %q, want empty", c.SectionTitle)
	}
}

func TestSplit_PageMarkers(t *testing.T) {
	text := "[Page 1]\n" + strings.Repeat("a", 10) + "\n[Page 2]\n" + strings.Repeat("b", 10)

	chunks := Split(text, 12, 0)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].PageNumber != 1 {
		t.Errorf("chunk 0 page = %d, want 1", chunks[0].PageNumber)
	}
	if chunks[1].PageNumber != 2 {
		t.Errorf("chunk 1 page = %d, want 2", chunks[1].PageNumber)
	}
	for _, c := range chunks {
		if strings.Contains(c.Content, "[Page") {
			t.Errorf("page marker leaked into content: %q", c.Content)
		}
	}
}

func TestSplit_MalformedPageMarkerKept(t *testing.T) {
	chunks := Split("[Page abc]\nsome text", 1000, 150)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Content, "[Page abc]") {
		t.Errorf("malformed marker should stay in content, got %q", chunks[0].Content)
	}
	if chunks[0].PageNumber != 1 {
		t.Errorf("page = %d, want 1", chunks[0].PageNumber)
	}
}

func TestSplit_SectionHeadings(t *testing.T) {
	text := "## Safety Instructions\nAlways disconnect power before servicing."

	chunks := Split(text, 1000, 150)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].SectionTitle != "Safety Instructions" {
		t.Errorf("section = %q, want %q", chunks[0].SectionTitle, "Safety Instructions")
	}
	// Heading lines are kept in the content, unlike page markers.
	if !strings.Contains(chunks[0].Content, "## Safety Instructions") {
		t.Errorf("heading dropped from content: %q", chunks[0].Content)
	}
}

func TestSplit_SectionCarriesForward(t *testing.T) {
	text := "# Installation\n" + strings.Repeat("setup step. ", 30) // ~360 chars

	chunks := Split(text, 100, 10)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.SectionTitle != "Installation" {
			t.Errorf("chunk %d section = %q, want %q", i, c.SectionTitle, "Installation")
		}
	}
}

func TestSplit_SentenceBoundaries(t *testing.T) {
	sentence := strings.Repeat("x", 80) + ". "
	text := strings.TrimSpace(strings.Repeat(sentence, 20))

	chunks := Split(text, 100, 0)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Content) > 100 {
			t.Errorf("chunk %d exceeds size: %d chars", i, len(c.Content))
		}
		if !strings.HasSuffix(c.Content, ".") {
			t.Errorf("chunk %d not cut at sentence boundary: %q", i, c.Content[len(c.Content)-10:])
		}
	}
}

func TestSplit_Overlap(t *testing.T) {
	words := make([]string, 200)
	for i := range words {
		words[i] = fmt.Sprintf("w%03d", i)
	}
	text := strings.Join(words, " ")

	chunks := Split(text, 100, 20)

	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}

	prevStart, prevEnd := -1, -1
	for i, c := range chunks {
		start := strings.Index(text, c.Content)
		if start == -1 {
			t.Fatalf("chunk %d content not found in source text", i)
		}
		end := start + len(c.Content)
		if i > 0 {
			if start <= prevStart {
				t.Errorf("chunk %d does not advance: start %d <= %d", i, start, prevStart)
			}
			if start >= prevEnd {
				t.Errorf("chunk %d shares no text with its predecessor", i)
			}
		}
		prevStart, prevEnd = start, end
	}
}

func TestSplit_ReconstructsFullText(t *testing.T) {
	words := make([]string, 400)
	for i := range words {
		words[i] = fmt.Sprintf("part%04d", i)
	}
	text := strings.Join(words, " ")

	chunks := Split(text, 200, 40)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}

	// Chunks overlap; together they must cover the source text exactly, with
	// at most trimmed whitespace between consecutive windows.
	covered := 0
	searchFrom := 0
	for i, c := range chunks {
		start := strings.Index(text[searchFrom:], c.Content)
		if start == -1 {
			t.Fatalf("chunk %d is not verbatim source text", i)
		}
		start += searchFrom

		if start > covered {
			if gap := text[covered:start]; strings.TrimSpace(gap) != "" {
				t.Fatalf("text lost before chunk %d: %q", i, gap)
			}
		}
		if end := start + len(c.Content); end > covered {
			covered = end
		}
		searchFrom = start + 1
	}

	if rest := text[covered:]; strings.TrimSpace(rest) != "" {
		t.Fatalf("text lost after final chunk: %q", rest)
	}
}

func TestSplit_SequentialIndexes(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta. ", 100)

	chunks := Split(text, 120, 30)

	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
	}
}

func TestSplit_TightOverlapTerminates(t *testing.T) {
	text := strings.Repeat("ab cd ef gh ij. ", 50)

	// Overlap nearly as large as the window must still make progress.
	chunks := Split(text, 10, 9)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
	}
}

func TestParsePageMarker(t *testing.T) {
	tests := []struct {
		line string
		page int
		ok   bool
	}{
		{"[Page 1]", 1, true},
		{"[Page 42]", 42, true},
		{"  [Page 7]  ", 7, true},
		{"[Page abc]", 0, false},
		{"[Page 1", 0, false},
		{"Page 1]", 0, false},
		{"plain text", 0, false},
	}

	for _, tt := range tests {
		page, ok := parsePageMarker(tt.line)
		if ok != tt.ok || page != tt.page {
			t.Errorf("parsePageMarker(%q) = (%d, %v), want (%d, %v)", tt.line, page, ok, tt.page, tt.ok)
		}
	}
}
