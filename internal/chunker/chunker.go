// Package chunker splits extracted text into overlapping, boundary-aware
// segments carrying page and section metadata recovered from the extraction
// markers.
package chunker

import (
	"strconv"
	"strings"

	"github.com/fieldops-ai/fieldops/internal/domain"
)

// Default chunking parameters.
const (
	DefaultSize    = 1000 // characters per chunk
	DefaultOverlap = 150  // shared characters between consecutive chunks
)

// sentenceBoundaries searched backward from the window midpoint, in order.
var sentenceBoundaries = []string{". ", ".\n", "! ", "!\n", "? ", "?\n"}

// markerEvent records the page/section state from a given text offset on.
type markerEvent struct {
	offset  int
	page    int
	section string
}

// Split cuts text into chunks of at most size characters with the given
// overlap. Page-marker lines ([Page N]) update the page counter and are
// dropped; heading lines (# / ## prefix) update the section title and are
// kept. Each window is cut at the last sentence boundary between the
// midpoint and the window end, falling back to the last space, then to a
// hard cut. Each chunk carries the page and section in effect at its start.
func Split(text string, size, overlap int) []domain.Chunk {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
	}

	processed, events := consumeMarkers(text)
	processed, events = trimProcessed(processed, events)
	if processed == "" {
		return nil
	}

	var chunks []domain.Chunk
	start := 0
	index := 0

	for start < len(processed) {
		end := start + size

		if end < len(processed) {
			end = seekBoundary(processed, start, end, size)
		} else {
			end = len(processed)
		}

		content := strings.TrimSpace(processed[start:end])
		if content != "" {
			page, section := stateAt(events, start)
			chunks = append(chunks, domain.Chunk{
				Index:        index,
				Content:      content,
				PageNumber:   page,
				SectionTitle: section,
			})
			index++
		}

		if end >= len(processed) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end // overlap would stall, advance without it
		}
		start = next
	}

	return chunks
}

// consumeMarkers strips page markers, records heading transitions, and
// returns the remaining text plus the ordered state events.
func consumeMarkers(text string) (string, []markerEvent) {
	var b strings.Builder
	events := []markerEvent{{offset: 0, page: 1, section: ""}}
	page := 1
	section := ""

	for _, line := range strings.Split(text, "\n") {
		if n, ok := parsePageMarker(line); ok {
			page = n
			events = append(events, markerEvent{offset: b.Len(), page: page, section: section})
			continue
		}

		if rest, ok := strings.CutPrefix(line, "## "); ok {
			section = strings.TrimSpace(rest)
			events = append(events, markerEvent{offset: b.Len(), page: page, section: section})
		} else if rest, ok := strings.CutPrefix(line, "# "); ok {
			section = strings.TrimSpace(rest)
			events = append(events, markerEvent{offset: b.Len(), page: page, section: section})
		}

		b.WriteString(line)
		b.WriteByte('\n')
	}

	return b.String(), events
}

// parsePageMarker recognises "[Page N]" lines. A malformed marker is
// ordinary text.
func parsePageMarker(line string) (int, bool) {
	inner, ok := strings.CutPrefix(strings.TrimSpace(line), "[Page ")
	if !ok {
		return 0, false
	}
	inner, ok = strings.CutSuffix(inner, "]")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(inner)
	if err != nil {
		return 0, false
	}
	return n, true
}

// trimProcessed trims surrounding whitespace and shifts event offsets to
// stay aligned with the trimmed text.
func trimProcessed(text string, events []markerEvent) (string, []markerEvent) {
	trimmedLeft := strings.TrimLeft(text, " \t\n")
	shift := len(text) - len(trimmedLeft)
	if shift > 0 {
		for i := range events {
			events[i].offset = max(0, events[i].offset-shift)
		}
	}
	return strings.TrimRight(trimmedLeft, " \t\n"), events
}

// seekBoundary finds the cut point for the window [start, end): the last
// sentence boundary past the midpoint, else the last space, else end.
func seekBoundary(text string, start, end, size int) int {
	lo := start + size/2

	for _, boundary := range sentenceBoundaries {
		if pos := lastIndexRange(text, boundary, lo, end); pos != -1 {
			return pos + len(boundary)
		}
	}

	if pos := lastIndexRange(text, " ", lo, end); pos != -1 {
		return pos + 1
	}

	return end
}

// lastIndexRange returns the highest index in [lo, hi) where sub starts and
// fits entirely within text[lo:hi], or -1.
func lastIndexRange(text, sub string, lo, hi int) int {
	if lo < 0 {
		lo = 0
	}
	if hi > len(text) {
		hi = len(text)
	}
	if lo >= hi {
		return -1
	}
	pos := strings.LastIndex(text[lo:hi], sub)
	if pos == -1 {
		return -1
	}
	return lo + pos
}

// stateAt returns the page and section in effect at the given offset.
func stateAt(events []markerEvent, offset int) (int, string) {
	page, section := 1, ""
	for _, e := range events {
		if e.offset > offset {
			break
		}
		page, section = e.page, e.section
	}
	return page, section
}
