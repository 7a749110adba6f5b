package ingest

import (
	"strings"
	"testing"
)

func TestComputeHash(t *testing.T) {
	// Well-known SHA-256 of "abc".
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := ComputeHash([]byte("abc")); got != want {
		t.Errorf("ComputeHash = %q, want %q", got, want)
	}

	if ComputeHash([]byte("a")) == ComputeHash([]byte("b")) {
		t.Error("distinct content must hash differently")
	}
}

func TestSlugifyFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Service Manual.pdf", "service-manual.pdf"},
		{"CAT 320 (rev. 2).PDF", "cat-320-rev-2.pdf"},
		{"Wärmetauscher Übersicht.docx", "warmetauscher-ubersicht.docx"},
		{"already-slugged.txt", "already-slugged.txt"},
		{"no_extension", "no-extension"},
		{"__weird__.csv", "weird.csv"},
	}

	for _, tt := range tests {
		if got := SlugifyFilename(tt.in); got != tt.want {
			t.Errorf("SlugifyFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyFilename_LongNameTruncated(t *testing.T) {
	long := strings.Repeat("word ", 100) + ".pdf" // 500-char name part

	got := SlugifyFilename(long)

	if !strings.HasSuffix(got, ".pdf") {
		t.Errorf("extension lost: %q", got)
	}
	name := strings.TrimSuffix(got, ".pdf")
	if len(name) > 200 {
		t.Errorf("name part = %d chars, want <= 200", len(name))
	}
	if strings.HasSuffix(name, "-") {
		t.Errorf("trailing hyphen after truncation: %q", name)
	}
}
