package db

import "strings"

// TagMatch is a single must-equality condition on a TAG field.
type TagMatch struct {
	Key   string
	Value string
}

// Filter is a conjunction of tag-equality conditions applied as an FT.SEARCH
// pre-filter. An empty filter matches everything.
type Filter []TagMatch

// Query renders the filter as an FT.SEARCH pre-filter string. Empty filters
// render as "*" so the result is always a valid query on its own.
func (f Filter) Query() string {
	if len(f) == 0 {
		return "*"
	}
	parts := make([]string, 0, len(f))
	for _, cond := range f {
		parts = append(parts, "@"+cond.Key+":{"+EscapeTag(cond.Value)+"}")
	}
	return strings.Join(parts, " ")
}

// EscapeTag escapes a value for use inside a TAG filter clause.
func EscapeTag(value string) string {
	return tagEscaper.Replace(value)
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filter       Filter
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for full-text field matching.
type TextQuery struct {
	IndexName    string
	Field        string // TEXT field to match against
	Query        string
	Filter       Filter
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
