package ambiguity

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/davidahmann/subscreen/pkg/types"
)

var ErrEmptyMarker = errors.New("ambiguity marker term is empty")

// Marker is a word whose presence in free text signals a vague disclosure.
// AllowSuffix lets the marker match word extensions such as "variously".
type Marker struct {
	Term        string
	AllowSuffix bool
}

type Config struct {
	Fields  []string
	Markers []Marker
}

func DefaultConfig() Config {
	return Config{
		Fields: []string{
			"source_of_funds_description",
			"accreditation_details",
		},
		Markers: []Marker{
			{Term: "various", AllowSuffix: true},
			{Term: "TBD"},
			{Term: "unknown", AllowSuffix: true},
			{Term: "unspecified"},
			{Term: "miscellaneous"},
		},
	}
}

type pattern struct {
	term string
	re   *regexp.Regexp
}

// Matcher scans free-text fields for ambiguity markers. It is safe for
// concurrent use.
type Matcher struct {
	fields   []string
	patterns []pattern
}

// New compiles the marker table in cfg.
func New(cfg Config) (*Matcher, error) {
	m := &Matcher{
		fields:   make([]string, len(cfg.Fields)),
		patterns: make([]pattern, 0, len(cfg.Markers)),
	}
	copy(m.fields, cfg.Fields)

	for i, marker := range cfg.Markers {
		re, err := compile(marker)
		if err != nil {
			return nil, fmt.Errorf("marker %d: %w", i, err)
		}
		m.patterns = append(m.patterns, pattern{term: marker.Term, re: re})
	}
	return m, nil
}

// wordClass matches the characters that continue a word in any script.
const wordClass = `\p{L}\p{N}_`

func compile(marker Marker) (*regexp.Regexp, error) {
	term := strings.TrimSpace(marker.Term)
	if term == "" {
		return nil, ErrEmptyMarker
	}
	first, _ := utf8.DecodeRuneInString(term)
	last, _ := utf8.DecodeLastRuneInString(term)

	// Group 1 holds the reported span; the boundary assertions around it
	// may consume one neighbouring character.
	var b strings.Builder
	b.WriteString(`(?i)`)
	if isWordRune(first) {
		b.WriteString(`(?:^|[^` + wordClass + `])`)
	}
	b.WriteString(`(`)
	b.WriteString(regexp.QuoteMeta(term))
	if marker.AllowSuffix {
		b.WriteString(`[` + wordClass + `]*`)
	}
	b.WriteString(`)`)
	if marker.AllowSuffix || isWordRune(last) {
		b.WriteString(`(?:$|[^` + wordClass + `])`)
	}
	return regexp.Compile(b.String())
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Match is the first marker found in a record.
type Match struct {
	Field string
	Term  string
	Text  string
}

// Find returns the first marker match, scanning fields in order and markers
// in order within each field.
func (m *Matcher) Find(record types.Record) (Match, bool) {
	for _, field := range m.fields {
		text := record.Text(field)
		if text == "" {
			continue
		}
		for _, p := range m.patterns {
			if loc := p.re.FindStringSubmatchIndex(text); loc != nil {
				return Match{Field: field, Term: p.term, Text: text[loc[2]:loc[3]]}, true
			}
		}
	}
	return Match{}, false
}

// Scan escalates record on the first ambiguity marker, otherwise approves.
func (m *Matcher) Scan(record types.Record) types.DecisionRecord {
	match, ok := m.Find(record)
	if !ok {
		return types.Approve(record.ID())
	}
	return types.Escalate(record.ID(), Reason(match))
}

func Reason(match Match) string {
	return fmt.Sprintf("Ambiguous term '%s' found in %s", match.Text, match.Field)
}
