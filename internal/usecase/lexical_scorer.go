package usecase

import (
	"regexp"
	"strings"

	"github.com/catalogrank/backend/internal/domain"
)

// wordRegex matches word-character runs (letters, digits, underscore) in any script
var wordRegex = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Scoring weights
const (
	titleMatchWeight       = 3.0 // a query word found in the title
	descriptionMatchWeight = 1.0 // a query word found in the description
	substringMatchFactor   = 2.0 // whole query appears verbatim in title or description
)

// DefaultScoreSaturation is the divisor that maps raw scores onto [0,1].
// It is an empirical tuning value: a handful of title matches plus the
// substring bonus saturate to 1.0.
const DefaultScoreSaturation = 10.0

// LexicalScorer ranks catalog rows against free text by token overlap
type LexicalScorer struct {
	saturation float64
}

// NewLexicalScorer creates a scorer. A non-positive saturation selects DefaultScoreSaturation.
func NewLexicalScorer(saturation float64) *LexicalScorer {
	if saturation <= 0 {
		saturation = DefaultScoreSaturation
	}
	return &LexicalScorer{saturation: saturation}
}

// PreparedQuery is a query tokenized once and reused for every row
type PreparedQuery struct {
	Text   string
	lower  string
	tokens map[string]struct{}
}

// Prepare lowercases and tokenizes a query
func (s *LexicalScorer) Prepare(query string) PreparedQuery {
	lower := strings.ToLower(query)
	return PreparedQuery{
		Text:   query,
		lower:  lower,
		tokens: tokenSet(lower),
	}
}

// Score returns the normalized relevance of a title/description pair for query, in [0,1]
func (s *LexicalScorer) Score(query, title, description string) float64 {
	return s.Normalize(s.RawScore(s.Prepare(query), title, description))
}

// RawScore computes the unbounded weighted-overlap score:
//
//	(3*|q ∩ title| + |q ∩ description|) / max(|q|, 1), doubled on a verbatim substring hit
func (s *LexicalScorer) RawScore(q PreparedQuery, title, description string) float64 {
	titleLower := strings.ToLower(title)
	descLower := strings.ToLower(description)

	titleOverlap := overlap(q.tokens, tokenSet(titleLower))
	descOverlap := overlap(q.tokens, tokenSet(descLower))

	score := (titleMatchWeight*float64(titleOverlap) + descriptionMatchWeight*float64(descOverlap)) /
		float64(max(len(q.tokens), 1))

	if strings.Contains(titleLower, q.lower) || strings.Contains(descLower, q.lower) {
		score *= substringMatchFactor
	}

	return score
}

// Normalize saturates a raw score into [0,1]
func (s *LexicalScorer) Normalize(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	return min(raw/s.saturation, 1.0)
}

// ScoreCatalog scores every row of the catalog in row order
func (s *LexicalScorer) ScoreCatalog(catalog *domain.Catalog, query string) []domain.ScoredMatch {
	q := s.Prepare(query)
	rows := catalog.Rows()

	matches := make([]domain.ScoredMatch, len(rows))
	for i := range rows {
		raw := s.RawScore(q, rows[i].Title, rows[i].Description)
		matches[i] = domain.ScoredMatch{
			Index:           i,
			ID:              rows[i].ID,
			RawScore:        raw,
			NormalizedScore: s.Normalize(raw),
		}
	}
	return matches
}

// tokenSet returns the distinct word tokens of already-lowercased text
func tokenSet(lower string) map[string]struct{} {
	words := wordRegex.FindAllString(lower, -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// overlap returns the size of the intersection of two token sets
func overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}
