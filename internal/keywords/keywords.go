// Package keywords extracts search/analytics keywords from message text. It
// is intentionally small and dependency-free, but engineered with
// production-grade ergonomics:
//
//   - No logging in the library (callers decide how/what to log)
//   - Clear, documented types and functional options (Option pattern)
//   - Unicode-aware tokenization with stop-word removal
//   - Immutable, read-only extractor after construction (safe for concurrent use)
//   - Deterministic output (first-occurrence order, stable caps)
//
// Extraction lowercases the text, splits it into letter/digit words, drops
// stop words and very short tokens, and keeps each remaining word once in
// the order it first appears, up to a cap.
package keywords

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMax is the keyword cap applied when callers pass max <= 0.
const DefaultMax = 8

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minRunes  int
	stopwords map[string]struct{}
}

func defaultConfig() config {
	return config{
		minRunes:  3,
		stopwords: defaultStopwords,
	}
}

// WithMinRunes sets the minimum token length in runes; shorter tokens are
// dropped. Values < 1 are ignored.
func WithMinRunes(n int) Option {
	return func(c *config) {
		if n >= 1 {
			c.minRunes = n
		}
	}
}

// WithStopwords replaces the built-in stop-word list.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		c.stopwords = m
	}
}

// ----------------------------------------------------------------------------
// Implementation

// Extractor holds tokenization settings. The zero value is not usable; build
// one with New.
type Extractor struct {
	cfg config
}

// New constructs an Extractor with the given options applied over defaults.
func New(opts ...Option) *Extractor {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Extractor{cfg: cfg}
}

// Extract returns up to max keywords from text in first-occurrence order.
// A max <= 0 is treated as DefaultMax. Blank or all-stop-word text yields nil.
func (e *Extractor) Extract(text string, max int) []string {
	if max <= 0 {
		max = DefaultMax
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	words := wordRE.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, min(max, len(words)))
	for _, w := range words {
		if utf8.RuneCountInString(w) < e.cfg.minRunes {
			continue
		}
		if _, skip := e.cfg.stopwords[w]; skip {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) >= max {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Extract applies a default Extractor; convenient for one-off calls.
func Extract(text string, max int) []string {
	return defaultExtractor.Extract(text, max)
}

var defaultExtractor = New()

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

// defaultStopwords is a compact English function-word list. It is meant to
// keep obvious noise out of analytics, not to be linguistically complete.
var defaultStopwords = func() map[string]struct{} {
	words := []string{
		"the", "and", "for", "are", "but", "not", "you", "all", "any",
		"can", "had", "has", "have", "her", "him", "his", "how", "its",
		"our", "out", "she", "they", "them", "their", "this", "that",
		"was", "were", "what", "when", "where", "which", "who", "why",
		"will", "with", "would", "your", "about", "after", "again",
		"been", "before", "being", "between", "both", "could", "did",
		"does", "doing", "down", "during", "each", "from", "further",
		"here", "into", "just", "more", "most", "once", "only", "other",
		"over", "same", "should", "some", "such", "than", "then",
		"there", "these", "those", "through", "under", "until", "very",
		"while",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
