// Package phonetic matches misheard words against a known vocabulary using
// Double Metaphone phonetic encoding combined with Jaro-Winkler string
// similarity for ranked candidate selection.
//
// Transcription engines routinely mangle insurance vocabulary, especially on
// Hindi-English calls: "sum assured" comes back as "some ashured", "ULIP" as
// "you lip". The matcher snaps such words back onto the canonical terms.
//
// The algorithm proceeds in two stages:
//
//  1. Phonetic candidate filtering: Double Metaphone codes are computed for
//     each word in the input and for each vocabulary term. If any code from
//     the input overlaps with any code from a term, the term becomes a
//     phonetic candidate.
//
//  2. Jaro-Winkler ranking: Among phonetic candidates, the term with the
//     highest Jaro-Winkler similarity (computed on the original strings,
//     case-insensitive) is selected, provided its score exceeds the
//     configurable phonetic threshold.
//
//     When no phonetic candidate is found, a secondary pass tests pure
//     Jaro-Winkler similarity against all terms using a higher fuzzy
//     threshold (default 0.85).
//
// Multi-word terms (e.g., "sum assured") are supported: the matcher computes
// phonetic codes for each word and considers the best pairwise score across
// all word pairs when ranking candidates.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched term to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic match is found and the matcher falls back to pure string
// similarity. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// Matcher is a phonetic vocabulary matcher. All methods are safe for
// concurrent use; the Matcher is read-only after construction.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a new [Matcher] configured with the supplied options.
// Default thresholds are 0.70 for phonetic matches and 0.85 for fuzzy
// fallback matches.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match attempts to find the term from terms that is most phonetically
// similar to word.
//
// word may be a single word or a space-separated phrase (n-gram). When word
// contains multiple tokens, the matcher checks whether any token phonetically
// aligns with any token in a multi-word term, then ranks by Jaro-Winkler on
// the full strings.
//
// When matched is false, corrected equals word unchanged and confidence is 0.
func (m *Matcher) Match(word string, terms []string) (corrected string, confidence float64, matched bool) {
	if len(terms) == 0 || strings.TrimSpace(word) == "" {
		return word, 0, false
	}

	wordLower := strings.ToLower(strings.TrimSpace(word))
	wordTokens := strings.Fields(wordLower)

	inputCodes := codesForTokens(wordTokens)

	type candidate struct {
		term     string
		score    float64
		phonetic bool
	}

	var best candidate

	for _, term := range terms {
		termLower := strings.ToLower(strings.TrimSpace(term))
		if termLower == "" {
			continue
		}
		termTokens := strings.Fields(termLower)

		termCodes := codesForTokens(termTokens)
		phoneticMatch := codesOverlap(inputCodes, termCodes)

		// Compute the best Jaro-Winkler score for this term using several
		// comparison strategies to handle multi-word mismatches robustly.
		jwScore := bestJWScore(wordTokens, termTokens, wordLower, termLower)

		if phoneticMatch {
			if jwScore >= m.phoneticThreshold {
				if !best.phonetic || jwScore > best.score {
					best = candidate{term: term, score: jwScore, phonetic: true}
				}
			}
		} else if !best.phonetic {
			if jwScore >= m.fuzzyThreshold && jwScore > best.score {
				best = candidate{term: term, score: jwScore, phonetic: false}
			}
		}
	}

	if best.term != "" {
		return best.term, best.score, true
	}
	return word, 0, false
}

// codesForTokens returns the union of all Double Metaphone codes for the
// given tokens. Empty codes (produced when the word is too short, contains no
// consonants, or is non-Latin script) are excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap returns true if the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	// Iterate over the smaller set for efficiency.
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore computes the highest Jaro-Winkler similarity between the input
// and the term using three strategies:
//
//  1. Full-string comparison (e.g., "some ashured" vs "sum assured").
//  2. Space-stripped comparison (e.g., "someashured" vs "sumassured").
//  3. Best pairwise word comparison, the maximum JW score between any input
//     token and any term token (useful when one spoken word corresponds to
//     one term word).
//
// longTolerance is passed as false to use standard Jaro-Winkler scoring.
func bestJWScore(inputTokens, termTokens []string, inputFull, termFull string) float64 {
	// Strategy 1: full strings.
	score := matchr.JaroWinkler(inputFull, termFull, false)

	// Strategy 2: concatenated (no spaces).
	if len(inputTokens) > 1 || len(termTokens) > 1 {
		concat1 := strings.Join(inputTokens, "")
		concat2 := strings.Join(termTokens, "")
		if s := matchr.JaroWinkler(concat1, concat2, false); s > score {
			score = s
		}
	}

	// Strategy 3: best pairwise token score.
	for _, it := range inputTokens {
		for _, tt := range termTokens {
			if s := matchr.JaroWinkler(it, tt, false); s > score {
				score = s
			}
		}
	}

	return score
}
