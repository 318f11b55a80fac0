package transcript

import (
	"strings"

	"github.com/valuenable/veena/internal/transcript/phonetic"
)

// DefaultGlossary is the insurance vocabulary the term corrector snaps
// transcriptions onto, in canonical casing. Hindi-English call recordings
// reliably mangle exactly these terms.
var DefaultGlossary = []string{
	"ValuEnable",
	"premium",
	"policy",
	"sum assured",
	"surrender value",
	"fund value",
	"grace period",
	"maturity",
	"nominee",
	"ULIP",
	"rider",
	"annuity",
	"endowment",
	"lapse",
	"revival",
	"claim",
}

// trimPunct lists the sentence punctuation stripped from a window before
// matching, including the Devanagari danda.
const trimPunct = ".,;:!?।"

// Correction records one vocabulary substitution made by [TermCorrector.Correct].
type Correction struct {
	Original   string
	Corrected  string
	Confidence float64
}

// TermCorrector replaces misheard vocabulary in a transcription with the
// canonical glossary terms. It is read-only after construction and safe for
// concurrent use.
type TermCorrector struct {
	matcher  *phonetic.Matcher
	terms    []string
	maxWords int
}

// NewTermCorrector builds a corrector over terms. An empty terms slice falls
// back to [DefaultGlossary]. opts tune the underlying phonetic matcher.
func NewTermCorrector(terms []string, opts ...phonetic.Option) *TermCorrector {
	if len(terms) == 0 {
		terms = DefaultGlossary
	}
	maxWords := 1
	for _, t := range terms {
		if n := len(strings.Fields(t)); n > maxWords {
			maxWords = n
		}
	}
	return &TermCorrector{
		matcher:  phonetic.New(opts...),
		terms:    terms,
		maxWords: maxWords,
	}
}

// Correct scans text with n-gram windows (longest first) and substitutes
// glossary terms for phonetically matching windows. A window is only replaced
// by a term with the same word count, so "value" alone never inflates into
// "fund value". Returns the corrected text and the substitutions made;
// windows already in canonical form pass through unrecorded.
func (c *TermCorrector) Correct(text string) (string, []Correction) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return text, nil
	}

	var out []string
	var corrections []Correction

	i := 0
	for i < len(tokens) {
		maxN := c.maxWords
		if i+maxN > len(tokens) {
			maxN = len(tokens) - i
		}

		matched := false
		for n := maxN; n >= 1; n-- {
			window := strings.Join(tokens[i:i+n], " ")
			core := strings.Trim(window, trimPunct)
			if core == "" {
				continue
			}

			term, conf, ok := c.matcher.Match(core, c.terms)
			if !ok || len(strings.Fields(term)) != n {
				continue
			}

			if strings.EqualFold(core, term) {
				// Already canonical; consume the window so its words are
				// not re-matched individually.
				out = append(out, tokens[i:i+n]...)
			} else {
				replacement := strings.Fields(term)
				// Reattach trailing punctuation from the original window.
				if idx := strings.Index(window, core); idx >= 0 {
					if tail := window[idx+len(core):]; tail != "" {
						replacement[len(replacement)-1] += tail
					}
				}
				out = append(out, replacement...)
				corrections = append(corrections, Correction{
					Original:   core,
					Corrected:  term,
					Confidence: conf,
				})
			}
			i += n
			matched = true
			break
		}

		if !matched {
			out = append(out, tokens[i])
			i++
		}
	}

	return strings.Join(out, " "), corrections
}
