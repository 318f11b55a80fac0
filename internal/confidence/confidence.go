// Package confidence scores generated replies and transcriptions.
//
// Both scores are coarse categorical heuristics, not statistical estimates.
// The transcription thresholds were tuned against garbled multilingual call
// recordings and are preserved verbatim so tests stay reproducible.
package confidence

import "strings"

// Finish reasons reported by completion providers.
const (
	FinishStop   = "stop"
	FinishLength = "length"
)

// FromFinishReason maps a completion finish reason to a reply confidence.
// A natural stop scores 0.9, a length truncation 0.7, and anything else
// (content filter, tool call, unknown) 0.5.
func FromFinishReason(reason string) float64 {
	switch reason {
	case FinishStop:
		return 0.9
	case FinishLength:
		return 0.7
	default:
		return 0.5
	}
}

// Transcription estimates how trustworthy a cleaned transcription is, given
// the raw text it was cleaned from.
//
// The reduction ratio len(cleaned)/len(raw) is the primary corruption proxy:
// heavy cleaning means the raw text was mostly repetition. The remaining
// checks look for repeated words and characters outside the Devanagari and
// ASCII ranges the assistant operates in.
func Transcription(cleaned, raw string) float64 {
	if cleaned == "" || raw == "" {
		return 0.1
	}

	reductionRatio := float64(len(cleaned)) / float64(len(raw))
	if reductionRatio < 0.3 {
		return 0.3
	}
	if reductionRatio < 0.7 {
		return 0.6
	}

	if hasRepeatedWords(cleaned) {
		return 0.5
	}
	if hasOutOfScriptRunes(cleaned) && len(cleaned) > 20 {
		return 0.4
	}
	return 0.85
}

// hasRepeatedWords reports whether any word occurs three or more times in
// text. Words shorter than three characters are skipped so articles and
// pronouns do not trip the check.
func hasRepeatedWords(text string) bool {
	counts := make(map[string]int)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len(w) <= 2 {
			continue
		}
		counts[w]++
		if counts[w] >= 3 {
			return true
		}
	}
	return false
}

// hasOutOfScriptRunes reports whether text contains characters outside the
// Devanagari block and printable ASCII.
func hasOutOfScriptRunes(text string) bool {
	for _, r := range text {
		if inScript(r) {
			continue
		}
		return true
	}
	return false
}

// inScript reports whether r belongs to the supported script ranges:
// Devanagari (U+0900..U+097F) or ASCII space through tilde.
func inScript(r rune) bool {
	return (r >= 0x0900 && r <= 0x097F) || (r >= 0x0020 && r <= 0x007F)
}
