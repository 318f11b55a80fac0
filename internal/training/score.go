package training

import "strings"

// repetitionThreshold is the word-frequency share above which a transcript
// counts as repetitive or corrupted.
const repetitionThreshold = 0.3

// qualityScore rates a transcript 0-100 from its length, the richness of the
// extracted analysis, greeting/closing markers, and a repetition penalty.
func qualityScore(a Analysis, transcription string) int {
	score := 0

	switch {
	case len(transcription) > 1000:
		score += 30
	case len(transcription) > 500:
		score += 25
	case len(transcription) > 200:
		score += 15
	case len(transcription) > 50:
		score += 10
	}

	switch {
	case len(a.CustomerQuestions) >= 3:
		score += 25
	case len(a.CustomerQuestions) >= 1:
		score += 15
	}

	switch {
	case len(a.AgentResponses) >= 3:
		score += 25
	case len(a.AgentResponses) >= 1:
		score += 15
	}

	switch {
	case len(a.ConversationFlow) >= 5:
		score += 15
	case len(a.ConversationFlow) >= 3:
		score += 10
	}

	switch {
	case len(a.KeyInsights) >= 2:
		score += 10
	case len(a.KeyInsights) >= 1:
		score += 5
	}

	switch {
	case len(a.SuggestedImprovements) >= 2:
		score += 10
	case len(a.SuggestedImprovements) >= 1:
		score += 5
	}

	lower := strings.ToLower(transcription)
	if strings.Contains(lower, "hello") ||
		strings.Contains(transcription, "नमस्ते") ||
		strings.Contains(transcription, "हैलो") {
		score += 5
	}
	if strings.Contains(lower, "thank you") ||
		strings.Contains(transcription, "धन्यवाद") ||
		strings.Contains(lower, "goodbye") {
		score += 5
	}

	if isRepetitive(transcription) {
		score -= 40
	}

	return max(0, min(100, score))
}

// usableForTraining is the minimum bar a transcript must clear before its
// analysis may feed the persona insights.
func usableForTraining(a Analysis, transcription string) bool {
	return len(transcription) > 50 &&
		len(a.CustomerQuestions) > 0 &&
		len(a.AgentResponses) > 0 &&
		!isRepetitive(transcription)
}

// isRepetitive reports whether any word longer than two characters makes up
// more than 30% of the transcript, a sign of a stuck or corrupted recording.
func isRepetitive(text string) bool {
	words := strings.Fields(text)
	if len(words) == 0 {
		return false
	}

	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}
	for w, n := range counts {
		if len(w) > 2 && float64(n)/float64(len(words)) > repetitionThreshold {
			return true
		}
	}
	return false
}
