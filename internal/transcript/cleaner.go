// Package transcript post-processes raw speech-to-text output.
//
// Call recordings come back from transcription engines with stuttered
// phrases, duplicated sentences, and stretches of corrupted characters.
// [Clean] trades recall for precision: it aggressively drops repetition so
// that what remains is safe to store and to feed back into prompt assembly.
// [PreserveFlow] is the lighter variant used for training material, where
// conversational back-and-forth should survive.
package transcript

import "strings"

const (
	// maxUnits caps the number of sentence units Clean keeps.
	maxUnits = 5
	// similarityThreshold drops a unit whose word overlap with an already
	// accepted unit exceeds this ratio. Empirically chosen, kept as-is for
	// compatibility with existing stored transcripts.
	similarityThreshold = 0.7
	// repeatMin and repeatMax bound the phrase length considered by the
	// consecutive-repetition collapse.
	repeatMin = 10
	repeatMax = 50
)

// Clean normalizes a raw transcription into at most five deduplicated
// sentence units joined by ". ". A non-empty input never yields an empty
// result: when every unit is filtered away the first raw unit is returned.
func Clean(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text := collapseRepeats(raw)
	rawUnits := splitUnits(text)
	if len(rawUnits) == 0 {
		return strings.TrimSpace(text)
	}

	units := dropConsecutiveDuplicates(rawUnits)
	kept := dropSimilar(units)
	if len(kept) == 0 {
		if len(units) > 0 {
			kept = units[:1]
		} else {
			kept = rawUnits[:1]
		}
	}
	return strings.TrimSpace(strings.Join(kept, ". "))
}

// PreserveFlow applies only light cleanup to a transcription: it drops lines
// dominated by a single repeated character and lines duplicating their
// predecessor, keeping blank lines as conversation breaks. Used where the
// full back-and-forth of a call matters more than brevity.
func PreserveFlow(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(kept) > 0 && kept[len(kept)-1] != "" {
				kept = append(kept, "")
			}
			continue
		}
		if dominatedBySingleRune(line) {
			continue
		}
		if len(kept) > 0 && kept[len(kept)-1] == line {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// dominatedBySingleRune reports whether one character makes up more than 80%
// of a line of at least ten characters.
func dominatedBySingleRune(line string) bool {
	runes := []rune(line)
	if len(runes) < 10 {
		return false
	}
	counts := make(map[rune]int)
	for _, r := range runes {
		counts[r]++
	}
	for _, c := range counts {
		if float64(c)/float64(len(runes)) > 0.8 {
			return true
		}
	}
	return false
}

// collapseRepeats removes phrases of repeatMin to repeatMax characters that
// repeat three or more times consecutively, separated by whitespace, keeping
// a single occurrence. Shorter phrase candidates win over longer ones so a
// stutter like "please hold the line please hold the line please hold the
// line" collapses at the smallest repeating chunk.
func collapseRepeats(text string) string {
	runes := []rune(text)
	var out []rune

	for i := 0; i < len(runes); {
		collapsed := false
		for size := repeatMin; size <= repeatMax && i+size <= len(runes); size++ {
			phrase := runes[i : i+size]
			repeats := countConsecutiveRepeats(runes, i+size, phrase)
			if repeats >= 2 {
				out = append(out, phrase...)
				i += size + repeatSpan(runes, i+size, phrase, repeats)
				collapsed = true
				break
			}
		}
		if !collapsed {
			out = append(out, runes[i])
			i++
		}
	}
	return string(out)
}

// countConsecutiveRepeats counts how many times phrase reoccurs at pos,
// allowing whitespace between occurrences.
func countConsecutiveRepeats(runes []rune, pos int, phrase []rune) int {
	count := 0
	for {
		start := pos
		for start < len(runes) && isSpace(runes[start]) {
			start++
		}
		if start == pos || start+len(phrase) > len(runes) {
			return count
		}
		if string(runes[start:start+len(phrase)]) != string(phrase) {
			return count
		}
		count++
		pos = start + len(phrase)
	}
}

// repeatSpan returns the total length of n whitespace-separated repeats of
// phrase starting at pos.
func repeatSpan(runes []rune, pos int, phrase []rune, n int) int {
	start := pos
	for i := 0; i < n; i++ {
		for pos < len(runes) && isSpace(runes[pos]) {
			pos++
		}
		pos += len(phrase)
	}
	return pos - start
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// splitUnits breaks text into sentence-like units on Hindi and English
// punctuation, dropping units of five characters or fewer.
func splitUnits(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '।', '.', ',', ';', '\n':
			return true
		}
		return false
	})

	units := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) > 5 {
			units = append(units, p)
		}
	}
	return units
}

// dropConsecutiveDuplicates removes units whose normalization is empty or
// identical to the previous kept unit's normalization.
func dropConsecutiveDuplicates(units []string) []string {
	kept := make([]string, 0, len(units))
	last := ""
	for _, u := range units {
		n := normalize(u)
		if n == "" || n == normalize(last) {
			continue
		}
		kept = append(kept, u)
		last = u
	}
	return kept
}

// dropSimilar removes units whose word overlap with any previously accepted
// unit exceeds similarityThreshold, requires a normalized length above ten
// characters, and caps the result at maxUnits. Inputs of two units or fewer
// pass through untouched.
func dropSimilar(units []string) []string {
	if len(units) <= 2 {
		return units
	}

	var kept []string
	var acceptedNorms []string
	for _, u := range units {
		n := normalize(u)

		similar := false
		for _, accepted := range acceptedNorms {
			if similarity(n, accepted) > similarityThreshold {
				similar = true
				break
			}
		}
		if similar || len(n) <= 10 {
			continue
		}

		kept = append(kept, u)
		acceptedNorms = append(acceptedNorms, n)
		if len(kept) >= maxUnits {
			break
		}
	}
	return kept
}

// normalize lowercases text, strips characters outside the Devanagari and
// ASCII ranges, and collapses runs of whitespace.
func normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 0x0900 && r <= 0x097F) || (r >= 0x0020 && r <= 0x007F) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// similarity is the share of words longer than two characters the two texts
// have in common, relative to the larger word set.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	wordsA := longWords(a)
	wordsB := longWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	setB := make(map[string]struct{}, len(wordsB))
	for _, w := range wordsB {
		setB[w] = struct{}{}
	}
	common := 0
	for _, w := range wordsA {
		if _, ok := setB[w]; ok {
			common++
		}
	}
	return float64(common) / float64(max(len(wordsA), len(wordsB)))
}

func longWords(text string) []string {
	var out []string
	for _, w := range strings.Split(text, " ") {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}
