package training

import (
	"strings"
	"testing"
)

func TestQualityScore(t *testing.T) {
	richAnalysis := Analysis{
		CustomerQuestions:     []string{"q1", "q2", "q3"},
		AgentResponses:        []string{"r1", "r2", "r3"},
		ConversationFlow:      []string{"f1", "f2", "f3", "f4", "f5"},
		KeyInsights:           []string{"i1", "i2"},
		SuggestedImprovements: []string{"s1", "s2"},
	}
	longCall := "hello sir " + strings.Repeat("premium payment discussion with policy details ", 25) + " thank you"

	tests := []struct {
		name          string
		analysis      Analysis
		transcription string
		want          int
	}{
		{
			name:          "rich complete call hits the ceiling",
			analysis:      richAnalysis,
			transcription: longCall,
			// 30 length + 25 + 25 + 15 + 10 + 10 + 5 greeting + 5 closing,
			// clamped to 100.
			want: 100,
		},
		{
			name:          "short call with single elements",
			analysis:      Analysis{CustomerQuestions: []string{"q"}, AgentResponses: []string{"r"}},
			transcription: "hello, I want to know about my premium amount please",
			// 10 length + 15 + 15 + 5 greeting.
			want: 45,
		},
		{
			name:          "empty analysis and tiny transcript",
			analysis:      Analysis{},
			transcription: "hi",
			want:          0,
		},
		{
			name:          "repetitive content is penalized",
			analysis:      Analysis{CustomerQuestions: []string{"q"}, AgentResponses: []string{"r"}},
			transcription: strings.Repeat("payment ", 40),
			// 15 length + 15 + 15 - 40.
			want: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := qualityScore(tt.analysis, tt.transcription); got != tt.want {
				t.Errorf("qualityScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestQualityScoreHindiMarkers(t *testing.T) {
	a := Analysis{}
	tr := "नमस्ते सर, मैं आपकी पॉलिसी के बारे में बात करना चाहती हूं। धन्यवाद।"
	// 10 length + 5 greeting + 5 closing.
	if got := qualityScore(a, tr); got != 20 {
		t.Errorf("qualityScore() = %d, want 20", got)
	}
}

func TestIsRepetitive(t *testing.T) {
	if !isRepetitive(strings.Repeat("payment ", 10)) {
		t.Error("isRepetitive() = false for a single dominating word")
	}
	if isRepetitive("a a a a a a b") {
		t.Error("isRepetitive() = true for dominating short word")
	}
	if isRepetitive("the customer asked about premium payment options and claim settlement") {
		t.Error("isRepetitive() = true for a normal sentence")
	}
	if isRepetitive("") {
		t.Error("isRepetitive() = true for empty input")
	}
}

func TestUsableForTraining(t *testing.T) {
	good := Analysis{CustomerQuestions: []string{"q"}, AgentResponses: []string{"r"}}
	longEnough := "the customer asked several questions about premium payments today"

	if !usableForTraining(good, longEnough) {
		t.Error("usableForTraining() = false for a valid transcript")
	}
	if usableForTraining(good, "too short") {
		t.Error("usableForTraining() = true for a short transcript")
	}
	if usableForTraining(Analysis{AgentResponses: []string{"r"}}, longEnough) {
		t.Error("usableForTraining() = true without customer questions")
	}
	if usableForTraining(good, strings.Repeat("payment ", 20)) {
		t.Error("usableForTraining() = true for repetitive content")
	}
}
