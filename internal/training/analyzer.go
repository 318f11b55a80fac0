package training

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valuenable/veena/pkg/provider/llm"
)

// Analysis is the structured result of analyzing one call transcript.
type Analysis struct {
	CustomerQuestions     []string `json:"customerQuestions"`
	AgentResponses        []string `json:"agentResponses"`
	ConversationFlow      []string `json:"conversationFlow"`
	KeyInsights           []string `json:"keyInsights"`
	SuggestedImprovements []string `json:"suggestedImprovements"`
}

// Report combines a transcript's analysis with its quality verdict.
type Report struct {
	TranscriptID int
	Filename     string
	Analysis     Analysis

	// QualityScore rates the transcript 0-100.
	QualityScore int

	// Usable marks transcripts that meet the minimum bar for feeding the
	// persona insights.
	Usable bool

	ProcessedAt time.Time
}

const analysisSystemPrompt = "You are an expert insurance training analyst. " +
	"Analyze call recordings to extract meaningful training data for AI " +
	"assistants. Always respond with valid JSON."

const analysisPromptFormat = `Analyze this COMPLETE insurance call recording transcription and extract comprehensive training data for AI model improvement:

FULL TRANSCRIPTION:
%s

Please provide a detailed JSON response with the following structure:
{
  "customerQuestions": ["extract ALL customer questions, concerns, and objections from the entire call"],
  "agentResponses": ["extract ALL agent responses, explanations, and techniques used throughout the call"],
  "conversationFlow": ["step-by-step flow of the entire conversation from greeting to closure"],
  "keyInsights": ["important insights about customer behavior, needs, and successful agent techniques"],
  "suggestedImprovements": ["specific suggestions for better handling similar calls based on the complete conversation"]
}

ANALYSIS REQUIREMENTS:
1. Process the ENTIRE transcription - don't skip any part
2. Extract ALL customer questions and concerns mentioned throughout the call
3. Document ALL agent responses and techniques used
4. Map the complete conversation flow from beginning to end
5. Identify patterns in customer objections and agent rebuttals
6. Note language preferences (Hindi/English/Marathi/Gujarati)
7. Highlight successful persuasion techniques
8. Identify areas where the conversation could be improved
9. Focus on policy details, premium discussions, and payment conversations

This analysis will be used to train the AI model to handle similar customer interactions more effectively.`

// analysisTemperature keeps extraction deterministic rather than creative.
const analysisTemperature = 0.3

// analyze runs the JSON-mode extraction prompt over one transcript.
func analyze(ctx context.Context, model llm.Provider, transcription string) (Analysis, error) {
	resp, err := model.Complete(ctx, llm.Request{
		System:      analysisSystemPrompt,
		User:        fmt.Sprintf(analysisPromptFormat, transcription),
		Temperature: analysisTemperature,
		ForceJSON:   true,
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("training: analyze transcript: %w", err)
	}
	if resp == nil || resp.Text == "" {
		return Analysis{}, fmt.Errorf("training: analyze transcript: empty completion")
	}

	var a Analysis
	if err := json.Unmarshal([]byte(resp.Text), &a); err != nil {
		return Analysis{}, fmt.Errorf("training: parse analysis: %w", err)
	}
	return a, nil
}
