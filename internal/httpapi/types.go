package httpapi

import (
	"time"

	"github.com/valuenable/veena/internal/chat"
	"github.com/valuenable/veena/internal/conversation"
	"github.com/valuenable/veena/internal/knowledge"
	"github.com/valuenable/veena/pkg/provider/tts"
)

// Wire representations. Field names mirror what the web client consumes.

type conversationJSON struct {
	ID           int        `json:"id"`
	SessionID    string     `json:"sessionId"`
	UserID       string     `json:"userId,omitempty"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	MessageCount int        `json:"messageCount"`
	Duration     int        `json:"duration"`
	Status       string     `json:"status"`
}

type voiceDataJSON struct {
	Confidence float64 `json:"confidence"`
	Duration   float64 `json:"duration"`
	Language   string  `json:"language,omitempty"`
}

type metadataJSON struct {
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources,omitempty"`
}

type messageJSON struct {
	ID             int            `json:"id"`
	ConversationID int            `json:"conversationId"`
	Type           string         `json:"type"`
	Content        string         `json:"content"`
	Timestamp      time.Time      `json:"timestamp"`
	ResponseTime   int            `json:"responseTime"`
	VoiceData      *voiceDataJSON `json:"voiceData,omitempty"`
	Metadata       *metadataJSON  `json:"metadata,omitempty"`
}

type aiResponseJSON struct {
	Message      string   `json:"message"`
	Confidence   float64  `json:"confidence"`
	ResponseTime int      `json:"responseTime"`
	Sources      []string `json:"sources"`
}

type transcriptionJSON struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Duration   float64 `json:"duration"`
}

type exchangeJSON struct {
	UserMessage messageJSON    `json:"userMessage"`
	AIMessage   messageJSON    `json:"aiMessage"`
	AIResponse  aiResponseJSON `json:"aiResponse"`
}

type voiceExchangeJSON struct {
	Transcription transcriptionJSON `json:"transcription"`
	UserMessage   messageJSON       `json:"userMessage"`
	AIMessage     messageJSON       `json:"aiMessage"`
	AIResponse    aiResponseJSON    `json:"aiResponse"`
}

type analyticsJSON struct {
	MessageCount    int     `json:"messageCount"`
	UserMessages    int     `json:"userMessages"`
	AIMessages      int     `json:"aiMessages"`
	AvgResponseTime int     `json:"avgResponseTime"`
	SessionDuration int     `json:"sessionDuration"`
	VoiceMessages   int     `json:"voiceMessages"`
	VoiceQuality    float64 `json:"voiceQuality"`
}

type entryJSON struct {
	ID       int      `json:"id"`
	Category string   `json:"category"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords"`
	Priority int      `json:"priority"`
	IsActive bool     `json:"isActive"`
}

type voiceJSON struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func toConversationJSON(c conversation.Conversation) conversationJSON {
	return conversationJSON{
		ID:           c.ID,
		SessionID:    c.SessionID.String(),
		UserID:       c.UserID,
		StartTime:    c.StartTime,
		EndTime:      c.EndTime,
		MessageCount: c.MessageCount,
		Duration:     c.Duration,
		Status:       string(c.Status),
	}
}

func toMessageJSON(t conversation.Turn) messageJSON {
	m := messageJSON{
		ID:             t.ID,
		ConversationID: t.ConversationID,
		Type:           string(t.Type),
		Content:        t.Content,
		Timestamp:      t.Timestamp,
		ResponseTime:   t.ResponseTimeMS,
	}
	if t.Voice != nil {
		m.VoiceData = &voiceDataJSON{
			Confidence: t.Voice.Confidence,
			Duration:   t.Voice.DurationSeconds,
			Language:   t.Voice.Language,
		}
	}
	if t.Attribution != nil {
		m.Metadata = &metadataJSON{
			Confidence: t.Attribution.Confidence,
			Sources:    t.Attribution.Sources,
		}
	}
	return m
}

func toExchangeJSON(ex *chat.Exchange) exchangeJSON {
	sources := ex.Reply.Sources
	if sources == nil {
		sources = []string{}
	}
	return exchangeJSON{
		UserMessage: toMessageJSON(ex.UserTurn),
		AIMessage:   toMessageJSON(ex.AITurn),
		AIResponse: aiResponseJSON{
			Message:      ex.Reply.Message,
			Confidence:   ex.Reply.Confidence,
			ResponseTime: ex.Reply.ResponseTimeMS,
			Sources:      sources,
		},
	}
}

func toVoiceExchangeJSON(ex *chat.VoiceExchange) voiceExchangeJSON {
	base := toExchangeJSON(&ex.Exchange)
	return voiceExchangeJSON{
		Transcription: transcriptionJSON{
			Text:       ex.Transcript,
			Confidence: ex.TranscriptConfidence,
			Duration:   ex.DurationSeconds,
		},
		UserMessage: base.UserMessage,
		AIMessage:   base.AIMessage,
		AIResponse:  base.AIResponse,
	}
}

func toEntryJSON(e knowledge.Entry) entryJSON {
	keywords := e.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return entryJSON{
		ID:       e.ID,
		Category: e.Category,
		Question: e.Question,
		Answer:   e.Answer,
		Keywords: keywords,
		Priority: e.Priority,
		IsActive: e.IsActive,
	}
}

func toVoiceJSON(v tts.Voice) voiceJSON {
	return voiceJSON{ID: v.ID, Name: v.Name, Metadata: v.Metadata}
}
