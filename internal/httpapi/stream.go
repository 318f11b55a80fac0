package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/valuenable/veena/internal/chat"
)

// Stream event types sent to the client.
const (
	eventTranscript = "transcript"
	eventReply      = "reply"
	eventError      = "error"
)

type streamEvent struct {
	Type string `json:"type"`

	// Transcript fields, set for "transcript" events.
	Text       string  `json:"text,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`

	// Reply fields, set for "reply" events.
	Message      string   `json:"message,omitempty"`
	Sources      []string `json:"sources,omitempty"`
	ResponseTime int      `json:"responseTime,omitempty"`

	// Error is set for "error" events.
	Error string `json:"error,omitempty"`
}

// stream upgrades the connection and runs a voice turn loop: each binary
// frame from the client is one complete audio clip, answered with a
// transcript event followed by a reply event. Recoverable input problems
// produce an error event and keep the connection open.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}
	if _, err := s.chat.Get(r.Context(), sessionID); err != nil {
		writeServiceError(w, err, "Failed to get conversation")
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("httpapi: websocket accept", "err", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	s.metrics.ActiveStreams.Add(r.Context(), 1)
	defer s.metrics.ActiveStreams.Add(r.Context(), -1)

	ctx := r.Context()
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				conn.Close(websocket.StatusNormalClosure, "done")
				return
			}
			slog.Warn("httpapi: websocket read", "session", sessionID, "err", err)
			return
		}
		if msgType != websocket.MessageBinary {
			s.writeEvent(ctx, conn, streamEvent{Type: eventError, Error: "Expected binary audio frame"})
			continue
		}

		ex, err := s.chat.RespondVoice(ctx, sessionID, data)
		if err != nil {
			s.metrics.RecordTranscription(ctx, transcriptionStatus(err))
			s.writeEvent(ctx, conn, streamEvent{Type: eventError, Error: streamErrorMessage(err)})
			if errors.Is(err, chat.ErrNotFound) {
				conn.Close(websocket.StatusPolicyViolation, "conversation not found")
				return
			}
			continue
		}

		s.metrics.RecordTranscription(ctx, "ok")
		s.metrics.RecordTurn(ctx, "user", true)
		s.metrics.RecordTurn(ctx, "ai", false)

		s.writeEvent(ctx, conn, streamEvent{
			Type:       eventTranscript,
			Text:       ex.Transcript,
			Confidence: ex.TranscriptConfidence,
		})
		s.writeEvent(ctx, conn, streamEvent{
			Type:         eventReply,
			Message:      ex.Reply.Message,
			Confidence:   ex.Reply.Confidence,
			Sources:      ex.Reply.Sources,
			ResponseTime: ex.Reply.ResponseTimeMS,
		})
	}
}

func (s *Server) writeEvent(ctx context.Context, conn *websocket.Conn, ev streamEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("httpapi: marshal stream event", "err", err)
		return
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Warn("httpapi: websocket write", "err", err)
	}
}

func streamErrorMessage(err error) string {
	switch {
	case errors.Is(err, chat.ErrNoSpeechDetected):
		return "No speech detected"
	case errors.Is(err, chat.ErrInvalidInput):
		return "Invalid audio data"
	case errors.Is(err, chat.ErrNotFound):
		return "Conversation not found"
	default:
		return "Failed to process voice input"
	}
}
