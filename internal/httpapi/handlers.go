package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/valuenable/veena/internal/chat"
	"github.com/valuenable/veena/internal/conversation"
	"github.com/valuenable/veena/internal/knowledge"
)

// maxAudioBytes caps voice uploads. Anything larger than 25 MB is beyond
// what the transcription providers accept anyway.
const maxAudioBytes = 25 << 20

func (s *Server) createConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if r.Body != nil {
		// Body is optional; ignore decode errors for an empty body.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	conv, _, err := s.chat.StartConversation(r.Context(), req.UserID)
	if err != nil {
		writeServiceError(w, err, "Failed to create conversation")
		return
	}
	s.metrics.ActiveConversations.Add(r.Context(), 1)
	writeJSON(w, http.StatusCreated, toConversationJSON(conv))
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	conv, err := s.chat.Get(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err, "Failed to get conversation")
		return
	}
	turns, err := s.chat.Messages(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err, "Failed to get conversation")
		return
	}

	messages := make([]messageJSON, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, toMessageJSON(t))
	}
	writeJSON(w, http.StatusOK, struct {
		conversationJSON
		Messages []messageJSON `json:"messages"`
	}{toConversationJSON(conv), messages})
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	turns, err := s.chat.Messages(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err, "Failed to get messages")
		return
	}
	messages := make([]messageJSON, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, toMessageJSON(t))
	}
	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "Message content is required")
		return
	}

	ex, err := s.chat.Respond(r.Context(), sessionID, req.Content)
	if err != nil {
		writeServiceError(w, err, "Failed to process message")
		return
	}

	s.metrics.RecordTurn(r.Context(), "user", false)
	s.metrics.RecordTurn(r.Context(), "ai", false)
	writeJSON(w, http.StatusOK, toExchangeJSON(ex))
}

func (s *Server) postVoice(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	audio, err := readAudio(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid audio data format")
		return
	}
	if len(audio) == 0 {
		writeError(w, http.StatusBadRequest, "Audio data is required")
		return
	}

	ex, err := s.chat.RespondVoice(r.Context(), sessionID, audio)
	if err != nil {
		s.metrics.RecordTranscription(r.Context(), transcriptionStatus(err))
		writeServiceError(w, err, "Failed to process voice input")
		return
	}

	s.metrics.RecordTranscription(r.Context(), "ok")
	s.metrics.RecordTurn(r.Context(), "user", true)
	s.metrics.RecordTurn(r.Context(), "ai", false)
	writeJSON(w, http.StatusOK, toVoiceExchangeJSON(ex))
}

// voiceReply synthesizes the most recent AI reply as audio.
func (s *Server) voiceReply(w http.ResponseWriter, r *http.Request) {
	if s.speech == nil {
		writeError(w, http.StatusServiceUnavailable, "Voice synthesis is not configured")
		return
	}
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	turns, err := s.chat.Messages(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err, "Failed to get messages")
		return
	}

	var text string
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Type == conversation.TurnAI {
			text = turns[i].Content
			break
		}
	}
	if text == "" {
		writeError(w, http.StatusNotFound, "No reply to synthesize")
		return
	}

	clip, err := s.speech.Synthesize(r.Context(), text)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to synthesize reply")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(clip)
}

func (s *Server) getAnalytics(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	a, err := s.chat.Analytics(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err, "Failed to get analytics")
		return
	}
	writeJSON(w, http.StatusOK, analyticsJSON{
		MessageCount:    a.MessageCount,
		UserMessages:    a.UserMessages,
		AIMessages:      a.AIMessages,
		AvgResponseTime: a.AvgResponseTimeMS,
		SessionDuration: a.SessionDurationSeconds,
		VoiceMessages:   a.VoiceMessages,
		VoiceQuality:    a.VoiceQuality,
	})
}

func (s *Server) endConversation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	conv, err := s.chat.End(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err, "Failed to end conversation")
		return
	}
	s.metrics.ActiveConversations.Add(r.Context(), -1)
	writeJSON(w, http.StatusOK, toConversationJSON(conv))
}

func (s *Server) listKnowledge(w http.ResponseWriter, r *http.Request) {
	var (
		entries []knowledge.Entry
		err     error
	)
	search := r.URL.Query().Get("search")
	category := r.URL.Query().Get("category")
	switch {
	case search != "":
		entries, err = s.knowledge.Search(r.Context(), search)
	default:
		entries, err = s.knowledge.List(r.Context(), knowledge.ListOptions{Category: category})
	}
	if err != nil {
		writeServiceError(w, err, "Failed to get knowledge base")
		return
	}

	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listVoices(w http.ResponseWriter, r *http.Request) {
	if s.speech == nil {
		writeError(w, http.StatusServiceUnavailable, "Voice synthesis is not configured")
		return
	}

	voices, err := s.speech.ListVoices(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to list voices")
		return
	}
	out := make([]voiceJSON, 0, len(voices))
	for _, v := range voices {
		out = append(out, toVoiceJSON(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) postTranscript(w http.ResponseWriter, r *http.Request) {
	if s.training == nil {
		writeError(w, http.StatusServiceUnavailable, "Training is not configured")
		return
	}

	var req struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "Transcript content is required")
		return
	}

	transcript, err := s.training.Submit(r.Context(), req.Filename, req.Content)
	if err != nil {
		writeServiceError(w, err, "Failed to store transcript")
		return
	}

	insights, err := s.training.Refresh(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to analyze transcripts")
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		ID              int       `json:"id"`
		Filename        string    `json:"filename"`
		Status          string    `json:"status"`
		CreatedAt       time.Time `json:"createdAt"`
		InsightsApplied bool      `json:"insightsApplied"`
	}{
		ID:              transcript.ID,
		Filename:        transcript.Filename,
		Status:          string(transcript.Status),
		CreatedAt:       transcript.CreatedAt,
		InsightsApplied: insights != "",
	})
}

// transcriptionStatus buckets a voice pipeline error for the metrics
// status attribute.
func transcriptionStatus(err error) string {
	if errors.Is(err, chat.ErrNoSpeechDetected) {
		return "no_speech"
	}
	return "error"
}

// sessionIDFrom extracts and parses the sessionID path variable. A malformed
// ID is reported as not found: callers cannot tell a bad ID from an expired
// one, and both mean the same thing to them.
func sessionIDFrom(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["sessionID"])
	if err != nil {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return uuid.Nil, false
	}
	return id, true
}

// readAudio accepts either a raw audio body or a JSON envelope with a
// base64-encoded "audio" field.
func readAudio(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes))
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Audio string `json:"audio"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		return base64.StdEncoding.DecodeString(req.Audio)
	}
	return body, nil
}
