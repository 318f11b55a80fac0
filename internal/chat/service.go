// Package chat orchestrates the conversation pipeline: session lookup,
// knowledge retrieval, prompt assembly, model completion, and persistence of
// both sides of every exchange.
//
// Voice input passes through transcription and transcript cleanup before it
// enters the same text pipeline, carrying its transcription confidence along
// as [conversation.VoiceMetadata].
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/valuenable/veena/internal/confidence"
	"github.com/valuenable/veena/internal/conversation"
	"github.com/valuenable/veena/internal/knowledge"
	"github.com/valuenable/veena/internal/prompt"
	"github.com/valuenable/veena/internal/transcript"
	"github.com/valuenable/veena/pkg/provider/llm"
	"github.com/valuenable/veena/pkg/provider/stt"
)

const (
	// welcomeMessage opens every new conversation as its first AI turn.
	welcomeMessage = "Hello! I'm your ValuEnable AI assistant. I can help you " +
		"with insurance queries, policy information, claims, and more. Feel " +
		"free to ask me anything or use voice input to start a conversation."

	// emptyReplyMessage stands in for a completion that came back blank.
	emptyReplyMessage = "I apologize, but I couldn't generate a response. " +
		"Please try again."

	// fallbackReplyMessage is returned when the model call itself fails.
	// The caller still receives a reply; the failure is logged and counted.
	fallbackReplyMessage = "I apologize, but I'm experiencing technical " +
		"difficulties. Please try again in a moment or contact our customer " +
		"service team for immediate assistance."

	// minAudioBytes is the smallest audio payload worth sending to the
	// transcriber. Anything shorter cannot hold intelligible speech.
	minAudioBytes = 1000

	completionTemperature = 0.7
	completionMaxTokens   = 500

	// maxSources caps how many knowledge questions are attributed per reply.
	maxSources = 3

	// historyWindow matches the assembler's conversation context window.
	historyWindow = 6
)

// pinnedCategories are always retrieved alongside the query match so that
// premium and payment questions can be answered from the actual policy data.
var pinnedCategories = []string{"Policy Details", "Payment Options"}

// Reply is the assistant's answer to one user message.
type Reply struct {
	// Message is the reply text shown (or spoken) to the caller.
	Message string

	// Confidence estimates reply quality in [0, 1], derived from the
	// model's finish reason. Zero when the model call failed.
	Confidence float64

	// ResponseTimeMS is the end-to-end latency of generating this reply.
	ResponseTimeMS int

	// Sources lists the knowledge base questions that matched the query,
	// best matches first.
	Sources []string
}

// Exchange is one completed request/reply round trip, both turns persisted.
type Exchange struct {
	UserTurn conversation.Turn
	AITurn   conversation.Turn
	Reply    Reply
}

// VoiceExchange is an [Exchange] that originated from audio.
type VoiceExchange struct {
	Exchange

	// Transcript is the cleaned transcription the pipeline responded to.
	Transcript string

	// TranscriptConfidence scores the transcription quality in [0, 1].
	TranscriptConfidence float64

	// DurationSeconds is the source audio length, when the transcriber
	// reported it.
	DurationSeconds float64
}

// Analytics summarizes one conversation for reporting.
type Analytics struct {
	MessageCount int
	UserMessages int
	AIMessages   int

	// AvgResponseTimeMS is the rounded mean latency of AI turns that
	// recorded one. Zero when no turn did.
	AvgResponseTimeMS int

	// SessionDurationSeconds measures from start to end time, or to now
	// for a still-active conversation.
	SessionDurationSeconds int

	VoiceMessages int

	// VoiceQuality is the mean transcription confidence of voice turns,
	// rounded to two decimals. Zero when there were none.
	VoiceQuality float64
}

// Service runs the conversation pipeline. All its operations address
// conversations by their public session ID.
type Service struct {
	knowledge     knowledge.Store
	conversations conversation.Store
	model         llm.Provider
	transcriber   stt.Provider
	persona       *prompt.Persona
	corrector     *transcript.TermCorrector

	llmTimeout    time.Duration
	sttTimeout    time.Duration
	voiceLanguage string
}

// Option is a functional option for [New].
type Option func(*Service)

// WithLLMTimeout bounds each model completion call. Defaults to 30 seconds.
func WithLLMTimeout(d time.Duration) Option {
	return func(s *Service) { s.llmTimeout = d }
}

// WithSTTTimeout bounds each transcription call. Defaults to 60 seconds.
func WithSTTTimeout(d time.Duration) Option {
	return func(s *Service) { s.sttTimeout = d }
}

// WithVoiceLanguage sets the language tag recorded on voice turns. It should
// match the language hint the transcriber is configured with. Defaults to "hi".
func WithVoiceLanguage(tag string) Option {
	return func(s *Service) { s.voiceLanguage = tag }
}

// WithTermCorrector replaces the vocabulary corrector applied to cleaned
// transcripts. Defaults to one over [transcript.DefaultGlossary].
func WithTermCorrector(c *transcript.TermCorrector) Option {
	return func(s *Service) { s.corrector = c }
}

// New creates a [Service] wired to its stores and providers.
// The transcriber may be nil when voice input is disabled; [RespondVoice]
// then returns [ErrInvalidInput].
func New(ks knowledge.Store, cs conversation.Store, model llm.Provider, transcriber stt.Provider, persona *prompt.Persona, opts ...Option) *Service {
	s := &Service{
		knowledge:     ks,
		conversations: cs,
		model:         model,
		transcriber:   transcriber,
		persona:       persona,
		llmTimeout:    30 * time.Second,
		sttTimeout:    60 * time.Second,
		voiceLanguage: "hi",
		corrector:     transcript.NewTermCorrector(nil),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// StartConversation creates a new conversation for userID (empty for
// anonymous callers) and posts the welcome message as its first AI turn.
func (s *Service) StartConversation(ctx context.Context, userID string) (conversation.Conversation, conversation.Turn, error) {
	conv, err := s.conversations.CreateConversation(ctx, conversation.Conversation{UserID: userID})
	if err != nil {
		return conversation.Conversation{}, conversation.Turn{}, fmt.Errorf("chat: start conversation: %w", err)
	}

	welcome, err := s.conversations.AddTurn(ctx, conversation.Turn{
		ConversationID: conv.ID,
		Type:           conversation.TurnAI,
		Content:        welcomeMessage,
	})
	if err != nil {
		return conversation.Conversation{}, conversation.Turn{}, fmt.Errorf("chat: welcome turn: %w", err)
	}
	conv.MessageCount++

	return conv, welcome, nil
}

// Get returns the conversation for sessionID.
func (s *Service) Get(ctx context.Context, sessionID uuid.UUID) (conversation.Conversation, error) {
	return s.lookup(ctx, sessionID)
}

// Messages returns every turn of the conversation, oldest first.
func (s *Service) Messages(ctx context.Context, sessionID uuid.UUID) ([]conversation.Turn, error) {
	conv, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	turns, err := s.conversations.Turns(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("chat: list messages: %w", err)
	}
	return turns, nil
}

// End marks the conversation ended. Ending twice is a no-op.
func (s *Service) End(ctx context.Context, sessionID uuid.UUID) (conversation.Conversation, error) {
	conv, err := s.lookup(ctx, sessionID)
	if err != nil {
		return conversation.Conversation{}, err
	}
	ended, err := s.conversations.End(ctx, conv.ID)
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("chat: end conversation: %w", err)
	}
	return ended, nil
}

// Respond runs the text pipeline for one user message and returns the
// persisted exchange. A blank message yields [ErrInvalidInput]; a failing
// model call yields a fallback reply with zero confidence, not an error.
func (s *Service) Respond(ctx context.Context, sessionID uuid.UUID, message string) (*Exchange, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: empty message", ErrInvalidInput)
	}
	conv, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, conv, message, nil)
}

// RespondVoice transcribes audio, cleans the transcript, and runs the text
// pipeline on the result. The persisted user turn carries the transcription
// confidence and audio duration.
func (s *Service) RespondVoice(ctx context.Context, sessionID uuid.UUID, audio []byte) (*VoiceExchange, error) {
	if s.transcriber == nil {
		return nil, fmt.Errorf("%w: voice input is not configured", ErrInvalidInput)
	}
	if len(audio) < minAudioBytes {
		return nil, fmt.Errorf("%w: audio payload of %d bytes is too small", ErrInvalidInput, len(audio))
	}
	conv, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	tctx, cancel := context.WithTimeout(ctx, s.sttTimeout)
	defer cancel()
	result, err := s.transcriber.Transcribe(tctx, audio)
	if err != nil {
		return nil, fmt.Errorf("chat: transcribe: %w: %w", ErrUpstreamFailure, err)
	}

	cleaned := transcript.Clean(result.Text)
	if strings.TrimSpace(cleaned) == "" {
		return nil, ErrNoSpeechDetected
	}
	cleaned, fixes := s.corrector.Correct(cleaned)
	if len(fixes) > 0 {
		slog.Debug("chat: corrected transcript vocabulary", "count", len(fixes))
	}
	conf := confidence.Transcription(cleaned, result.Text)

	ex, err := s.respond(ctx, conv, cleaned, &conversation.VoiceMetadata{
		Confidence:      conf,
		DurationSeconds: result.DurationSeconds,
		Language:        s.voiceLanguage,
	})
	if err != nil {
		return nil, err
	}

	return &VoiceExchange{
		Exchange:             *ex,
		Transcript:           cleaned,
		TranscriptConfidence: conf,
		DurationSeconds:      result.DurationSeconds,
	}, nil
}

// respond saves the user turn, gathers knowledge and history concurrently,
// completes the prompt, and saves the reply turn.
func (s *Service) respond(ctx context.Context, conv conversation.Conversation, message string, voice *conversation.VoiceMetadata) (*Exchange, error) {
	start := time.Now()

	userTurn, err := s.conversations.AddTurn(ctx, conversation.Turn{
		ConversationID: conv.ID,
		Type:           conversation.TurnUser,
		Content:        message,
		Voice:          voice,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: save user turn: %w", err)
	}

	var (
		matches []knowledge.Entry
		pinned  = make([][]knowledge.Entry, len(pinnedCategories))
		history []conversation.Turn
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		res, err := s.knowledge.Search(egCtx, message)
		if err != nil {
			return fmt.Errorf("search knowledge: %w", err)
		}
		matches = res
		return nil
	})
	for i, category := range pinnedCategories {
		eg.Go(func() error {
			res, err := s.knowledge.List(egCtx, knowledge.ListOptions{Category: category})
			if err != nil {
				return fmt.Errorf("list %q entries: %w", category, err)
			}
			pinned[i] = res
			return nil
		})
	}
	eg.Go(func() error {
		res, err := s.conversations.RecentTurns(egCtx, conv.ID, historyWindow)
		if err != nil {
			return fmt.Errorf("recent turns: %w", err)
		}
		history = res
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}

	// Query matches rank first; the assembler deduplicates and caps.
	entries := matches
	for _, p := range pinned {
		entries = append(entries, p...)
	}
	payload := s.persona.Assemble(message, entries, history)

	cctx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()
	resp, err := s.model.Complete(cctx, llm.Request{
		System:      payload.System,
		User:        payload.User,
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	})

	var reply Reply
	if err != nil || resp == nil {
		slog.Warn("chat: completion failed, sending fallback reply",
			"session", conv.SessionID, "err", errors.Join(ErrUpstreamFailure, err))
		reply.Message = fallbackReplyMessage
	} else {
		reply.Message = resp.Text
		if strings.TrimSpace(reply.Message) == "" {
			reply.Message = emptyReplyMessage
		}
		reply.Confidence = confidence.FromFinishReason(resp.FinishReason)
		for _, e := range matches[:min(len(matches), maxSources)] {
			reply.Sources = append(reply.Sources, e.Question)
		}
	}
	reply.ResponseTimeMS = int(time.Since(start).Milliseconds())

	aiTurn, err := s.conversations.AddTurn(ctx, conversation.Turn{
		ConversationID: conv.ID,
		Type:           conversation.TurnAI,
		Content:        reply.Message,
		ResponseTimeMS: reply.ResponseTimeMS,
		Attribution: &conversation.Attribution{
			Sources:    reply.Sources,
			Confidence: reply.Confidence,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat: save reply turn: %w", err)
	}

	return &Exchange{UserTurn: userTurn, AITurn: aiTurn, Reply: reply}, nil
}

// Analytics aggregates per-conversation statistics over all turns.
func (s *Service) Analytics(ctx context.Context, sessionID uuid.UUID) (*Analytics, error) {
	conv, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	turns, err := s.conversations.Turns(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("chat: analytics: %w", err)
	}

	a := &Analytics{MessageCount: conv.MessageCount}
	var (
		responseTotal, responseCount int
		voiceTotal                   float64
	)
	for _, t := range turns {
		switch t.Type {
		case conversation.TurnUser:
			a.UserMessages++
		case conversation.TurnAI:
			a.AIMessages++
		}
		if t.ResponseTimeMS > 0 {
			responseTotal += t.ResponseTimeMS
			responseCount++
		}
		if t.Voice != nil {
			a.VoiceMessages++
			voiceTotal += t.Voice.Confidence
		}
	}
	if responseCount > 0 {
		a.AvgResponseTimeMS = int(math.Round(float64(responseTotal) / float64(responseCount)))
	}
	if a.VoiceMessages > 0 {
		a.VoiceQuality = math.Round(voiceTotal/float64(a.VoiceMessages)*100) / 100
	}

	end := time.Now()
	if conv.EndTime != nil {
		end = *conv.EndTime
	}
	a.SessionDurationSeconds = int(end.Sub(conv.StartTime).Seconds())

	return a, nil
}

func (s *Service) lookup(ctx context.Context, sessionID uuid.UUID) (conversation.Conversation, error) {
	conv, err := s.conversations.GetBySession(ctx, sessionID)
	if errors.Is(err, conversation.ErrNotFound) {
		return conversation.Conversation{}, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("chat: lookup session: %w", err)
	}
	return conv, nil
}
