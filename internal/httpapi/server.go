// Package httpapi exposes the assistant over REST and websocket endpoints.
//
// All JSON payloads use camelCase field names. Errors are returned as
// {"error": "..."} with a meaningful status code; service sentinel errors
// map to 400/404/422, everything else to 500.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/valuenable/veena/internal/chat"
	"github.com/valuenable/veena/internal/health"
	"github.com/valuenable/veena/internal/knowledge"
	"github.com/valuenable/veena/internal/observe"
	"github.com/valuenable/veena/internal/training"
	"github.com/valuenable/veena/pkg/provider/tts"
)

// Server bundles the HTTP handlers for the assistant API.
// Construct it with [New] and mount the result of [Server.Handler].
type Server struct {
	chat      *chat.Service
	knowledge knowledge.Store
	training  *training.Service
	speech    tts.Provider
	metrics   *observe.Metrics
	health    *health.Handler
}

// Option configures a [Server].
type Option func(*Server)

// WithTraining enables the training transcript endpoint.
func WithTraining(svc *training.Service) Option {
	return func(s *Server) { s.training = svc }
}

// WithSpeech enables the voice reply and voice listing endpoints.
// Without it those endpoints answer 503.
func WithSpeech(p tts.Provider) Option {
	return func(s *Server) { s.speech = p }
}

// WithMetrics sets the metrics recorder. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHealth sets the health check handler backing /healthz and /readyz.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// New creates a Server for the given chat service and knowledge store.
func New(chatSvc *chat.Service, ks knowledge.Store, opts ...Option) *Server {
	s := &Server{
		chat:      chatSvc,
		knowledge: ks,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.health == nil {
		s.health = health.New()
	}
	return s
}

// Handler returns the fully routed HTTP handler, including the
// observability middleware.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/conversations", s.createConversation).Methods(http.MethodPost)
	r.HandleFunc("/api/conversations/{sessionID}", s.getConversation).Methods(http.MethodGet)
	r.HandleFunc("/api/conversations/{sessionID}/messages", s.listMessages).Methods(http.MethodGet)
	r.HandleFunc("/api/conversations/{sessionID}/messages", s.postMessage).Methods(http.MethodPost)
	r.HandleFunc("/api/conversations/{sessionID}/voice", s.postVoice).Methods(http.MethodPost)
	r.HandleFunc("/api/conversations/{sessionID}/voice/reply", s.voiceReply).Methods(http.MethodPost)
	r.HandleFunc("/api/conversations/{sessionID}/analytics", s.getAnalytics).Methods(http.MethodGet)
	r.HandleFunc("/api/conversations/{sessionID}/end", s.endConversation).Methods(http.MethodPut)
	r.HandleFunc("/api/conversations/{sessionID}/stream", s.stream).Methods(http.MethodGet)
	r.HandleFunc("/api/knowledge-base", s.listKnowledge).Methods(http.MethodGet)
	r.HandleFunc("/api/voices", s.listVoices).Methods(http.MethodGet)
	r.HandleFunc("/api/training/transcripts", s.postTranscript).Methods(http.MethodPost)

	r.HandleFunc("/healthz", s.health.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.health.Readyz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return observe.Middleware(s.metrics)(r)
}
