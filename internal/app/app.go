// Package app wires all Veena subsystems into a running server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithKnowledgeStore, WithConversationStore, etc.). When an option is not
// provided, New creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/valuenable/veena/internal/chat"
	"github.com/valuenable/veena/internal/config"
	"github.com/valuenable/veena/internal/conversation"
	"github.com/valuenable/veena/internal/health"
	"github.com/valuenable/veena/internal/httpapi"
	"github.com/valuenable/veena/internal/knowledge"
	"github.com/valuenable/veena/internal/observe"
	"github.com/valuenable/veena/internal/prompt"
	"github.com/valuenable/veena/internal/training"
	"github.com/valuenable/veena/pkg/provider/llm"
	"github.com/valuenable/veena/pkg/provider/stt"
	"github.com/valuenable/veena/pkg/provider/tts"
)

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config registry,
// already wrapped in fallback chains where fallbacks are configured.
type Providers struct {
	LLM llm.Provider
	STT stt.Provider
	TTS tts.Provider
}

// App owns all subsystem lifetimes and serves the assistant API.
type App struct {
	cfg       *config.Config
	providers *Providers

	knowledge     knowledge.Store
	conversations conversation.Store
	transcripts   training.Store
	persona       *prompt.Persona
	chat          *chat.Service
	training      *training.Service
	metrics       *observe.Metrics
	reaper        *Reaper
	server        *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithKnowledgeStore injects a knowledge store instead of creating one from config.
func WithKnowledgeStore(s knowledge.Store) Option {
	return func(a *App) { a.knowledge = s }
}

// WithConversationStore injects a conversation store instead of creating one from config.
func WithConversationStore(s conversation.Store) Option {
	return func(a *App) { a.conversations = s }
}

// WithTranscriptStore injects a training transcript store instead of the
// default in-memory one.
func WithTranscriptStore(s training.Store) Option {
	return func(a *App) { a.transcripts = s }
}

// WithMetrics injects a metrics recorder. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option functions
// to inject test doubles for any subsystem.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if err := a.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("app: init storage: %w", err)
	}

	if err := knowledge.Seed(ctx, a.knowledge); err != nil {
		return nil, fmt.Errorf("app: seed knowledge base: %w", err)
	}

	a.persona = prompt.NewPersona()
	a.initServices()
	a.initServer()

	if idle := time.Duration(cfg.Assistant.IdleTimeout); idle > 0 {
		a.reaper = NewReaper(a.conversations, idle, a.metrics)
	}

	return a, nil
}

// initStorage sets up the configured persistence backend or uses injected stores.
func (a *App) initStorage(ctx context.Context) error {
	backend := a.cfg.Storage.Backend
	if backend == "" {
		backend = config.StorageMem
	}

	switch backend {
	case config.StorageMem:
		if a.knowledge == nil {
			a.knowledge = knowledge.NewMemStore()
		}
		if a.conversations == nil {
			a.conversations = conversation.NewMemStore()
		}

	case config.StoragePostgres:
		if a.knowledge == nil {
			ks, err := knowledge.NewPostgresStore(ctx, a.cfg.Storage.PostgresDSN)
			if err != nil {
				return fmt.Errorf("connect knowledge store: %w", err)
			}
			a.knowledge = ks
			a.closers = append(a.closers, func() error {
				ks.Close()
				return nil
			})
		}
		if a.conversations == nil {
			cs, err := conversation.NewPostgresStore(ctx, a.cfg.Storage.PostgresDSN)
			if err != nil {
				return fmt.Errorf("connect conversation store: %w", err)
			}
			a.conversations = cs
			a.closers = append(a.closers, func() error {
				cs.Close()
				return nil
			})
		}

	default:
		return fmt.Errorf("unknown storage backend %q", backend)
	}

	return nil
}

// initServices builds the chat and training services on top of the stores.
func (a *App) initServices() {
	var chatOpts []chat.Option
	if a.cfg.Assistant.VoiceLanguage != "" {
		chatOpts = append(chatOpts, chat.WithVoiceLanguage(a.cfg.Assistant.VoiceLanguage))
	}
	a.chat = chat.New(a.knowledge, a.conversations, a.providers.LLM, a.providers.STT, a.persona, chatOpts...)

	if a.transcripts == nil {
		a.transcripts = training.NewMemStore()
	}
	var trainOpts []training.Option
	if a.cfg.Training.SimilarityThreshold > 0 {
		trainOpts = append(trainOpts, training.WithSimilarityThreshold(a.cfg.Training.SimilarityThreshold))
	}
	a.training = training.New(a.transcripts, a.providers.LLM, a.persona, trainOpts...)
}

// healthReporter is implemented by the resilience fallback wrappers; a
// provider whose circuit breakers are all open fails readiness.
type healthReporter interface {
	Healthy() error
}

// initServer builds the HTTP API server around the services.
func (a *App) initServer() {
	checkers := []health.Checker{
		{
			Name: "knowledge",
			Check: func(ctx context.Context) error {
				_, err := a.knowledge.Count(ctx)
				return err
			},
		},
	}
	for name, p := range map[string]any{
		"llm": a.providers.LLM,
		"stt": a.providers.STT,
		"tts": a.providers.TTS,
	} {
		if hr, ok := p.(healthReporter); ok {
			checkers = append(checkers, health.Checker{
				Name:  name,
				Check: func(context.Context) error { return hr.Healthy() },
			})
		}
	}

	apiOpts := []httpapi.Option{
		httpapi.WithTraining(a.training),
		httpapi.WithMetrics(a.metrics),
		httpapi.WithHealth(health.New(checkers...)),
	}
	if a.providers.TTS != nil {
		apiOpts = append(apiOpts, httpapi.WithSpeech(a.providers.TTS))
	}
	api := httpapi.New(a.chat, a.knowledge, apiOpts...)

	addr := a.cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	a.server = &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Chat exposes the chat service, mainly for tests and operator tooling.
func (a *App) Chat() *chat.Service { return a.chat }

// Handler returns the HTTP handler the app serves. Useful for tests that
// want to exercise the API without binding a port.
func (a *App) Handler() http.Handler { return a.server.Handler }

// Run serves the HTTP API and blocks until ctx is cancelled or the server
// fails. When ctx is done, Run returns ctx.Err(); call Shutdown to stop the
// server gracefully.
func (a *App) Run(ctx context.Context) error {
	if a.reaper != nil {
		a.reaper.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.server.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.Info("app running", "addr", a.server.Addr, "storage", a.cfg.Storage.Backend)

	select {
	case err := <-errCh:
		return fmt.Errorf("app: serve: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ApplyConfig applies hot-reloadable changes from a config diff. Provider
// and storage changes are ignored; they require a restart.
func (a *App) ApplyConfig(d config.ConfigDiff, level *slog.LevelVar) {
	if d.LogLevelChanged && level != nil {
		level.Set(slogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.VoiceLanguageChanged {
		slog.Warn("assistant.voice_language changed; restart to apply")
	}
}

// slogLevel maps a config log level onto slog's scale.
func slogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Shutdown tears down all subsystems in reverse-init order. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if err := a.server.Shutdown(ctx); err != nil {
			slog.Warn("http server shutdown error", "err", err)
		}
		if a.reaper != nil {
			a.reaper.Stop()
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
