// Command veena is the main entry point for the Veena insurance assistant server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"go.opentelemetry.io/otel"

	"github.com/valuenable/veena/internal/app"
	"github.com/valuenable/veena/internal/config"
	"github.com/valuenable/veena/internal/observe"
	"github.com/valuenable/veena/internal/resilience"
	"github.com/valuenable/veena/pkg/provider/llm"
	"github.com/valuenable/veena/pkg/provider/llm/anyllm"
	"github.com/valuenable/veena/pkg/provider/llm/openai"
	"github.com/valuenable/veena/pkg/provider/stt"
	"github.com/valuenable/veena/pkg/provider/stt/openaiwhisper"
	"github.com/valuenable/veena/pkg/provider/stt/whispercpp"
	"github.com/valuenable/veena/pkg/provider/tts"
	"github.com/valuenable/veena/pkg/provider/tts/elevenlabs"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Load a .env file if present so ${VAR} references in the config resolve.
	_ = godotenv.Load()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "veena: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "veena: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	logger := newLogger(cfg.Server.LogLevel, level)
	slog.SetDefault(logger)

	slog.Info("veena starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"storage", cfg.Storage.Backend,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "veena",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg, cfg)

	// ── Instantiate providers ─────────────────────────────────────────────────
	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	application, err := app.New(ctx, cfg, providers, app.WithMetrics(metrics))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(diff config.ConfigDiff, _ *config.Config) {
		application.ApplyConfig(diff, level)
	})
	if err != nil {
		slog.Warn("config hot reload disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the appropriate
// provider from the real implementation packages. cfg supplies assistant-level
// settings (voice, language) that providers need at construction time.
func registerBuiltinProviders(reg *config.Registry, cfg *config.Config) {
	// ── LLM ───────────────────────────────────────────────────────────────────

	// openai uses the native SDK client for JSON-mode support.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	// The remaining cloud backends go through any-llm-go: optional APIKey +
	// optional BaseURL.
	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// Local inference servers use BaseURL for the address, not an API key.
	for _, providerName := range []string{"ollama", "llamacpp", "llamafile"} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []openaiwhisper.Option
		if entry.BaseURL != "" {
			opts = append(opts, openaiwhisper.WithBaseURL(entry.BaseURL))
		}
		if entry.Model != "" {
			opts = append(opts, openaiwhisper.WithModel(entry.Model))
		}
		if lang := providerLanguage(entry, cfg); lang != "" {
			opts = append(opts, openaiwhisper.WithLanguage(lang))
		}
		return openaiwhisper.New(entry.APIKey, opts...)
	})

	reg.RegisterSTT("whispercpp", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whispercpp.Option
		if entry.Model != "" {
			opts = append(opts, whispercpp.WithModel(entry.Model))
		}
		if lang := providerLanguage(entry, cfg); lang != "" {
			opts = append(opts, whispercpp.WithLanguage(lang))
		}
		return whispercpp.New(entry.BaseURL, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		voiceID := cfg.Assistant.Voice.VoiceID
		if voiceID == "" {
			voiceID = optString(entry.Options, "voice_id")
		}
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if outputFmt := optString(entry.Options, "output_format"); outputFmt != "" {
			opts = append(opts, elevenlabs.WithOutputFormat(outputFmt))
		}
		if entry.BaseURL != "" {
			opts = append(opts, elevenlabs.WithBaseURL(entry.BaseURL))
		}
		if cfg.Assistant.Voice.SpeedFactor != 0 {
			opts = append(opts, elevenlabs.WithSpeed(cfg.Assistant.Voice.SpeedFactor))
		}
		return elevenlabs.New(entry.APIKey, voiceID, opts...)
	})
}

// providerLanguage resolves the transcription language hint for an STT entry:
// a per-provider "language" option wins, then the assistant-wide voice language.
func providerLanguage(entry config.ProviderEntry, cfg *config.Config) string {
	if lang := optString(entry.Options, "language"); lang != "" {
		return lang
	}
	return cfg.Assistant.VoiceLanguage
}

// buildProviders instantiates the providers named in cfg using the registry,
// wraps each in a circuit-breaking fallback chain when fallbacks are
// configured, and returns them in an [app.Providers] struct.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}
	fbCfg := resilience.FallbackConfig{}

	if name := cfg.Providers.LLM.Name; name != "" {
		p, err := reg.CreateLLM(cfg.Providers.LLM)
		if err != nil {
			return nil, fmt.Errorf("create llm provider %q: %w", name, err)
		}
		if fallbacks := cfg.Providers.LLMFallbacks; len(fallbacks) > 0 {
			fb := resilience.NewLLMFallback(p, name, fbCfg)
			for _, entry := range fallbacks {
				alt, err := reg.CreateLLM(entry)
				if err != nil {
					return nil, fmt.Errorf("create llm fallback %q: %w", entry.Name, err)
				}
				fb.AddFallback(entry.Name, alt)
			}
			ps.LLM = fb
		} else {
			ps.LLM = p
		}
		slog.Info("provider created", "kind", "llm", "name", name, "fallbacks", len(cfg.Providers.LLMFallbacks))
	}

	if name := cfg.Providers.STT.Name; name != "" {
		p, err := reg.CreateSTT(cfg.Providers.STT)
		if err != nil {
			return nil, fmt.Errorf("create stt provider %q: %w", name, err)
		}
		if fallbacks := cfg.Providers.STTFallbacks; len(fallbacks) > 0 {
			fb := resilience.NewSTTFallback(p, name, fbCfg)
			for _, entry := range fallbacks {
				alt, err := reg.CreateSTT(entry)
				if err != nil {
					return nil, fmt.Errorf("create stt fallback %q: %w", entry.Name, err)
				}
				fb.AddFallback(entry.Name, alt)
			}
			ps.STT = fb
		} else {
			ps.STT = p
		}
		slog.Info("provider created", "kind", "stt", "name", name, "fallbacks", len(cfg.Providers.STTFallbacks))
	}

	if name := cfg.Providers.TTS.Name; name != "" {
		p, err := reg.CreateTTS(cfg.Providers.TTS)
		if err != nil {
			return nil, fmt.Errorf("create tts provider %q: %w", name, err)
		}
		if fallbacks := cfg.Providers.TTSFallbacks; len(fallbacks) > 0 {
			fb := resilience.NewTTSFallback(p, name, fbCfg)
			for _, entry := range fallbacks {
				alt, err := reg.CreateTTS(entry)
				if err != nil {
					return nil, fmt.Errorf("create tts fallback %q: %w", entry.Name, err)
				}
				fb.AddFallback(entry.Name, alt)
			}
			ps.TTS = fb
		} else {
			ps.TTS = p
		}
		slog.Info("provider created", "kind", "tts", "name", name, "fallbacks", len(cfg.Providers.TTSFallbacks))
	}

	return ps, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║           Veena — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("LLM", cfg.Providers.LLM.Name, cfg.Providers.LLM.Model)
	printProvider("STT", cfg.Providers.STT.Name, cfg.Providers.STT.Model)
	printProvider("TTS", cfg.Providers.TTS.Name, cfg.Providers.TTS.Model)
	storage := string(cfg.Storage.Backend)
	if storage == "" {
		storage = "mem"
	}
	fmt.Printf("║  Storage         : %-19s ║\n", storage)
	if cfg.Assistant.IdleTimeout > 0 {
		fmt.Printf("║  Idle timeout    : %-19s ║\n", cfg.Assistant.IdleTimeout)
	}
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

// newLogger builds the default text logger. The level variable is shared with
// the config hot-reload path so log level changes apply without a restart.
func newLogger(level config.LogLevel, lvl *slog.LevelVar) *slog.Logger {
	switch level {
	case config.LogDebug:
		lvl.Set(slog.LevelDebug)
	case config.LogWarn:
		lvl.Set(slog.LevelWarn)
	case config.LogError:
		lvl.Set(slog.LevelError)
	default:
		lvl.Set(slog.LevelInfo)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
