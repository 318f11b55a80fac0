package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/valuenable/veena/internal/config"
)

const watcherBaseYAML = `
server:
  log_level: info
providers:
  llm:
    name: openai
  stt:
    name: whisper
  tts:
    name: elevenlabs
storage:
  backend: mem
assistant:
  voice_language: hi
`

// Same config with the log level raised and the transcription language
// switched, both hot-reloadable.
const watcherHotEditYAML = `
server:
  log_level: debug
providers:
  llm:
    name: openai
  stt:
    name: whisper
  tts:
    name: elevenlabs
storage:
  backend: mem
assistant:
  voice_language: en
`

// Same config with only the storage backend changed, which requires a
// restart and must not trigger the reload callback.
const watcherRestartEditYAML = `
server:
  log_level: info
providers:
  llm:
    name: openai
  stt:
    name: whisper
  tts:
    name: elevenlabs
storage:
  backend: postgres
  postgres_dsn: postgres://veena@localhost/veena
assistant:
  voice_language: hi
`

const watcherInvalidYAML = `
server:
  log_level: bananas
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %q: %v", path, err)
	}
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeFile(t, cfgPath, watcherBaseYAML)

	w, err := config.NewWatcher(cfgPath, nil, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.Stop()

	cfg := w.Current()
	if cfg == nil {
		t.Fatal("Current() returned nil after initial load")
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("log_level: got %q, want %q", cfg.Server.LogLevel, config.LogInfo)
	}
}

func TestWatcher_HotEditDeliversDiff(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeFile(t, cfgPath, watcherBaseYAML)

	var mu sync.Mutex
	var gotDiff config.ConfigDiff
	var gotNext *config.Config
	reloaded := make(chan struct{}, 1)

	w, err := config.NewWatcher(cfgPath, func(diff config.ConfigDiff, next *config.Config) {
		mu.Lock()
		gotDiff = diff
		gotNext = next
		mu.Unlock()
		select {
		case reloaded <- struct{}{}:
		default:
		}
	}, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.Stop()

	// Give the first poll a moment, then apply the hot edit.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, cfgPath, watcherHotEditYAML)

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("reload callback was not invoked within timeout")
	}

	mu.Lock()
	defer mu.Unlock()

	if !gotDiff.LogLevelChanged || gotDiff.NewLogLevel != config.LogDebug {
		t.Errorf("diff log level = %+v, want change to debug", gotDiff)
	}
	if !gotDiff.VoiceLanguageChanged || gotDiff.NewVoiceLanguage != "en" {
		t.Errorf("diff voice language = %+v, want change to en", gotDiff)
	}
	if gotNext == nil || gotNext.Server.LogLevel != config.LogDebug {
		t.Error("callback did not receive the new config")
	}

	if cur := w.Current(); cur.Server.LogLevel != config.LogDebug {
		t.Errorf("Current() log_level: got %q, want %q", cur.Server.LogLevel, config.LogDebug)
	}
}

func TestWatcher_RestartBoundEditIsSilent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeFile(t, cfgPath, watcherBaseYAML)

	callCount := 0
	var mu sync.Mutex

	w, err := config.NewWatcher(cfgPath, func(config.ConfigDiff, *config.Config) {
		mu.Lock()
		callCount++
		mu.Unlock()
	}, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, cfgPath, watcherRestartEditYAML)
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	calls := callCount
	mu.Unlock()
	if calls != 0 {
		t.Errorf("restart-bound edit triggered %d reload callbacks, want 0", calls)
	}

	// The new content is still visible through Current().
	if cur := w.Current(); cur.Storage.Backend != config.StoragePostgres {
		t.Errorf("Current() backend = %q, want postgres", cur.Storage.Backend)
	}
}

func TestWatcher_InvalidEditKeepsOldConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeFile(t, cfgPath, watcherBaseYAML)

	callCount := 0
	var mu sync.Mutex

	w, err := config.NewWatcher(cfgPath, func(config.ConfigDiff, *config.Config) {
		mu.Lock()
		callCount++
		mu.Unlock()
	}, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, cfgPath, watcherInvalidYAML)
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	calls := callCount
	mu.Unlock()
	if calls != 0 {
		t.Errorf("invalid edit triggered %d reload callbacks, want 0", calls)
	}

	if cur := w.Current(); cur.Server.LogLevel != config.LogInfo {
		t.Errorf("Current() should keep the last valid config, got log_level=%q", cur.Server.LogLevel)
	}
}

func TestWatcher_InitialLoadFails(t *testing.T) {
	t.Parallel()
	if _, err := config.NewWatcher("/nonexistent/path.yaml", nil); err == nil {
		t.Fatal("expected error for non-existent file, got nil")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeFile(t, cfgPath, watcherBaseYAML)

	w, err := config.NewWatcher(cfgPath, nil, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w.Stop()
	w.Stop()
	w.Stop()
}

func TestWatcher_TouchWithoutContentChange(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeFile(t, cfgPath, watcherBaseYAML)

	callCount := 0
	var mu sync.Mutex

	w, err := config.NewWatcher(cfgPath, func(config.ConfigDiff, *config.Config) {
		mu.Lock()
		callCount++
		mu.Unlock()
	}, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.Stop()

	// Rewrite the same content so only the mtime moves.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, cfgPath, watcherBaseYAML)
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	calls := callCount
	mu.Unlock()
	if calls != 0 {
		t.Errorf("touch triggered %d reload callbacks, want 0", calls)
	}
}
