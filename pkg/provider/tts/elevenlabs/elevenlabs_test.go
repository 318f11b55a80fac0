package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New("", "voice-1"); err == nil {
		t.Error("expected error for empty apiKey")
	}
	if _, err := New("key", ""); err == nil {
		t.Error("expected error for empty voiceID")
	}
}

func TestSynthesize(t *testing.T) {
	t.Parallel()

	audio := []byte{0x49, 0x44, 0x33, 0x04} // ID3 header bytes
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-speech/voice-1" {
			t.Errorf("got path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("output_format"); got != "mp3_44100_128" {
			t.Errorf("got output_format %q", got)
		}
		if got := r.Header.Get("xi-api-key"); got != "key" {
			t.Errorf("got xi-api-key %q", got)
		}

		body, _ := io.ReadAll(r.Body)
		var req synthesisRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		if req.Text != "Hello, how can I help you today?" {
			t.Errorf("got text %q", req.Text)
		}
		if req.ModelID != "eleven_flash_v2_5" {
			t.Errorf("got model %q", req.ModelID)
		}
		if req.VoiceSettings == nil || req.VoiceSettings.Stability != 0.5 || req.VoiceSettings.SimilarityBoost != 0.75 {
			t.Errorf("got voice settings %+v", req.VoiceSettings)
		}

		w.Write(audio)
	}))
	defer srv.Close()

	p, err := New("key", "voice-1", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.Synthesize(context.Background(), "Hello, how can I help you today?")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, audio) {
		t.Errorf("got %v, want %v", got, audio)
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	t.Parallel()

	p, err := New("key", "voice-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Synthesize(context.Background(), ""); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestSynthesizeServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := New("key", "voice-1", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Synthesize(context.Background(), "hello"); err == nil {
		t.Error("expected error for HTTP 429")
	}
}

func TestListVoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices" {
			t.Errorf("got path %q", r.URL.Path)
		}
		io.WriteString(w, `{
			"voices": [
				{"voice_id": "v1", "name": "Rachel", "category": "premade", "labels": {"gender": "female"}},
				{"voice_id": "v2", "name": "Adam", "category": "premade", "labels": {"gender": "male"}}
			]
		}`)
	}))
	defer srv.Close()

	p, err := New("key", "voice-1", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	voices, err := p.ListVoices(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(voices) != 2 {
		t.Fatalf("got %d voices, want 2", len(voices))
	}
	if voices[0].ID != "v1" || voices[0].Name != "Rachel" {
		t.Errorf("got first voice %+v", voices[0])
	}
	if voices[0].Metadata["gender"] != "female" || voices[0].Metadata["category"] != "premade" {
		t.Errorf("got metadata %v", voices[0].Metadata)
	}
}
