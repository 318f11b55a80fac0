// Package elevenlabs provides an ElevenLabs-backed TTS provider using the
// ElevenLabs HTTP synthesis API. It implements the tts.Provider interface.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/valuenable/veena/pkg/provider/tts"
)

const (
	defaultBaseURL   = "https://api.elevenlabs.io/v1"
	defaultModel     = "eleven_flash_v2_5"
	defaultOutputFmt = "mp3_44100_128"
)

// Compile-time assertion that Provider implements tts.Provider.
var _ tts.Provider = (*Provider)(nil)

// Option is a functional option for configuring the ElevenLabs Provider.
type Option func(*Provider)

// WithModel sets the ElevenLabs model ID (e.g., "eleven_flash_v2_5").
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithOutputFormat sets the audio output format (e.g., "mp3_44100_128",
// "pcm_16000").
func WithOutputFormat(format string) Option {
	return func(p *Provider) {
		p.outputFormat = format
	}
}

// WithBaseURL overrides the default API base URL. Used in tests.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = url
	}
}

// WithSpeed sets the speaking rate, in the range [0.5, 2.0] supported by the
// ElevenLabs API. Zero leaves the voice's default rate.
func WithSpeed(speed float64) Option {
	return func(p *Provider) {
		p.speed = speed
	}
}

// Provider implements tts.Provider backed by the ElevenLabs API.
type Provider struct {
	apiKey       string
	voiceID      string
	baseURL      string
	model        string
	outputFormat string
	speed        float64
	httpClient   *http.Client
}

// New creates a new ElevenLabs Provider synthesising with voiceID. apiKey and
// voiceID must be non-empty.
func New(apiKey, voiceID string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("elevenlabs: apiKey must not be empty")
	}
	if voiceID == "" {
		return nil, errors.New("elevenlabs: voiceID must not be empty")
	}
	p := &Provider{
		apiKey:       apiKey,
		voiceID:      voiceID,
		baseURL:      defaultBaseURL,
		model:        defaultModel,
		outputFormat: defaultOutputFmt,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// voiceSettings mirrors the ElevenLabs voice_settings object.
type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed,omitempty"`
}

// synthesisRequest is the JSON payload for POST /text-to-speech/{voice}.
type synthesisRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, errors.New("elevenlabs: text must not be empty")
	}

	payload, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: p.model,
		VoiceSettings: &voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Speed:           p.speed,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", p.baseURL, p.voiceID, p.outputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs: server returned HTTP %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read audio: %w", err)
	}
	return audio, nil
}

// voicesResponse is the top-level response from GET /voices.
type voicesResponse struct {
	Voices []elevenLabsVoice `json:"voices"`
}

// elevenLabsVoice is a single voice entry from the ElevenLabs API.
type elevenLabsVoice struct {
	VoiceID  string            `json:"voice_id"`
	Name     string            `json:"name"`
	Category string            `json:"category"`
	Labels   map[string]string `json:"labels"`
}

// ListVoices returns all voices available for the configured API key.
func (p *Provider) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices HTTP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs: list voices: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices read: %w", err)
	}
	return parseVoicesResponse(data)
}

// parseVoicesResponse parses a raw JSON byte slice (matching the ElevenLabs
// /voices response) into a slice of Voice values.
func parseVoicesResponse(data []byte) ([]tts.Voice, error) {
	var vr voicesResponse
	if err := json.Unmarshal(data, &vr); err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices decode: %w", err)
	}
	voices := make([]tts.Voice, 0, len(vr.Voices))
	for _, v := range vr.Voices {
		meta := make(map[string]string, len(v.Labels)+1)
		for k, val := range v.Labels {
			meta[k] = val
		}
		if v.Category != "" {
			meta["category"] = v.Category
		}
		voices = append(voices, tts.Voice{
			ID:       v.VoiceID,
			Name:     v.Name,
			Metadata: meta,
		})
	}
	return voices, nil
}
