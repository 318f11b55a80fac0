// Package openaiwhisper provides an STT provider backed by the OpenAI
// Whisper transcription API.
//
// Recordings are submitted whole as multipart uploads with verbose_json
// output, which carries the audio duration alongside the text. Temperature is
// pinned to 0.0 for maximum accuracy, and a transcription prompt hints the
// model towards multilingual insurance-call content.
package openaiwhisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/valuenable/veena/pkg/provider/stt"
)

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

const (
	defaultBaseURL  = "https://api.openai.com/v1"
	defaultModel    = "whisper-1"
	defaultLanguage = "hi"

	// transcriptionPrompt steers Whisper towards full-call transcription
	// across the languages customers actually speak.
	transcriptionPrompt = "This is a complete insurance call recording between a customer and agent. Please transcribe the entire conversation including all customer questions, agent responses, policy details, premium discussions, and conversation flow from beginning to end. Include all Hindi, English, Marathi, and Gujarati content."
)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = url
	}
}

// WithModel overrides the default "whisper-1" model.
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithLanguage sets the primary language hint. Defaults to "hi"; Whisper
// still picks up the other languages present in the recording.
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		p.language = lang
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 60 seconds;
// long recordings take a while to transcribe.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// Provider implements stt.Provider using the OpenAI transcription API.
type Provider struct {
	apiKey     string
	baseURL    string
	model      string
	language   string
	httpClient *http.Client
}

// New creates a Provider authenticated with apiKey.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openaiwhisper: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(ctx context.Context, audio []byte) (*stt.Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("openaiwhisper: create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, fmt.Errorf("openaiwhisper: write audio data: %w", err)
	}

	fields := map[string]string{
		"model":           p.model,
		"response_format": "verbose_json",
		"temperature":     "0.0",
		"language":        p.language,
		"prompt":          transcriptionPrompt,
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("openaiwhisper: write %s field: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("openaiwhisper: close multipart writer: %w", err)
	}

	endpoint := p.baseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("openaiwhisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openaiwhisper: http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openaiwhisper: read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openaiwhisper: server returned HTTP %d", resp.StatusCode)
	}

	var result struct {
		Text     string  `json:"text"`
		Duration float64 `json:"duration"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("openaiwhisper: parse JSON response: %w", err)
	}
	return &stt.Result{Text: result.Text, DurationSeconds: result.Duration}, nil
}
