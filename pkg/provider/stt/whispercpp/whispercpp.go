// Package whispercpp provides a local whisper.cpp-backed STT provider.
//
// It connects to a running whisper-server binary (which exposes a REST API at
// POST /inference) and submits each recording as a single batch inference
// request. Recordings that already carry a RIFF/WAV header are forwarded
// as-is; raw 16-bit PCM is wrapped in a WAV container first.
//
// Usage:
//
//	p, err := whispercpp.New("http://localhost:8080", whispercpp.WithLanguage("hi"))
//	result, err := p.Transcribe(ctx, audio)
package whispercpp

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/valuenable/veena/pkg/provider/stt"
)

const (
	// bitsPerSample is fixed at 16 for the signed little-endian PCM audio
	// that whisper.cpp expects.
	bitsPerSample = 16

	defaultLanguage   = "hi"
	defaultSampleRate = 16000
)

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the model identifier forwarded to the whisper.cpp server
// (e.g., "base", "small"). When empty the server uses whichever model it was
// started with — this is the default.
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithLanguage sets the language code sent to the whisper.cpp server (e.g.,
// "hi", "en"). Defaults to "hi".
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		p.language = lang
	}
}

// WithSampleRate sets the sample rate assumed for raw PCM input that needs a
// WAV container. Defaults to 16000. Ignored for input that is already WAV.
func WithSampleRate(rate int) Option {
	return func(p *Provider) {
		p.sampleRate = rate
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// Provider implements stt.Provider backed by a local whisper.cpp HTTP server.
type Provider struct {
	serverURL  string
	model      string
	language   string
	sampleRate int
	httpClient *http.Client
}

// New creates a new Provider that connects to the whisper.cpp HTTP server at
// serverURL (e.g., "http://localhost:8080"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("whispercpp: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:  serverURL,
		language:   defaultLanguage,
		sampleRate: defaultSampleRate,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Transcribe implements stt.Provider. The audio duration is read from the WAV
// header; whisper.cpp itself does not report one.
func (p *Provider) Transcribe(ctx context.Context, audio []byte) (*stt.Result, error) {
	wav := audio
	if !isWAV(audio) {
		wav = encodeWAV(audio, p.sampleRate, 1)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("whispercpp: create form file: %w", err)
	}
	if _, err := fw.Write(wav); err != nil {
		return nil, fmt.Errorf("whispercpp: write wav data: %w", err)
	}

	if p.language != "" {
		if err := mw.WriteField("language", p.language); err != nil {
			return nil, fmt.Errorf("whispercpp: write language field: %w", err)
		}
	}
	if p.model != "" {
		if err := mw.WriteField("model", p.model); err != nil {
			return nil, fmt.Errorf("whispercpp: write model field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("whispercpp: close multipart writer: %w", err)
	}

	endpoint := p.serverURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("whispercpp: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whispercpp: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whispercpp: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whispercpp: read response body: %w", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("whispercpp: parse JSON response: %w", err)
	}

	return &stt.Result{Text: result.Text, DurationSeconds: wavDuration(wav)}, nil
}

// isWAV reports whether data starts with a RIFF/WAVE header.
func isWAV(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}

// encodeWAV wraps raw 16-bit signed little-endian PCM data in a standard
// RIFF/WAV container. The returned byte slice is suitable for direct
// inclusion in a multipart form upload.
func encodeWAV(pcm []byte, sampleRate, channels int) []byte {
	bps := bitsPerSample
	byteRate := sampleRate * channels * bps / 8
	blockAlign := channels * bps / 8
	dataSize := len(pcm)

	buf := make([]byte, 44+dataSize)

	// RIFF chunk descriptor
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize)) // file size − 8
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)                 // sub-chunk size (PCM)
	binary.LittleEndian.PutUint16(buf[20:22], 1)                  // audio format: PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))   // num channels
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate)) // sample rate
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))   // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign)) // block align
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bps))        // bits per sample

	// data sub-chunk
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm)

	return buf
}

// wavDuration derives the audio length in seconds from a WAV header's byte
// rate and data size. Returns 0 for malformed headers.
func wavDuration(wav []byte) float64 {
	if len(wav) < 44 || !isWAV(wav) {
		return 0
	}
	byteRate := binary.LittleEndian.Uint32(wav[28:32])
	dataSize := binary.LittleEndian.Uint32(wav[40:44])
	if byteRate == 0 {
		return 0
	}
	return float64(dataSize) / float64(byteRate)
}
