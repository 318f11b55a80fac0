package whispercpp

import (
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New(""); err == nil {
		t.Error("expected error for empty serverURL")
	}
}

func TestTranscribeSendsMultipartForm(t *testing.T) {
	t.Parallel()

	var gotLanguage, gotModel string
	var gotFile []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			t.Errorf("got path %q, want /inference", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotLanguage = r.FormValue("language")
		gotModel = r.FormValue("model")
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		gotFile, _ = io.ReadAll(f)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text": " premium kab dena hai"}`)
	}))
	defer srv.Close()

	p, err := New(srv.URL, WithLanguage("hi"), WithModel("base"))
	if err != nil {
		t.Fatal(err)
	}

	wav := encodeWAV(make([]byte, 32000), 16000, 1)
	result, err := p.Transcribe(context.Background(), wav)
	if err != nil {
		t.Fatal(err)
	}

	if result.Text != " premium kab dena hai" {
		t.Errorf("got text %q", result.Text)
	}
	if gotLanguage != "hi" || gotModel != "base" {
		t.Errorf("got language %q model %q", gotLanguage, gotModel)
	}
	if string(gotFile[0:4]) != "RIFF" {
		t.Error("uploaded file is not a WAV container")
	}
	// 32000 bytes of 16 kHz mono 16-bit PCM is exactly one second.
	if result.DurationSeconds != 1.0 {
		t.Errorf("got duration %v, want 1.0", result.DurationSeconds)
	}
}

func TestTranscribeWrapsRawPCM(t *testing.T) {
	t.Parallel()

	var gotFile []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		gotFile, _ = io.ReadAll(f)
		io.WriteString(w, `{"text": "ok"}`)
	}))
	defer srv.Close()

	p, err := New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	pcm := make([]byte, 1600)
	if _, err := p.Transcribe(context.Background(), pcm); err != nil {
		t.Fatal(err)
	}

	if len(gotFile) != 44+len(pcm) {
		t.Fatalf("got %d bytes, want 44-byte header plus payload", len(gotFile))
	}
	if string(gotFile[0:4]) != "RIFF" || string(gotFile[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE header")
	}
	if sr := binary.LittleEndian.Uint32(gotFile[24:28]); sr != 16000 {
		t.Errorf("got sample rate %d, want 16000", sr)
	}
}

func TestTranscribeServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Transcribe(context.Background(), make([]byte, 100)); err == nil {
		t.Error("expected error for HTTP 500")
	}
}

func TestWAVDuration(t *testing.T) {
	t.Parallel()

	// Two seconds of 16 kHz mono 16-bit PCM.
	wav := encodeWAV(make([]byte, 64000), 16000, 1)
	if got := wavDuration(wav); got != 2.0 {
		t.Errorf("got %v, want 2.0", got)
	}
	if got := wavDuration([]byte("not a wav")); got != 0 {
		t.Errorf("got %v for malformed input, want 0", got)
	}
}
