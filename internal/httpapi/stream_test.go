package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/coder/websocket"
)

type eventJSON struct {
	Type       string   `json:"type"`
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
	Message    string   `json:"message"`
	Sources    []string `json:"sources"`
	Error      string   `json:"error"`
}

func readEvent(ctx context.Context, t *testing.T, conn *websocket.Conn) eventJSON {
	t.Helper()
	msgType, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	if msgType != websocket.MessageText {
		t.Fatalf("got message type %v, want text", msgType)
	}
	var ev eventJSON
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshal event %q: %v", data, err)
	}
	return ev
}

func TestStreamVoiceTurn(t *testing.T) {
	f := newFixture(t)
	sessionID := f.startConversation(t)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, f.srv.URL+"/api/conversations/"+sessionID+"/stream", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	audio := bytes.Repeat([]byte{0xCD}, 2048)
	if err := conn.Write(ctx, websocket.MessageBinary, audio); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	transcript := readEvent(ctx, t, conn)
	if transcript.Type != "transcript" {
		t.Fatalf("first event type: got %q, want transcript", transcript.Type)
	}
	if transcript.Text != "premium kab due hai" {
		t.Errorf("transcript text: got %q", transcript.Text)
	}
	if transcript.Confidence != 0.85 {
		t.Errorf("transcript confidence: got %v, want 0.85", transcript.Confidence)
	}

	reply := readEvent(ctx, t, conn)
	if reply.Type != "reply" {
		t.Fatalf("second event type: got %q, want reply", reply.Type)
	}
	if reply.Message != "Your premium is due on the 5th." {
		t.Errorf("reply message: got %q", reply.Message)
	}
	if len(reply.Sources) == 0 {
		t.Error("reply has no sources")
	}
}

func TestStreamRejectsTextFrames(t *testing.T) {
	f := newFixture(t)
	sessionID := f.startConversation(t)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, f.srv.URL+"/api/conversations/"+sessionID+"/stream", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	if err := conn.Write(ctx, websocket.MessageText, []byte("hello")); err != nil {
		t.Fatalf("write text: %v", err)
	}

	ev := readEvent(ctx, t, conn)
	if ev.Type != "error" {
		t.Fatalf("event type: got %q, want error", ev.Type)
	}

	// The connection stays usable after a bad frame.
	if err := conn.Write(ctx, websocket.MessageBinary, bytes.Repeat([]byte{0x01}, 2048)); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	next := readEvent(ctx, t, conn)
	if next.Type != "transcript" {
		t.Errorf("event type after recovery: got %q, want transcript", next.Type)
	}
}

func TestStreamShortAudioKeepsConnection(t *testing.T) {
	f := newFixture(t)
	sessionID := f.startConversation(t)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, f.srv.URL+"/api/conversations/"+sessionID+"/stream", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	if err := conn.Write(ctx, websocket.MessageBinary, make([]byte, 128)); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	ev := readEvent(ctx, t, conn)
	if ev.Type != "error" {
		t.Fatalf("event type: got %q, want error", ev.Type)
	}
	if ev.Error != "Invalid audio data" {
		t.Errorf("error message: got %q", ev.Error)
	}
}

func TestStreamUnknownSession(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, f.srv.URL+"/api/conversations/11111111-2222-3333-4444-555555555555/stream", nil)
	if err == nil {
		t.Fatal("expected dial to fail for unknown session")
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Errorf("handshake response: got %+v, want 404", resp)
	}
}
