package server

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/speakmcp/speakmcp/tts"
	"github.com/speakmcp/speakmcp/tts/engines/mock"
)

func newTestServer(t *testing.T, engines ...tts.Engine) (*Server, *tts.ConfigStore) {
	t.Helper()
	store, err := tts.NewConfigStore(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	d := tts.NewDispatcher(store, tts.Resolver{}, time.Second, engines...)
	return New(context.Background(), "test", d, store), store
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	default:
		t.Fatalf("content is %T, want text", result.Content[0])
		return ""
	}
}

func TestSpeakHandlerSuccess(t *testing.T) {
	say := mock.New(tts.BackendSay)
	s, _ := newTestServer(t, say)

	handler := s.speakHandler(tts.BackendSay)
	result, err := handler(context.Background(), callRequest(map[string]any{
		"text":    "hello",
		"speaker": "Kyoko",
		"speed":   180.0,
	}))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if result.IsError {
		t.Fatalf("result = %q, want success", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "say") {
		t.Errorf("result text = %q, want it to name the backend", resultText(t, result))
	}

	call, ok := say.LastCall()
	if !ok {
		t.Fatal("engine was not called")
	}
	if call.Text != "hello" || call.SpeakerID != "Kyoko" || call.Speed != 180 {
		t.Errorf("engine call = %+v", call)
	}
}

func TestSpeakHandlerNumericSpeaker(t *testing.T) {
	voicevox := mock.New(tts.BackendVoicevox)
	s, _ := newTestServer(t, voicevox)

	handler := s.speakHandler(tts.BackendVoicevox)
	// Tool-calling clients send the speaker as a JSON number.
	result, err := handler(context.Background(), callRequest(map[string]any{
		"text":    "hello",
		"speaker": float64(3),
	}))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if result.IsError {
		t.Fatalf("result = %q, want success", resultText(t, result))
	}
	call, _ := voicevox.LastCall()
	if call.SpeakerID != "3" {
		t.Errorf("speaker = %q, want 3", call.SpeakerID)
	}
}

func TestSpeakHandlerMissingText(t *testing.T) {
	say := mock.New(tts.BackendSay)
	s, _ := newTestServer(t, say)

	handler := s.speakHandler(tts.BackendSay)
	for _, args := range []map[string]any{
		{},
		{"text": ""},
		{"text": 42},
	} {
		result, err := handler(context.Background(), callRequest(args))
		if err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if !result.IsError {
			t.Errorf("args %v: want tool error", args)
		}
	}
	if say.CallCount() != 0 {
		t.Errorf("engine calls = %d, want 0", say.CallCount())
	}
}

func TestSpeakHandlerDispatchFailureIsToolError(t *testing.T) {
	voicevox := mock.New(tts.BackendVoicevox)
	s, _ := newTestServer(t, voicevox)

	// No configured default and no explicit speaker: the dispatcher
	// fails in resolution and the handler reports it as a tool error,
	// never a protocol error.
	handler := s.speakHandler(tts.BackendVoicevox)
	result, err := handler(context.Background(), callRequest(map[string]any{"text": "hello"}))
	if err != nil {
		t.Fatalf("handler error = %v, want nil", err)
	}
	if !result.IsError {
		t.Fatal("want tool error for unconfigured backend")
	}
	if !strings.Contains(resultText(t, result), "voicevox") {
		t.Errorf("result text = %q, want the backend named", resultText(t, result))
	}
	if voicevox.CallCount() != 0 {
		t.Errorf("engine calls = %d, want 0", voicevox.CallCount())
	}
}

func TestDefaultSpeaker(t *testing.T) {
	say := mock.New(tts.BackendSay)
	s, _ := newTestServer(t, say)

	if got := s.defaultSpeaker(tts.BackendVoicevox); got != "" {
		t.Errorf("defaultSpeaker = %q, want empty for null config", got)
	}
}
