// Package server exposes the dispatcher to tool-calling clients over
// the Model Context Protocol on stdio.
package server

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/speakmcp/speakmcp/tts"
)

// listTimeout bounds the startup speaker-list fetch per engine. An
// offline engine must not delay server startup noticeably.
const listTimeout = 3 * time.Second

// Server wires speak tools onto an MCP stdio server. One tool is
// registered per engine known to the dispatcher.
type Server struct {
	mcp        *mcpserver.MCPServer
	dispatcher *tts.Dispatcher
	store      *tts.ConfigStore
}

// New builds the MCP server and registers a speak tool for every
// engine the dispatcher carries.
func New(ctx context.Context, version string, dispatcher *tts.Dispatcher, store *tts.ConfigStore) *Server {
	s := &Server{
		mcp: mcpserver.NewMCPServer("speak-mcp", version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithRecovery(),
		),
		dispatcher: dispatcher,
		store:      store,
	}

	for _, spec := range []struct {
		name        string
		backend     tts.Backend
		description string
	}{
		{"speak", tts.BackendSay, "Speak text aloud with the OS speech command"},
		{"speak_voicevox", tts.BackendVoicevox, "Speak text aloud with a local VOICEVOX engine"},
		{"speak_aivis", tts.BackendAivis, "Speak text aloud with a local AivisSpeech engine"},
	} {
		engine, ok := dispatcher.Engine(spec.backend)
		if !ok {
			continue
		}
		s.registerSpeakTool(ctx, spec.name, spec.description, engine)
	}
	return s
}

// Serve blocks on the stdio transport until the client disconnects.
func (s *Server) Serve() error {
	return mcpserver.ServeStdio(s.mcp)
}

// registerSpeakTool queries the engine's voices once at startup to
// build the tool schema, then registers the tool. A dead engine still
// gets a tool; its schema just cannot enumerate voices.
func (s *Server) registerSpeakTool(ctx context.Context, name, description string, engine tts.Engine) {
	backend := engine.Backend()

	var speakers []tts.Speaker
	if lister, ok := engine.(tts.SpeakerLister); ok {
		listCtx, cancel := context.WithTimeout(ctx, listTimeout)
		var err error
		speakers, err = lister.Speakers(listCtx)
		cancel()
		if err != nil {
			log.Debug("Speaker list unavailable at startup", "backend", backend, "err", err)
			speakers = nil
		}
	}

	schema := toolSchema(backend, speakers, s.defaultSpeaker(backend))
	tool := mcp.NewToolWithRawSchema(name, description, schema)
	s.mcp.AddTool(tool, s.speakHandler(backend))
	log.Debug("Registered tool", "tool", name, "backend", backend, "voices", len(speakers))
}

// defaultSpeaker reads the configured default for a backend from the
// current config snapshot, as a string id.
func (s *Server) defaultSpeaker(backend tts.Backend) string {
	cfg := s.store.Snapshot()
	switch backend {
	case tts.BackendVoicevox:
		if cfg.VoicevoxDefaultSpeaker != nil {
			return strconv.Itoa(*cfg.VoicevoxDefaultSpeaker)
		}
	case tts.BackendAivis:
		if cfg.AivisDefaultSpeaker != nil {
			return strconv.Itoa(*cfg.AivisDefaultSpeaker)
		}
	case tts.BackendSay:
		if cfg.MacosDefaultVoice != nil {
			return *cfg.MacosDefaultVoice
		}
	}
	return ""
}

// speakHandler adapts one tool call into a dispatch. Failures come
// back as tool errors with the dispatcher's stable detail string, not
// protocol errors, so the client's model can read and react to them.
func (s *Server) speakHandler(backend tts.Backend) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		text, ok := args["text"].(string)
		if !ok || text == "" {
			return mcp.NewToolResultError("text is required"), nil
		}

		req := tts.SpeakRequest{
			Text:    text,
			Backend: backend,
			Speaker: argSpeaker(args["speaker"]),
			Speed:   argNumber(args["speed"]),
		}

		result := s.dispatcher.Speak(ctx, req)
		if !result.Spoken() {
			return mcp.NewToolResultError(result.Detail), nil
		}
		return mcp.NewToolResultText(result.Detail), nil
	}
}

// argSpeaker accepts the speaker argument as either a string voice
// name or a numeric id. JSON numbers arrive as float64.
func argSpeaker(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.Itoa(int(s))
	case int:
		return strconv.Itoa(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func argNumber(v any) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}
