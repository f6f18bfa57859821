package server

import (
	"encoding/json"
	"strconv"

	"github.com/speakmcp/speakmcp/tts"
)

// toolSchema builds the JSON schema for one speak tool. When the
// engine's speaker list is known the speaker property becomes a oneOf
// of const/title pairs so tool-calling clients can offer the voices by
// name; otherwise it falls back to a free-form id.
func toolSchema(backend tts.Backend, speakers []tts.Speaker, defaultSpeaker string) json.RawMessage {
	props := map[string]any{
		"text": map[string]any{
			"type":        "string",
			"description": "Text to speak aloud",
		},
		"speaker": speakerSchema(backend, speakers, defaultSpeaker),
		"speed": map[string]any{
			"type":        "number",
			"description": "Speaking rate; engine default when omitted",
		},
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []string{"text"},
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		// The schema is built from plain maps and never fails to
		// marshal; keep a valid fallback anyway.
		return json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`)
	}
	return raw
}

func speakerSchema(backend tts.Backend, speakers []tts.Speaker, defaultSpeaker string) map[string]any {
	if len(speakers) > 0 {
		options := make([]map[string]any, 0, len(speakers))
		for _, s := range speakers {
			options = append(options, map[string]any{
				"const": speakerConst(backend, s.ID),
				"title": s.Name,
			})
		}
		schema := map[string]any{
			"oneOf":       options,
			"description": "Voice to use",
		}
		if defaultSpeaker != "" {
			schema["default"] = speakerConst(backend, defaultSpeaker)
		}
		return schema
	}

	// The engine was not reachable at startup, so the voice list is
	// unknown. Accept a raw id and let the engine validate it.
	if backend == tts.BackendSay {
		return map[string]any{
			"type":        "string",
			"description": "Voice name; OS default when omitted",
		}
	}
	schema := map[string]any{
		"type":        "integer",
		"description": "Speaker id as defined by the engine",
	}
	if defaultSpeaker != "" {
		if id, err := strconv.Atoi(defaultSpeaker); err == nil {
			schema["default"] = id
		}
	}
	return schema
}

// speakerConst renders a speaker id in the type the engine expects:
// numeric for the VOICEVOX-compatible engines, string voice names for
// say.
func speakerConst(backend tts.Backend, id string) any {
	if backend == tts.BackendSay {
		return id
	}
	if n, err := strconv.Atoi(id); err == nil {
		return n
	}
	return id
}
