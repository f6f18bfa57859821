package engines

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/speakmcp/speakmcp/internal/audio"
	"github.com/speakmcp/speakmcp/tts"
)

const (
	// DefaultVoicevoxURL is the standard local VOICEVOX engine address.
	DefaultVoicevoxURL = "http://localhost:50021"
	// DefaultAivisURL is the standard local AivisSpeech engine address.
	DefaultAivisURL = "http://localhost:10101"
)

// HTTPEngine speaks through a VOICEVOX-compatible HTTP engine: one
// request to build an audio query, one to synthesize it into WAV, then
// local playback. VOICEVOX and AivisSpeech share this API.
type HTTPEngine struct {
	backend tts.Backend
	baseURL string
	client  *http.Client
	player  audio.Player
	limiter *rate.Limiter
}

// NewVoicevox creates the adapter for a VOICEVOX engine. baseURL falls
// back to DefaultVoicevoxURL when empty.
func NewVoicevox(baseURL string, player audio.Player) *HTTPEngine {
	return newHTTPEngine(tts.BackendVoicevox, baseURL, DefaultVoicevoxURL, player)
}

// NewAivis creates the adapter for an AivisSpeech engine. baseURL
// falls back to DefaultAivisURL when empty.
func NewAivis(baseURL string, player audio.Player) *HTTPEngine {
	return newHTTPEngine(tts.BackendAivis, baseURL, DefaultAivisURL, player)
}

func newHTTPEngine(backend tts.Backend, baseURL, fallback string, player audio.Player) *HTTPEngine {
	if baseURL == "" {
		baseURL = fallback
	}
	return &HTTPEngine{
		backend: backend,
		baseURL: baseURL,
		client:  &http.Client{},
		player:  player,
		// Local engines synthesize serially anyway; keep requests
		// from piling up when clients fire speak calls in bursts.
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 2),
	}
}

// Backend implements tts.Engine.
func (e *HTTPEngine) Backend() tts.Backend { return e.backend }

// BaseURL returns the engine address in use.
func (e *HTTPEngine) BaseURL() string { return e.baseURL }

// Synthesize runs audio_query, patches the speaking rate, synthesizes
// the WAV, and plays it. Each step inherits ctx, so one deadline
// bounds the whole exchange including playback.
func (e *HTTPEngine) Synthesize(ctx context.Context, text, speakerID string, speed float64) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return e.classify(err, "rate limit wait")
	}

	start := time.Now()
	query, err := e.audioQuery(ctx, text, speakerID)
	if err != nil {
		return err
	}
	if speed > 0 {
		query, err = patchSpeedScale(query, speed)
		if err != nil {
			return tts.NewError(tts.CodeUnexpected, e.backend,
				"unable to adjust speaking rate", err)
		}
	}

	wav, err := e.synthesis(ctx, query, speakerID)
	if err != nil {
		return err
	}
	log.Debug("synthesized audio",
		"backend", e.backend, "bytes", len(wav), "took", time.Since(start))

	if err := e.player.Play(ctx, wav); err != nil {
		return e.classify(err, "playback")
	}
	return nil
}

// audioQuery builds the synthesis parameters for text and speaker.
// The engine answers 422 when the speaker id does not exist.
func (e *HTTPEngine) audioQuery(ctx context.Context, text, speakerID string) ([]byte, error) {
	q := url.Values{}
	q.Set("text", text)
	q.Set("speaker", speakerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/audio_query?"+q.Encode(), nil)
	if err != nil {
		return nil, tts.NewError(tts.CodeUnexpected, e.backend, "unable to build request", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, e.classify(err, "audio_query")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, e.classify(err, "audio_query read")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, e.statusError(resp.StatusCode, "audio_query", body)
	}
	return body, nil
}

// synthesis turns an audio query into a WAV payload.
func (e *HTTPEngine) synthesis(ctx context.Context, query []byte, speakerID string) ([]byte, error) {
	q := url.Values{}
	q.Set("speaker", speakerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/synthesis?"+q.Encode(), bytes.NewReader(query))
	if err != nil {
		return nil, tts.NewError(tts.CodeUnexpected, e.backend, "unable to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, e.classify(err, "synthesis")
	}
	defer resp.Body.Close()

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, e.classify(err, "synthesis read")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, e.statusError(resp.StatusCode, "synthesis", wav)
	}
	return wav, nil
}

// speakerInfo mirrors the /speakers response: one entry per character
// with its selectable styles.
type speakerInfo struct {
	Name   string `json:"name"`
	Styles []struct {
		Name string `json:"name"`
		ID   int    `json:"id"`
	} `json:"styles"`
}

// Speakers lists the engine's voices, one entry per style, labeled
// "Character (Style)" and sorted by id.
func (e *HTTPEngine) Speakers(ctx context.Context) ([]tts.Speaker, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/speakers", nil)
	if err != nil {
		return nil, tts.NewError(tts.CodeUnexpected, e.backend, "unable to build request", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, e.classify(err, "speakers")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, e.classify(err, "speakers read")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, e.statusError(resp.StatusCode, "speakers", body)
	}

	var infos []speakerInfo
	if err := json.Unmarshal(body, &infos); err != nil {
		return nil, tts.NewError(tts.CodeUnexpected, e.backend,
			"unable to decode speaker list", err)
	}

	var speakers []tts.Speaker
	for _, info := range infos {
		for _, style := range info.Styles {
			speakers = append(speakers, tts.Speaker{
				ID:   strconv.Itoa(style.ID),
				Name: fmt.Sprintf("%s (%s)", info.Name, style.Name),
			})
		}
	}
	sort.Slice(speakers, func(i, j int) bool {
		a, _ := strconv.Atoi(speakers[i].ID)
		b, _ := strconv.Atoi(speakers[j].ID)
		return a < b
	})
	return speakers, nil
}

// patchSpeedScale rewrites the speedScale field of an audio query.
// The query is round-tripped as a generic map so every other engine
// parameter survives untouched.
func patchSpeedScale(query []byte, speed float64) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(query, &m); err != nil {
		return nil, err
	}
	m["speedScale"] = speed
	return json.Marshal(m)
}

// statusError maps HTTP failure statuses onto the error taxonomy.
// 422 means the engine rejected the speaker id. Error bodies are
// logged at debug level and never put in the error message: the
// client-facing detail must not carry raw engine output.
func (e *HTTPEngine) statusError(status int, step string, body []byte) error {
	if status == http.StatusUnprocessableEntity {
		return tts.NewError(tts.CodeInvalidSpeaker, e.backend,
			fmt.Sprintf("engine rejected the speaker (%s returned 422)", step), nil)
	}
	logged := string(body)
	if len(logged) > 200 {
		logged = logged[:200]
	}
	log.Debug("Engine returned an error status",
		"backend", e.backend, "step", step, "status", status, "body", logged)
	return tts.NewError(tts.CodeUnexpected, e.backend,
		fmt.Sprintf("%s returned HTTP %d", step, status), nil)
}

// classify maps transport-level failures: deadline expiry becomes a
// timeout, caller cancellation stays a cancellation, everything else
// means the engine is unreachable.
func (e *HTTPEngine) classify(err error, step string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return tts.NewError(tts.CodeTimeout, e.backend, step+" timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return tts.NewError(tts.CodeUnexpected, e.backend, "request canceled during "+step, err)
	}
	return tts.NewError(tts.CodeUnavailable, e.backend,
		fmt.Sprintf("engine not reachable at %s (%s)", e.baseURL, step), err)
}
