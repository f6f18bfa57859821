package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultBudget bounds synthesize+play for one request when no budget
// is configured.
const DefaultBudget = 60 * time.Second

// requestState tracks where a dispatch currently is. States exist for
// logging and tests; transitions are linear with a failure edge from
// every state to done.
type requestState string

const (
	stateReceived     requestState = "received"
	stateResolving    requestState = "resolving"
	stateSynthesizing requestState = "synthesizing"
	stateDone         requestState = "done"
)

// Dispatcher is the orchestrator: it validates input, resolves the
// target, invokes the chosen engine under a single timeout budget and
// folds every outcome into a DispatchResult. It holds no per-request
// state, so concurrent Speak calls are independent.
type Dispatcher struct {
	engines  map[Backend]Engine
	store    *ConfigStore
	resolver Resolver
	budget   time.Duration
}

// NewDispatcher builds a dispatcher over the given engines. Engines
// are keyed by their Backend; registering two engines for the same
// backend keeps the last one.
func NewDispatcher(store *ConfigStore, resolver Resolver, budget time.Duration, engines ...Engine) *Dispatcher {
	if budget <= 0 {
		budget = DefaultBudget
	}
	m := make(map[Backend]Engine, len(engines))
	for _, e := range engines {
		m[e.Backend()] = e
	}
	return &Dispatcher{engines: m, store: store, resolver: resolver, budget: budget}
}

// Budget returns the per-request timeout budget.
func (d *Dispatcher) Budget() time.Duration { return d.budget }

// Engine returns the registered engine for a concrete backend.
func (d *Dispatcher) Engine(b Backend) (Engine, bool) {
	e, ok := d.engines[b]
	return e, ok
}

// Speak runs one request to completion and always returns a
// DispatchResult: a misbehaving backend degrades this request, never
// the server. There is no fallback across backends; if the resolved
// engine fails, the failure is reported as-is so a misconfiguration
// cannot be masked.
func (d *Dispatcher) Speak(ctx context.Context, req SpeakRequest) DispatchResult {
	state := stateReceived
	log.Debug("Speak request", "state", state, "backend", req.Backend, "speaker", req.Speaker)

	if strings.TrimSpace(req.Text) == "" {
		return d.fail(req.Backend, NewError(CodeUnexpected, req.Backend, "text must not be empty", ErrEmptyText))
	}

	// Resolution is synchronous and instant: it is not charged
	// against the timeout budget and never touches the network.
	state = stateResolving
	log.Debug("Resolving target", "state", state, "backend", req.Backend)
	target, err := d.resolver.Resolve(req.Backend, req.Speaker, d.store.Snapshot())
	if err != nil {
		return d.fail(req.Backend, err)
	}

	engine, ok := d.engines[target.Backend]
	if !ok {
		return d.fail(target.Backend, NewError(CodeUnavailable, target.Backend,
			fmt.Sprintf("no engine registered for %s", string(target.Backend)), nil))
	}

	state = stateSynthesizing
	log.Debug("Dispatching", "state", state, "backend", target.Backend, "speaker", target.SpeakerID, "budget", d.budget)

	// One budget for the whole synthesize+play sequence.
	callCtx, cancel := context.WithTimeout(ctx, d.budget)
	defer cancel()

	if err := engine.Synthesize(callCtx, req.Text, target.SpeakerID, req.Speed); err != nil {
		if callCtx.Err() == context.DeadlineExceeded && CodeOf(err) != CodeTimeout {
			err = NewError(CodeTimeout, target.Backend,
				fmt.Sprintf("%s timed out after %s", string(target.Backend), d.budget), err)
		}
		return d.fail(target.Backend, err)
	}

	state = stateDone
	log.Debug("Speak request complete", "state", state, "backend", target.Backend)
	return DispatchResult{Outcome: OutcomeSpoken, Detail: fmt.Sprintf("spoken via %s", string(target.Backend))}
}

// fail maps an error to the stable detail string for its code. The
// mapping is part of the protocol contract: clients surface these
// strings to their end users.
func (d *Dispatcher) fail(backend Backend, err error) DispatchResult {
	var de *Error
	if errors.As(err, &de) && de.Backend != "" {
		backend = de.Backend
	}
	name := string(backend)
	if name == "" || backend == BackendAuto {
		name = "auto"
	}

	var detail string
	switch CodeOf(err) {
	case CodeUnknownBackend:
		detail = fmt.Sprintf("unknown backend %q", name)
	case CodeUnconfiguredBackend:
		detail = fmt.Sprintf("no default speaker configured for %s; set one in config.json or pass a speaker", name)
	case CodeUnavailable:
		detail = fmt.Sprintf("%s engine is unavailable: %s", name, rootCause(err))
	case CodeInvalidSpeaker:
		detail = fmt.Sprintf("%s rejected the speaker id: %s", name, rootCause(err))
	case CodeTimeout:
		detail = fmt.Sprintf("%s timed out after %s", name, d.budget)
	default:
		detail = fmt.Sprintf("%s failed: %s", name, rootCause(err))
	}

	log.Warn("Speak request failed", "backend", name, "code", CodeOf(err), "err", err)
	return DispatchResult{Outcome: OutcomeFailed, Detail: detail}
}

// rootCause digs out the message worth showing a client: the typed
// error's message when there is one, otherwise the error text.
func rootCause(err error) string {
	var de *Error
	if errors.As(err, &de) {
		if de.Message != "" {
			return de.Message
		}
		if de.Cause != nil {
			return de.Cause.Error()
		}
	}
	if err != nil {
		return err.Error()
	}
	return "unknown error"
}
