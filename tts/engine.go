package tts

import "context"

// Engine is the single capability every synthesis backend implements.
// The dispatcher is polymorphic over this interface and never branches
// on the concrete backend after resolution.
type Engine interface {
	// Backend returns the concrete backend this engine serves.
	Backend() Backend

	// Synthesize speaks text with the given speaker. An empty
	// speakerID means the engine's own default voice, which only the
	// say engine supports. speed is an optional rate hint (zero =
	// engine default). The timeout budget arrives as the context
	// deadline; implementations must tear down child processes and
	// abort in-flight connections when it expires.
	Synthesize(ctx context.Context, text, speakerID string, speed float64) error
}

// SpeakerLister is implemented by engines that can enumerate their
// voices. The dispatch core never calls it; the protocol front-end uses
// it to build tool schemas and the speakers subcommand uses it for
// display.
type SpeakerLister interface {
	Speakers(ctx context.Context) ([]Speaker, error)
}
