// Package recovery maps fatal engine errors to a single bounded action.
//
// The policy is a lookup. Retry counts and backoff live in the engine's own configuration.
package recovery

import "github.com/playsync/playsync/engine"

// Action is what a session does in response to an engine error.
type Action int

const (
	// None: the error is observed only.
	None Action = iota
	// ResumeLoad restarts fragment loading.
	ResumeLoad
	// RecoverMedia reattaches the media pipeline.
	RecoverMedia
	// Terminate destroys the session.
	Terminate
)

func (a Action) String() string {
	switch a {
	case None:
		return "none"
	case ResumeLoad:
		return "resume-load"
	case RecoverMedia:
		return "recover-media"
	case Terminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// Decide returns the action for err. Non-fatal errors never cause a transition.
func Decide(err *engine.Error) Action {
	if err == nil || !err.Fatal {
		return None
	}

	switch err.Category {
	case engine.CategoryNetwork:
		return ResumeLoad
	case engine.CategoryMedia:
		return RecoverMedia
	default:
		return Terminate
	}
}
