package types

import "errors"

// Room-state violations. Recovered locally: surfaced as a one-line terminal
// message with no state change.
var (
	ErrUnknownPersona = errors.New("unknown persona")
	ErrAlreadyPresent = errors.New("persona already in the room")
	ErrNotPresent     = errors.New("persona not in the room")
	ErrLastPersona    = errors.New("cannot remove the last persona from the room")
	ErrRoomClosed     = errors.New("room is closed")
)

// Router-level rejections. The input is neither a command nor a message;
// the moderator is re-prompted.
var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrMalformedCommand = errors.New("malformed command")
)

// Collaborator failures.
var (
	// ErrInferenceUnavailable marks a failed or timed-out model call.
	// Reported per affected persona; never aborts a multi-recipient turn.
	ErrInferenceUnavailable = errors.New("inference unavailable")

	// ErrHistoryUnavailable marks a session-history store failure. Fatal for
	// the current turn but not for the process.
	ErrHistoryUnavailable = errors.New("history store unavailable")

	// ErrImageAnalysis marks a failed image analysis. The room continues
	// without that image's brief.
	ErrImageAnalysis = errors.New("image analysis failed")
)
