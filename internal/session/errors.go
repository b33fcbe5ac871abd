package session

import "errors"

// Sentinel errors for session operations. They are part of the Store's public
// API and should be checked with errors.Is().
var (
	// ErrSessionNotFound indicates the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrMessageNotFound indicates the requested message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrInvalidRole indicates a message role outside RoleUser/RoleBot.
	ErrInvalidRole = errors.New("invalid message role")

	// ErrInvalidFeedback indicates a feedback value outside the defined set.
	ErrInvalidFeedback = errors.New("invalid feedback value")
)
