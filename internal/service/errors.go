package service

import "errors"

// Auth errors
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid or expired credential")
	ErrNotAuthenticated  = errors.New("not authenticated")
)

// Validation errors
var (
	ErrUnknownCategory  = errors.New("unknown category")
	ErrMalformedPayload = errors.New("malformed payload")
)

// Rate limiting
var (
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Room errors
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room already has two players")
	ErrRoomActive      = errors.New("room already active")
	ErrRoomNotJoinable = errors.New("room cannot be joined by code")
	ErrNotInRoom       = errors.New("player is not in this room")
)

// Session errors
var (
	ErrSessionNotActive = errors.New("session is not active")
	ErrJudgingMode      = errors.New("event does not match the content's judging mode")
	ErrScoreTarget      = errors.New("cannot report another player's score")
)

// Upstream errors
var (
	ErrContentUnavailable = errors.New("content service unreachable")
)
