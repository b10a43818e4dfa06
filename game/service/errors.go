package service

import "errors"

// Errors shared by the service and its storage layers. The session and config packages
// alias these so callers can match with errors.Is without importing them.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrLevelNotFound   = errors.New("level not found")
	ErrInvalidLevel    = errors.New("invalid level")
)
