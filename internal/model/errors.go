package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrNotJoined          = errors.New("connection has not joined the session")
	ErrUnknownEvent       = errors.New("unknown event")
	ErrConnectionClosing  = errors.New("connection is closing")
	ErrMalformedMessage   = errors.New("malformed message")
	ErrCoordinatorStopped = errors.New("session coordinator stopped")

	// Admin errors
	ErrIdentityRequired   = errors.New("identity is required")
	ErrAdminUnauthorized  = errors.New("admin secret mismatch")
	ErrAdminNotConfigured = errors.New("admin secret not configured")
)
