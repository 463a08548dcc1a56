// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "errors"

var (
	ErrInvalidDefinition = errors.New("invalid poll definition")
	ErrPollNotFound      = errors.New("poll not found")
	ErrPollExists        = errors.New("poll already exists")
	ErrDuplicateVoter    = errors.New("voter already submitted answer")
	ErrInvalidSelection  = errors.New("invalid answer selection")
	ErrTransport         = errors.New("transport failure")
	ErrStorage           = errors.New("storage failure")
)

// ErrorMessage maps an error to the human-readable text sent to viewers
// in an error frame. Unknown errors are reported as internal.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrPollNotFound):
		return "Poll not found"
	case errors.Is(err, ErrDuplicateVoter):
		return "IP already submitted answer"
	case errors.Is(err, ErrInvalidSelection):
		return "Invalid answer selection"
	case errors.Is(err, ErrInvalidDefinition):
		return "Invalid poll definition"
	default:
		return "Internal error"
	}
}
