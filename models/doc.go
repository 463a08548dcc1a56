// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, wire, and domain types for the API.

# Request Types

  - CreatePollRequest: question, choices, dedup, multiOk

# Domain Types

  - PollDefinition: immutable poll definition, validated by Normalize
  - ChoiceCount: one {name, count} pair of the aggregate counts
  - IndexEntry: metadata index row (poll id, creation time, definition)

# Socket Frames

Inbound frames are decoded once at the boundary into a tagged variant:

	msg, err := models.DecodeInbound(data)
	switch m := msg.(type) {
	case models.Identify:
	case models.Vote:
	}

Outbound frames are FullState, CountUpdate and ErrorFrame.

# Errors

Sentinel errors shared by every layer:

	ErrInvalidDefinition  creation-time validation
	ErrPollNotFound       definition missing from memory and storage
	ErrDuplicateVoter     identity already recorded under "ip" dedup
	ErrInvalidSelection   ballot names no valid choice
	ErrTransport          frame decoding or session send failure
	ErrStorage            durable read or write failure

ErrorMessage maps them to the text placed in an ErrorFrame.

# Constants

Dedup modes:

	DedupIP   = "ip"
	DedupNone = "none"
*/
package models
