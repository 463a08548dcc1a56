// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"fmt"
)

// Inbound is a frame sent by a viewer: Identify or Vote.
type Inbound interface {
	inbound()
}

// Identify asks for the full current state of a poll.
type Identify struct {
	ID string
}

// Vote submits a ballot of choice indices.
type Vote struct {
	Answers []int
}

func (Identify) inbound() {}
func (Vote) inbound()     {}

// DecodeInbound decodes a raw frame exactly once. A frame carrying "id" is
// an Identify, otherwise one carrying "answers" is a Vote. Anything else is
// a transport failure.
func DecodeInbound(data []byte) (Inbound, error) {
	var raw struct {
		ID      *string `json:"id"`
		Answers *[]int  `json:"answers"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode frame: %v", ErrTransport, err)
	}

	switch {
	case raw.ID != nil:
		return Identify{ID: *raw.ID}, nil
	case raw.Answers != nil:
		return Vote{Answers: *raw.Answers}, nil
	default:
		return nil, fmt.Errorf("%w: unrecognized frame", ErrTransport)
	}
}

// Outbound is a frame sent to a viewer: FullState, CountUpdate or ErrorFrame.
type Outbound interface {
	outbound()
}

// FullState answers an Identify or a fresh attach.
type FullState struct {
	Question string        `json:"question"`
	Choices  []string      `json:"choices"`
	Dedup    DedupMode     `json:"dedup"`
	MultiOK  bool          `json:"multiOk"`
	Counts   []ChoiceCount `json:"counts"`
}

// CountUpdate is broadcast after every accepted vote.
type CountUpdate struct {
	Counts []ChoiceCount `json:"counts"`
}

// ErrorFrame carries a human-readable error to one viewer.
type ErrorFrame struct {
	Error string `json:"error"`
}

func (FullState) outbound()   {}
func (CountUpdate) outbound() {}
func (ErrorFrame) outbound()  {}

// NewFullState combines a definition with its current counts.
func NewFullState(def PollDefinition, counts []ChoiceCount) FullState {
	return FullState{
		Question: def.Question,
		Choices:  def.Choices,
		Dedup:    def.Dedup,
		MultiOK:  def.MultiOK,
		Counts:   counts,
	}
}

// NewErrorFrame builds the frame reported to a viewer for err.
func NewErrorFrame(err error) ErrorFrame {
	return ErrorFrame{Error: ErrorMessage(err)}
}
