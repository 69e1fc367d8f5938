package playback

import (
	"encoding/json"

	"github.com/inamate/motion/internal/engine"
	"github.com/inamate/motion/internal/model"
)

type Message struct {
	Type          string          `json:"type"`
	CompositionID string          `json:"compositionId,omitempty"`
	ClientID      string          `json:"clientId,omitempty"`
	Seq           int64           `json:"seq,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

const (
	// Client to server.
	TypePlay   = "play"
	TypePause  = "pause"
	TypeSeek   = "seek"
	TypeSpeed  = "speed"
	TypeRepeat = "repeat"
	TypeMarker = "marker"

	// Server to client.
	TypeWelcome = "welcome"
	TypeState   = "state"
	TypeFrame   = "frame"
	TypeError   = "error"
)

// SeekPayload moves to Frame, or to Progress when Frame is unset.
type SeekPayload struct {
	Frame    *float64 `json:"frame,omitempty"`
	Progress *float64 `json:"progress,omitempty"`
}

type SpeedPayload struct {
	Speed float64 `json:"speed"`
}

// RepeatPayload sets the repeat count, -1 for infinite, and the mode,
// "restart" or "reverse".
type RepeatPayload struct {
	Count int    `json:"count"`
	Mode  string `json:"mode"`
}

type MarkerPayload struct {
	Name string `json:"name"`
}

type WelcomePayload struct {
	SessionID string               `json:"sessionId"`
	Width     float64              `json:"width"`
	Height    float64              `json:"height"`
	Warnings  []model.Warning      `json:"warnings"`
	State     engine.PlaybackState `json:"state"`
}

// FramePayload carries a rendered frame as base64 PNG.
type FramePayload struct {
	Frame    float64 `json:"frame"`
	Progress float64 `json:"progress"`
	PNG      string  `json:"png"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
