package engine

import (
	"encoding/json"

	"github.com/inamate/motion/internal/animator"
	"github.com/inamate/motion/internal/canvas"
)

// CommandsToJSON serializes recorded draw commands for clients that replay
// them on a Canvas2D context.
func CommandsToJSON(cmds []canvas.Command) (string, error) {
	if cmds == nil {
		return "[]", nil
	}
	data, err := json.Marshal(cmds)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// PlaybackState is a snapshot of the animator.
type PlaybackState struct {
	Frame            float64 `json:"frame"`
	Progress         float64 `json:"progress"`
	AnimatedFraction float64 `json:"animatedFraction"`
	Playing          bool    `json:"playing"`
	Speed            float64 `json:"speed"`
	FrameRate        float64 `json:"fps"`
	StartFrame       float64 `json:"startFrame"`
	EndFrame         float64 `json:"endFrame"`
	MinFrame         float64 `json:"minFrame"`
	MaxFrame         float64 `json:"maxFrame"`
	RepeatCount      int     `json:"repeatCount"`
	RepeatMode       string  `json:"repeatMode"`
	Repeated         int     `json:"repeated"`
}

// PlaybackState returns the current playback state.
func (e *Engine) PlaybackState() PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.anim
	st := PlaybackState{
		Frame:            a.Frame(),
		Progress:         a.Progress(),
		AnimatedFraction: a.AnimatedFraction(),
		Playing:          a.Running(),
		Speed:            a.Speed(),
		MinFrame:         a.MinFrame(),
		MaxFrame:         a.MaxFrame(),
		RepeatCount:      a.RepeatCount(),
		RepeatMode:       a.RepeatMode().String(),
		Repeated:         a.Repeated(),
	}
	if e.comp != nil {
		st.FrameRate = e.comp.FrameRate()
		st.StartFrame = e.comp.StartFrame()
		st.EndFrame = e.comp.EndFrame()
	}
	return st
}

// PlaybackStateJSON returns PlaybackState as JSON.
func (e *Engine) PlaybackStateJSON() string {
	data, _ := json.Marshal(e.PlaybackState())
	return string(data)
}

// ParseRepeatMode accepts "restart" and "reverse".
func ParseRepeatMode(s string) (animator.RepeatMode, bool) {
	switch s {
	case "restart":
		return animator.Restart, true
	case "reverse":
		return animator.Reverse, true
	}
	return 0, false
}
