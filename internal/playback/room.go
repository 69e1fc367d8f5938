package playback

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/inamate/motion/internal/engine"
	"github.com/inamate/motion/internal/model"
	"github.com/inamate/motion/internal/render"
	"github.com/inamate/motion/internal/typeid"
)

// Room is the shared playback of one composition.
type Room struct {
	hub           *Hub
	compositionID string
	sessionID     string
	clients       map[string]*Client // clientID -> client, guarded by hub.mu

	engine   *engine.Engine
	renderer *render.Renderer
	interval time.Duration

	seq       atomic.Int64
	dirty     atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

func newRoom(h *Hub, compositionID string, comp *model.Composition) (*Room, error) {
	e := engine.New(h.engineOpts...)
	if err := e.SetComposition(comp); err != nil {
		return nil, err
	}
	r, err := render.New(e)
	if err != nil {
		return nil, err
	}
	return &Room{
		hub:           h,
		compositionID: compositionID,
		sessionID:     typeid.NewSessionID(),
		clients:       make(map[string]*Client),
		engine:        e,
		renderer:      r,
		interval:      time.Duration(float64(time.Second) / h.fps),
		done:          make(chan struct{}),
	}, nil
}

func (r *Room) markDirty() { r.dirty.Store(true) }

func (r *Room) close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// run advances playback and broadcasts a frame whenever it changed.
func (r *Room) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	last := time.Now()
	wasPlaying := false

	for {
		select {
		case <-r.done:
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now

			changed, err := r.engine.Tick(elapsed)
			if err != nil {
				slog.Error("tick", "error", err, "session", r.sessionID)
				continue
			}
			playing := r.engine.PlaybackState().Playing
			if changed || r.dirty.Swap(false) {
				r.broadcastFrame()
			}
			if wasPlaying && !playing {
				r.hub.broadcastToRoom(r.compositionID, r.stateMessage(), "")
			}
			wasPlaying = playing
		}
	}
}

func (r *Room) broadcastFrame() {
	data, err := r.renderer.PNGBytes()
	if err != nil {
		slog.Error("render frame", "error", err, "session", r.sessionID)
		return
	}
	st := r.engine.PlaybackState()
	r.hub.broadcastToRoom(r.compositionID, &Message{
		Type: TypeFrame,
		Seq:  r.seq.Add(1),
		Payload: marshalPayload(FramePayload{
			Frame:    st.Frame,
			Progress: st.Progress,
			PNG:      base64.StdEncoding.EncodeToString(data),
		}),
	}, "")
}

func (r *Room) welcome() *Message {
	w, h := r.engine.Size()
	return &Message{
		Type:          TypeWelcome,
		CompositionID: r.compositionID,
		Payload: marshalPayload(WelcomePayload{
			SessionID: r.sessionID,
			Width:     w,
			Height:    h,
			Warnings:  r.engine.Warnings(),
			State:     r.engine.PlaybackState(),
		}),
	}
}

func (r *Room) stateMessage() *Message {
	return &Message{Type: TypeState, Seq: r.seq.Add(1), Payload: marshalPayload(r.engine.PlaybackState())}
}

// apply executes a control message on the room engine.
func (r *Room) apply(msg *Message) error {
	switch msg.Type {
	case TypePlay:
		if r.engine.Progress() >= 1 {
			r.engine.Play()
		} else {
			r.engine.Resume()
		}
	case TypePause:
		r.engine.Pause()
	case TypeSeek:
		var p SeekPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid seek payload: %w", err)
		}
		switch {
		case p.Frame != nil:
			r.engine.SetFrame(*p.Frame)
		case p.Progress != nil:
			r.engine.SetProgress(*p.Progress)
		default:
			return fmt.Errorf("seek needs frame or progress")
		}
	case TypeSpeed:
		var p SpeedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid speed payload: %w", err)
		}
		r.engine.SetSpeed(p.Speed)
	case TypeRepeat:
		var p RepeatPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid repeat payload: %w", err)
		}
		mode, ok := engine.ParseRepeatMode(p.Mode)
		if !ok {
			return fmt.Errorf("unknown repeat mode %q", p.Mode)
		}
		r.engine.SetRepeat(p.Count, mode)
	case TypeMarker:
		var p MarkerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid marker payload: %w", err)
		}
		if err := r.engine.SetMarker(p.Name); err != nil {
			return err
		}
	case TypeState:
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}
