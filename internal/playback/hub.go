// Package playback streams rendered frames of a composition to websocket
// viewers. Viewers of one composition share a room: one engine whose
// playback any of them can control.
package playback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/inamate/motion/internal/engine"
	"github.com/inamate/motion/internal/model"
)

var ErrStopped = errors.New("playback: hub stopped")

// LoadFunc returns the composition with the given id.
type LoadFunc func(ctx context.Context, compositionID string) (*model.Composition, error)

type registration struct {
	client *Client
	comp   *model.Composition
	done   chan error
}

type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room // compositionID -> room

	register   chan registration
	unregister chan *Client
	stop       chan struct{}
	stopOnce   sync.Once

	load       LoadFunc
	fps        float64
	engineOpts []engine.Option
}

// NewHub streams at fps frames per second. engineOpts configure the engine
// of every room.
func NewHub(load LoadFunc, fps float64, engineOpts ...engine.Option) *Hub {
	if fps <= 0 {
		fps = 30
	}
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan registration),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		load:       load,
		fps:        fps,
		engineOpts: engineOpts,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case reg := <-h.register:
			reg.done <- h.addClient(reg.client, reg.comp)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.stop:
			h.closeRooms()
			return
		}
	}
}

// Stop closes every room and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Register loads the composition of client and joins its room.
func (h *Hub) Register(ctx context.Context, client *Client) error {
	comp, err := h.load(ctx, client.CompositionID)
	if err != nil {
		return fmt.Errorf("load composition: %w", err)
	}
	reg := registration{client: client, comp: comp, done: make(chan error, 1)}
	select {
	case h.register <- reg:
	case <-h.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-reg.done
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stop:
	}
}

// Rooms returns the number of open rooms.
func (h *Hub) Rooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) addClient(client *Client, comp *model.Composition) error {
	h.mu.Lock()
	room, ok := h.rooms[client.CompositionID]
	if !ok {
		var err error
		room, err = newRoom(h, client.CompositionID, comp)
		if err != nil {
			h.mu.Unlock()
			return err
		}
		h.rooms[client.CompositionID] = room
		go room.run()
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	client.Send(room.welcome())
	room.markDirty()

	slog.Info("viewer joined", "client", client.ClientID, "composition", client.CompositionID, "session", room.sessionID)
	return nil
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.CompositionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()

	if len(room.clients) == 0 {
		delete(h.rooms, client.CompositionID)
		room.close()
	}
	h.mu.Unlock()

	slog.Info("viewer left", "client", client.ClientID, "composition", client.CompositionID)
}

func (h *Hub) closeRooms() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for _, c := range room.clients {
			c.close()
		}
		room.close()
		delete(h.rooms, id)
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	h.mu.RLock()
	room, ok := h.rooms[sender.CompositionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := room.apply(msg); err != nil {
		slog.Warn("playback message rejected", "type", msg.Type, "client", sender.ClientID, "error", err)
		sender.sendError(err.Error())
		return
	}
	room.markDirty()
	h.broadcastToRoom(sender.CompositionID, room.stateMessage(), "")
}

func (h *Hub) broadcastToRoom(compositionID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[compositionID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}

	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

func marshalPayload(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshal payload", "error", err)
		return nil
	}
	return data
}
