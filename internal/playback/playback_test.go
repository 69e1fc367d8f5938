package playback

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/inamate/motion/internal/model"
	"github.com/inamate/motion/internal/parse"
)

const dotJSON = `{
  "v": "5.7.4", "fr": 30, "ip": 0, "op": 60, "w": 20, "h": 20,
  "layers": [{
    "ty": 4, "nm": "Dot", "ind": 1, "ip": 0, "op": 60, "st": 0, "sr": 1,
    "ks": {"a": {"a": 0, "k": [0, 0, 0]}, "p": {"a": 0, "k": [10, 10, 0]}, "s": {"a": 0, "k": [100, 100, 100]}, "r": {"a": 0, "k": 0}, "o": {"a": 0, "k": 100}},
    "shapes": [
      {"ty": "el", "nm": "Circle", "p": {"a": 0, "k": [0, 0]}, "s": {"a": 0, "k": [10, 10]}, "d": 1},
      {"ty": "fl", "nm": "Fill", "c": {"a": 0, "k": [1, 0, 0, 1]}, "o": {"a": 0, "k": 100}, "r": 1}
    ]
  }],
  "markers": [{"cm": "tail", "tm": 40, "dr": 20}]
}`

var errUnknown = errors.New("unknown composition")

func startServer(t *testing.T) (*Hub, string) {
	t.Helper()
	comp, err := parse.JSON([]byte(dotJSON))
	if err != nil {
		t.Fatal(err)
	}
	hub := NewHub(func(ctx context.Context, id string) (*model.Composition, error) {
		if id != "comp_dot" {
			return nil, errUnknown
		}
		return comp, nil
	}, 60)
	go hub.Run()
	t.Cleanup(hub.Stop)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, strings.TrimPrefix(r.URL.Path, "/"), uuid.New().String())
		if err := hub.Register(r.Context(), client); err != nil {
			conn.Close(websocket.StatusPolicyViolation, err.Error())
			return
		}
		go client.WritePump(r.Context())
		client.ReadPump(r.Context())
	}))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	conn.SetReadLimit(1 << 20)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	return msg
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(Message{Type: typ, Payload: raw})
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatal(err)
	}
}

// waitFor reads until a message of type typ satisfies ok.
func waitFor(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, ok func(Message) bool) Message {
	t.Helper()
	for {
		msg := read(t, ctx, conn)
		if msg.Type == typ && (ok == nil || ok(msg)) {
			return msg
		}
	}
}

func TestWelcomeAndSeek(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, url := startServer(t)
	conn := dial(t, ctx, url+"/comp_dot")

	welcome := read(t, ctx, conn)
	if welcome.Type != TypeWelcome {
		t.Fatalf("first message = %q, want welcome", welcome.Type)
	}
	var wp WelcomePayload
	if err := json.Unmarshal(welcome.Payload, &wp); err != nil {
		t.Fatal(err)
	}
	if wp.Width != 20 || !strings.HasPrefix(wp.SessionID, "sess_") {
		t.Fatalf("welcome = %+v", wp)
	}

	frame := 15.0
	send(t, ctx, conn, TypeSeek, SeekPayload{Frame: &frame})
	msg := waitFor(t, ctx, conn, TypeFrame, func(m Message) bool {
		var fp FramePayload
		return json.Unmarshal(m.Payload, &fp) == nil && fp.Frame == 15
	})
	var fp FramePayload
	if err := json.Unmarshal(msg.Payload, &fp); err != nil {
		t.Fatal(err)
	}
	png, err := base64.StdEncoding.DecodeString(fp.PNG)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(png), "\x89PNG") {
		t.Fatal("frame is not a PNG")
	}
}

func TestControlMessages(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, url := startServer(t)
	conn := dial(t, ctx, url+"/comp_dot")
	read(t, ctx, conn)

	tests := []struct {
		typ     string
		payload any
		check   func(st map[string]any) bool
	}{
		{TypeSpeed, SpeedPayload{Speed: 2}, func(st map[string]any) bool { return st["speed"] == 2.0 }},
		{TypeRepeat, RepeatPayload{Count: -1, Mode: "reverse"}, func(st map[string]any) bool { return st["repeatMode"] == "reverse" }},
		{TypeMarker, MarkerPayload{Name: "tail"}, func(st map[string]any) bool { return st["minFrame"] == 40.0 }},
		{TypePlay, struct{}{}, func(st map[string]any) bool { return st["playing"] == true }},
		{TypePause, struct{}{}, func(st map[string]any) bool { return st["playing"] == false }},
	}
	for _, tt := range tests {
		send(t, ctx, conn, tt.typ, tt.payload)
		msg := waitFor(t, ctx, conn, TypeState, nil)
		var st map[string]any
		if err := json.Unmarshal(msg.Payload, &st); err != nil {
			t.Fatal(err)
		}
		if !tt.check(st) {
			t.Fatalf("%s: state = %v", tt.typ, st)
		}
	}

	send(t, ctx, conn, TypeRepeat, RepeatPayload{Mode: "sideways"})
	waitFor(t, ctx, conn, TypeError, nil)
	send(t, ctx, conn, "rewind", struct{}{})
	waitFor(t, ctx, conn, TypeError, nil)
}

func TestUnknownComposition(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub, url := startServer(t)
	conn := dial(t, ctx, url+"/comp_missing")
	if _, _, err := conn.Read(ctx); websocket.CloseStatus(err) != websocket.StatusPolicyViolation {
		t.Fatalf("read err = %v, want policy violation close", err)
	}
	if hub.Rooms() != 0 {
		t.Fatalf("rooms = %d, want 0", hub.Rooms())
	}
}

func TestRoomClosesWhenEmpty(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub, url := startServer(t)
	conn := dial(t, ctx, url+"/comp_dot")
	read(t, ctx, conn)
	if hub.Rooms() != 1 {
		t.Fatalf("rooms = %d, want 1", hub.Rooms())
	}
	conn.Close(websocket.StatusNormalClosure, "")
	for hub.Rooms() != 0 {
		select {
		case <-ctx.Done():
			t.Fatal("room not closed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestMessagesDuringStop(t *testing.T) {
	seek, _ := json.Marshal(SeekPayload{})
	tests := []struct {
		name string
		msg  Message
	}{
		{"unknown type", Message{Type: "bogus"}},
		{"invalid seek", Message{Type: TypeSeek, Payload: seek}},
		{"pause", Message{Type: TypePause}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub, _ := startServer(t)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			clients := make([]*Client, 4)
			for i := range clients {
				clients[i] = NewClient(hub, nil, "comp_dot", uuid.New().String())
				if err := hub.Register(ctx, clients[i]); err != nil {
					t.Fatal(err)
				}
			}

			var wg sync.WaitGroup
			for _, c := range clients {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range 200 {
						msg := tt.msg
						hub.handleMessage(c, &msg)
					}
				}()
			}
			hub.Stop()
			wg.Wait()

			// Sends after the room closed are dropped.
			for _, c := range clients {
				c.sendError("late")
			}
		})
	}
}

func TestClientSendAfterClose(t *testing.T) {
	tests := []struct {
		name  string
		sends int
		want  int
	}{
		{"within buffer", 3, 3},
		{"buffer full", sendBuffer + 5, sendBuffer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(nil, nil, "comp_dot", "c1")
			for range tt.sends {
				c.Send(&Message{Type: TypePause})
			}
			c.close()
			c.close()
			c.Send(&Message{Type: TypePause})
			got := 0
			for range c.send {
				got++
			}
			if got != tt.want {
				t.Fatalf("queued %d, want %d", got, tt.want)
			}
		})
	}
}
