// Package ws is the connection gateway: it terminates WebSockets, gives
// each connection a stable identity and shuttles text frames between
// the socket and the room actor. No game state lives here.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lakotafox/top2d/internal/hub"
	"github.com/lakotafox/top2d/internal/protocol"
	"github.com/lakotafox/top2d/internal/room"
)

const writeTimeout = 3 * time.Second

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	log = log.Named("ws")

	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("room")
		if code == "" {
			http.Error(w, "missing room", http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()

		// Register with the room actor before any writer exists. One
		// retry covers the race where the actor for this code empties
		// out just as we join it; each attempt gets a fresh outbox so a
		// dying room cannot close a channel a fresh room then inherits.
		var rm *room.Room
		var out chan []byte
		registered := false
		for attempt := 0; attempt < 2 && !registered; attempt++ {
			rm = h.Ensure(code)
			if rm == nil {
				break // hub is shutting down
			}
			out = make(chan []byte, 16)
			reply := make(chan bool, 1)
			select {
			case rm.Inbox() <- room.Connect{ConnID: connID, Outbox: out, Reply: reply}:
			case <-rm.Done():
				continue
			}
			select {
			case ok := <-reply:
				if !ok {
					// Capacity: notify and close, never registered.
					ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
					_ = conn.Write(ctx, websocket.MessageText, protocol.CapacityError("Room is full (max 4 players)"))
					cancel()
					conn.Close(websocket.StatusTryAgainLater, "room full")
					return
				}
				registered = true
			case <-rm.Done():
			}
		}
		if !registered {
			conn.Close(websocket.StatusTryAgainLater, "room unavailable")
			return
		}
		log.Debug("connection registered", zap.String("room", code), zap.String("conn", connID))

		// Writer drains the room outbox until the room closes it. The
		// outbox is buffered, so the welcome frame queued during
		// registration is already waiting for it.
		writeCtx, writeCancel := context.WithCancel(context.Background())
		defer writeCancel()
		go func() {
			for payload := range out {
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
			conn.Close(websocket.StatusGoingAway, "room closed")
		}()

		defer func() {
			select {
			case rm.Inbox() <- room.Disconnect{ConnID: connID}:
			case <-rm.Done():
			}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}
			select {
			case rm.Inbox() <- room.Frame{ConnID: connID, Data: data}:
			case <-rm.Done():
				return
			}
		}
	}
}
