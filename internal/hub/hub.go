// Package hub owns the room table. Rooms are created on demand when a
// connection names an unseen room id and removed once their last
// connection drops. The hub itself is an actor with a serial inbox, so
// the room map needs no locking.
package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/lakotafox/top2d/internal/room"
	"github.com/lakotafox/top2d/internal/sched"
)

type HubMsg interface{ isHubMsg() }

// EnsureRoom returns the live room for Code, creating it if absent or
// if the previous actor for that code has already shut down.
type EnsureRoom struct {
	Code  string
	Reply chan *room.Room
}

// GetRoom returns the room for Code, or nil.
type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

// RemoveRoom drops a room that reported itself empty. Ignored when a
// fresh actor has already taken over the code.
type RemoveRoom struct{ Code string }

// ShutdownHub stops every room and then the hub itself.
type ShutdownHub struct{}

func (EnsureRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	cfg    room.Config
	sch    *sched.Scheduler
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, cfg room.Config, sch *sched.Scheduler, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		cfg:    cfg,
		sch:    sch,
		log:    log.Named("hub"),
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Ensure is a convenience wrapper around EnsureRoom for callers outside
// the actor world. Returns nil only when the hub is shutting down.
func (h *Hub) Ensure(code string) *room.Room {
	reply := make(chan *room.Room, 1)
	select {
	case h.inbox <- EnsureRoom{Code: code, Reply: reply}:
	case <-h.ctx.Done():
		return nil
	}
	select {
	case rm := <-reply:
		return rm
	case <-h.ctx.Done():
		return nil
	}
}

// Get is the lookup counterpart of Ensure; it may return nil.
func (h *Hub) Get(code string) *room.Room {
	reply := make(chan *room.Room, 1)
	select {
	case h.inbox <- GetRoom{Code: code, Reply: reply}:
	case <-h.ctx.Done():
		return nil
	}
	select {
	case rm := <-reply:
		return rm
	case <-h.ctx.Done():
		return nil
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureRoom:
				msg.Reply <- h.ensure(msg.Code)

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // may be nil

			case RemoveRoom:
				if rm := h.rooms[msg.Code]; rm != nil && done(rm) {
					delete(h.rooms, msg.Code)
					h.log.Info("room removed", zap.String("room", msg.Code))
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) ensure(code string) *room.Room {
	if rm := h.rooms[code]; rm != nil && !done(rm) {
		return rm
	}

	cfg := h.cfg
	cfg.OnEmpty = func(roomID string) {
		select {
		case h.inbox <- RemoveRoom{Code: roomID}:
		case <-h.ctx.Done():
		}
	}
	rm := room.New(h.ctx, code, cfg, h.sch, h.log)
	h.rooms[code] = rm
	h.log.Info("room created", zap.String("room", code))
	return rm
}

func (h *Hub) shutdown() {
	for code, rm := range h.rooms {
		select {
		case rm.Inbox() <- room.Shutdown{}:
		case <-rm.Done():
		}
		delete(h.rooms, code)
	}
	h.cancel()
}

// done reports whether a room actor has already stopped.
func done(rm *room.Room) bool {
	select {
	case <-rm.Done():
		return true
	default:
		return false
	}
}
