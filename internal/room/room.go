// Package room implements the room actor: the single-writer owner of a
// room's presence roster, its game tables and its connection table. All
// mutation funnels through one serial inbox, so handlers never need
// locks; distinct rooms run fully independently.
package room

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/lakotafox/top2d/internal/blackjack"
	"github.com/lakotafox/top2d/internal/farkle"
	"github.com/lakotafox/top2d/internal/presence"
	"github.com/lakotafox/top2d/internal/protocol"
	"github.com/lakotafox/top2d/internal/sched"
)

// Msg is a message on the room's serial inbox.
type Msg interface{ isRoomMsg() }

// Connect registers a connection. The reply is false when the room is
// at capacity; the gateway then notifies and closes the socket without
// the connection ever being registered.
type Connect struct {
	ConnID string
	Outbox chan []byte
	Reply  chan bool
}

// Disconnect removes a connection and its presence record.
type Disconnect struct{ ConnID string }

// Frame is one inbound text frame from a registered connection.
type Frame struct {
	ConnID string
	Data   []byte
}

// Shutdown tears the room down.
type Shutdown struct{}

type advanceFarkle struct{ tableID string }
type resetBlackjack struct{ tableID string }

func (Connect) isRoomMsg()        {}
func (Disconnect) isRoomMsg()     {}
func (Frame) isRoomMsg()          {}
func (Shutdown) isRoomMsg()       {}
func (advanceFarkle) isRoomMsg()  {}
func (resetBlackjack) isRoomMsg() {}

// Source is the room's randomness: dice rolls and shoe shuffles.
// *math/rand.Rand satisfies it; tests inject a scripted source.
type Source interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Config carries the room's tunables. Tests shrink the delays.
type Config struct {
	MaxConns            int
	FarkleAdvanceDelay  time.Duration // deferred advance after a farkle
	FarkleBankDelay     time.Duration // deferred advance after banking
	BlackjackResetDelay time.Duration // deferred round reset after payout
	Rand                Source        // defaults to a time-seeded source
	OnEmpty             func(roomID string)
}

// DefaultConfig mirrors the production timings.
func DefaultConfig() Config {
	return Config{
		MaxConns:            4,
		FarkleAdvanceDelay:  2000 * time.Millisecond,
		FarkleBankDelay:     1000 * time.Millisecond,
		BlackjackResetDelay: 3000 * time.Millisecond,
	}
}

// Room is one isolated room actor.
type Room struct {
	id     string
	cfg    Config
	inbox  chan Msg
	conns  map[string]chan []byte
	roster *presence.Registry
	dice   map[string]*farkle.Table
	cards  map[string]*blackjack.Table
	timers map[string]*sched.Timer
	sch    *sched.Scheduler
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New starts a room actor.
func New(parent context.Context, id string, cfg Config, sch *sched.Scheduler, log *zap.Logger) *Room {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		id:     id,
		cfg:    cfg,
		inbox:  make(chan Msg, 64),
		conns:  make(map[string]chan []byte),
		roster: presence.NewRegistry(),
		dice:   make(map[string]*farkle.Table),
		cards:  make(map[string]*blackjack.Table),
		timers: make(map[string]*sched.Timer),
		sch:    sch,
		log:    log.With(zap.String("room", id)),
		ctx:    ctx,
		cancel: cancel,
	}
	go r.loop()
	return r
}

// Inbox is where the gateway and the hub deliver messages.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

// Done is closed once the room has shut down; senders must select on it
// so they never block on a dead actor.
func (r *Room) Done() <-chan struct{} { return r.ctx.Done() }

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Connect:
				r.handleConnect(msg)

			case Disconnect:
				r.handleDisconnect(msg.ConnID)
				if len(r.conns) == 0 {
					r.shutdown()
					if r.cfg.OnEmpty != nil {
						r.cfg.OnEmpty(r.id)
					}
					return
				}

			case Frame:
				r.handleFrame(msg)

			case advanceFarkle:
				r.handleFarkleAdvance(msg.tableID)

			case resetBlackjack:
				r.handleBlackjackReset(msg.tableID)

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) shutdown() {
	for key, tm := range r.timers {
		tm.Stop()
		delete(r.timers, key)
	}
	for id, ch := range r.conns {
		close(ch)
		delete(r.conns, id)
	}
	r.cancel()
}

func (r *Room) handleConnect(msg Connect) {
	if len(r.conns) >= r.cfg.MaxConns {
		r.log.Info("room full, rejecting connection", zap.String("conn", msg.ConnID))
		msg.Reply <- false
		return
	}
	r.conns[msg.ConnID] = msg.Outbox
	welcome := fmt.Sprintf("Welcome! You are player %d/%d", len(r.conns), r.cfg.MaxConns)
	msg.Outbox <- protocol.Welcome(msg.ConnID, r.roster.List(), welcome)
	msg.Reply <- true
}

func (r *Room) handleDisconnect(connID string) {
	ch, ok := r.conns[connID]
	if !ok {
		return
	}
	delete(r.conns, connID)
	close(ch)

	if r.roster.Remove(connID) {
		r.log.Info("player left", zap.String("conn", connID))
		r.broadcast(protocol.PlayerLeft(connID), "")
	}
}

func (r *Room) handleFrame(msg Frame) {
	in, err := protocol.Decode(msg.Data)
	if err != nil {
		var rej *protocol.RejectError
		if errors.As(err, &rej) {
			r.send(msg.ConnID, protocol.Reject(rej))
		} else {
			r.log.Warn("dropping malformed frame", zap.String("conn", msg.ConnID), zap.Error(err))
		}
		return
	}

	switch in := in.(type) {
	case protocol.PresenceJoin:
		rec := r.roster.Join(msg.ConnID, in.Fields)
		r.log.Info("player joined", zap.String("name", rec.Name), zap.Int("roster", r.roster.Len()))
		r.broadcast(protocol.PlayerJoined(rec), msg.ConnID)

	case protocol.PresenceUpdate:
		if rec, ok := r.roster.Update(msg.ConnID, in.Fields); ok {
			r.broadcast(protocol.PlayerUpdated(rec), msg.ConnID)
		}

	case protocol.PresenceSync:
		r.send(msg.ConnID, protocol.Roster(r.roster.List()))

	case protocol.FarkleCmd:
		r.handleFarkle(msg.ConnID, in)

	case protocol.BlackjackCmd:
		r.handleBlackjack(msg.ConnID, in)

	case protocol.Relay:
		name := "Unknown"
		if rec, ok := r.roster.Get(msg.ConnID); ok {
			name = rec.Name
		}
		payload, err := protocol.Relayed(in.Raw, msg.ConnID, name)
		if err != nil {
			r.log.Warn("dropping unrelayable frame", zap.Error(err))
			return
		}
		r.broadcast(payload, msg.ConnID)
	}
}

// send delivers to one connection; a full outbox drops the client.
func (r *Room) send(connID string, payload []byte) {
	ch, ok := r.conns[connID]
	if !ok {
		return
	}
	select {
	case ch <- payload:
	default:
		close(ch)
		delete(r.conns, connID)
	}
}

// broadcast fans out to every connection, optionally excluding the
// originating sender. Slow clients are dropped rather than awaited.
func (r *Room) broadcast(payload []byte, exceptID string) {
	for id, ch := range r.conns {
		if id == exceptID {
			continue
		}
		select {
		case ch <- payload:
		default:
			close(ch)
			delete(r.conns, id)
		}
	}
}

// armTimer replaces any pending deferred transition for key. The fired
// callback re-enters the inbox; the handler's first act is a registry
// lookup keyed by table id, never a captured pointer.
func (r *Room) armTimer(key string, d time.Duration, m Msg) {
	if tm, ok := r.timers[key]; ok {
		tm.Stop()
	}
	r.timers[key] = r.sch.Once(d, func() { r.post(m) })
}

func (r *Room) post(m Msg) {
	select {
	case r.inbox <- m:
	case <-r.ctx.Done():
	}
}

func (r *Room) displayName(connID string) string {
	if rec, ok := r.roster.Get(connID); ok {
		return rec.Name
	}
	return presence.DefaultName(connID)
}
